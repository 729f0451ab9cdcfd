package swarm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/EikiYamashiro/agent-swarm/engine/model"
	"github.com/EikiYamashiro/agent-swarm/logger"
	sdkknowledge "github.com/EikiYamashiro/agent-swarm/sdk/knowledge"
	"github.com/EikiYamashiro/agent-swarm/storage"
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

// addIntentWords is the heuristic used when the model cannot confirm intent.
var addIntentWords = []string{"adicione", "adicionar", "adiciona", "add", "incluir"}

// Canned replies for the ingestion flow.
const (
	msgNoURL    = "Não encontrei uma URL na mensagem."
	msgDeclined = "Não vou adicionar o link ao knowledge."
)

// Ingestor handles requests to add a web page to the knowledge store. It
// confirms intent through the model, fetches the page, summarizes it and
// merges the entry into the store.
type Ingestor struct {
	store    storage.Store
	fetcher  sdkknowledge.Fetcher
	provider model.Provider
	log      *logger.Logger
}

// NewIngestor wires an ingestion handler.
func NewIngestor(store storage.Store, fetcher sdkknowledge.Fetcher, provider model.Provider, log *logger.Logger) *Ingestor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Ingestor{store: store, fetcher: fetcher, provider: provider, log: log.With("component", "ingest")}
}

// Handle extracts the first URL from the message, confirms the user wants it
// added and persists a three-sentence summary of the page under that URL.
// Every failure path answers in kind rather than erroring; only storage
// faults propagate.
func (ig *Ingestor) Handle(ctx context.Context, userID, message string) (*Result, error) {
	tools := []string{}

	url := firstURL(message)
	if url == "" {
		return &Result{Answer: msgNoURL, ToolsUsed: tools}, nil
	}

	if !ig.confirmIntent(ctx, message, url) {
		return &Result{Answer: msgDeclined, ToolsUsed: tools}, nil
	}

	page, err := ig.fetcher.Fetch(ctx, url)
	if err != nil {
		ig.log.Warn("ingestion fetch failed", "url", url, "error", err)
		return &Result{Answer: fmt.Sprintf("Falha ao adicionar a URL: %v", err), ToolsUsed: tools}, nil
	}

	summary := sdkknowledge.Summarize(page.Content, 3)
	if err := ig.store.PutKnowledge(ctx, url, summary); err != nil {
		return nil, fmt.Errorf("persist knowledge entry: %w", err)
	}

	tools = append(tools, "add_knowledge_url")
	ig.log.Info("knowledge entry added", "url", url, "user_id", userID)
	return &Result{Answer: "URL adicionada ao knowledge: " + url, ToolsUsed: tools}, nil
}

// confirmIntent asks the model whether the message really requests adding the
// URL. An unavailable or ambiguous model falls back to keyword matching.
func (ig *Ingestor) confirmIntent(ctx context.Context, message, url string) bool {
	prompt := fmt.Sprintf(
		"O usuário pediu: %q.\n\nA mensagem contém a solicitação para ADICIONAR a URL %s ao repositório de conhecimento? Responda apenas com SIM ou NÃO.",
		message, url)

	confirm, err := model.Complete(ctx, ig.provider, prompt, 100)
	if err != nil {
		ig.log.Warn("intent confirmation failed", "error", err)
		confirm = ""
	}
	confirm = strings.ToUpper(strings.TrimSpace(confirm))

	if confirm == "" {
		lower := strings.ToLower(message)
		for _, w := range addIntentWords {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
	return strings.HasPrefix(confirm, "S")
}

// firstURL returns the first http(s) URL in text, trimmed of trailing
// punctuation that tends to cling to pasted links.
func firstURL(text string) string {
	m := urlPattern.FindString(text)
	return strings.TrimRight(m, ".,)")
}
