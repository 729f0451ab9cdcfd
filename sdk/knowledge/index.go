// Package knowledge owns the chunk corpus and serves lexical retrieval and
// retrieval-augmented answers over it.
package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/EikiYamashiro/agent-swarm/engine/fetch"
	"github.com/EikiYamashiro/agent-swarm/engine/model"
	"github.com/EikiYamashiro/agent-swarm/engine/tfidf"
	"github.com/EikiYamashiro/agent-swarm/logger"
)

// Canned answers for the no-data paths, in the assistant's Portuguese voice.
const (
	MsgNoInformation    = "Não encontrei informações suficientes para responder."
	MsgNothingRelevant  = "Nenhuma informação relevante encontrada."
	MsgCouldNotGenerate = "Não foi possível gerar uma resposta."
)

// DefaultTopK is the number of chunks retrieved per query.
const DefaultTopK = 3

// RelevanceFloor is the minimum score a hit needs to feed answer synthesis.
const RelevanceFloor = 0.1

// Chunk is an immutable passage of page text paired with its source URL.
type Chunk struct {
	Text      string `json:"text"`
	SourceURL string `json:"source_url"`
}

// Hit is a scored retrieval result.
type Hit struct {
	Text      string  `json:"text"`
	SourceURL string  `json:"source_url"`
	Score     float64 `json:"score"`
}

// Source supplies the persisted url -> summary mapping backing the corpus.
type Source interface {
	Knowledge(ctx context.Context) (map[string]string, error)
}

// Fetcher retrieves live page text for indexing.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// Index owns the corpus and its built flag. Both live behind a mutex: builds
// are serialized, and the corpus is only ever replaced whole, never mutated
// in place, so queries see either the previous complete corpus or the new one.
type Index struct {
	source   Source
	fetcher  Fetcher
	provider model.Provider
	log      *logger.Logger

	maxChars int
	topK     int

	mu     sync.Mutex
	corpus []Chunk
	built  bool
}

// NewIndex creates an index over the given knowledge source. The corpus is
// built lazily on first retrieval.
func NewIndex(source Source, fetcher Fetcher, provider model.Provider, log *logger.Logger) *Index {
	if log == nil {
		log = logger.NewNop()
	}
	return &Index{
		source:   source,
		fetcher:  fetcher,
		provider: provider,
		log:      log.With("component", "knowledge"),
		maxChars: DefaultMaxChars,
		topK:     DefaultTopK,
	}
}

// SetMaxChars overrides the chunk size used on the next build. Values <= 0
// are ignored.
func (ix *Index) SetMaxChars(n int) {
	if n > 0 {
		ix.maxChars = n
	}
}

// SetTopK overrides how many chunks Answer retrieves per query. Values <= 0
// are ignored.
func (ix *Index) SetTopK(n int) {
	if n > 0 {
		ix.topK = n
	}
}

// Invalidate marks the corpus stale; the next retrieval rebuilds it.
func (ix *Index) Invalidate() {
	ix.mu.Lock()
	ix.built = false
	ix.mu.Unlock()
}

// Build downloads every stored URL, chunks the obtained text and assembles
// the corpus. A no-op when the index is already built. Per-URL fetch failures
// degrade to the stored summary; an unreadable knowledge mapping degrades to
// an empty corpus. The index is marked built even when nothing was indexed,
// so retrieval simply finds no hits.
func (ix *Index) Build(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.buildLocked(ctx)
}

func (ix *Index) buildLocked(ctx context.Context) error {
	if ix.built {
		return nil
	}

	knowledge, err := ix.source.Knowledge(ctx)
	if err != nil {
		ix.log.Warn("unable to load knowledge mapping", "error", err)
		knowledge = map[string]string{}
	}

	// Map iteration order is random; sort so rebuilds yield the same corpus.
	urls := make([]string, 0, len(knowledge))
	for url := range knowledge {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	corpus := make([]Chunk, 0, len(urls))
	for _, url := range urls {
		summary := knowledge[url]

		text := ix.fetchText(ctx, url)
		if text == "" {
			text = summary
		}
		if text == "" {
			continue
		}

		chunks := SplitChunks(text, ix.maxChars)
		for _, c := range chunks {
			corpus = append(corpus, Chunk{Text: c, SourceURL: url})
		}

		// The stored summary rides along as one more chunk unless the
		// chunker already produced it verbatim.
		if strings.TrimSpace(summary) != "" && !containsString(chunks, summary) {
			corpus = append(corpus, Chunk{Text: summary, SourceURL: url})
		}
	}

	ix.corpus = corpus
	ix.built = true
	ix.log.Info("knowledge index built", "urls", len(urls), "chunks", len(corpus))
	return nil
}

func (ix *Index) fetchText(ctx context.Context, url string) string {
	if ix.fetcher == nil {
		return ""
	}
	page, err := ix.fetcher.Fetch(ctx, url)
	if err != nil {
		ix.log.Warn("page fetch failed, falling back to stored summary", "url", url, "error", err)
		return ""
	}
	return page.Content
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Retrieve returns the topK corpus chunks most relevant to query, scored by
// the TF-IDF engine. Builds the corpus first if needed. An empty corpus
// yields no hits. Result records with out-of-range indexes are skipped.
func (ix *Index) Retrieve(ctx context.Context, query string, topK int) ([]Hit, error) {
	ix.mu.Lock()
	if err := ix.buildLocked(ctx); err != nil {
		ix.mu.Unlock()
		return nil, err
	}
	corpus := ix.corpus
	ix.mu.Unlock()

	if len(corpus) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	texts := make([]string, len(corpus))
	for i, c := range corpus {
		texts[i] = c.Text
	}

	results := tfidf.Score(query, texts, topK)
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(corpus) {
			continue
		}
		hits = append(hits, Hit{
			Text:      corpus[r.Index].Text,
			SourceURL: corpus[r.Index].SourceURL,
			Score:     r.Score,
		})
	}
	return hits, nil
}

// Answer retrieves context for query and synthesizes an answer through the
// model. No hits, no hits above the relevance floor, and model failures all
// degrade to canned strings; only retrieval-infrastructure errors propagate.
func (ix *Index) Answer(ctx context.Context, query string) (string, []string, error) {
	hits, err := ix.Retrieve(ctx, query, ix.topK)
	if err != nil {
		return "", nil, fmt.Errorf("knowledge answer: %w", err)
	}
	if len(hits) == 0 {
		return MsgNoInformation, []string{}, nil
	}

	var texts []string
	var sources []string
	seen := map[string]struct{}{}
	for _, h := range hits {
		if h.Score < RelevanceFloor {
			continue
		}
		texts = append(texts, h.Text)
		if _, ok := seen[h.SourceURL]; !ok {
			seen[h.SourceURL] = struct{}{}
			sources = append(sources, h.SourceURL)
		}
	}
	if len(texts) == 0 {
		return MsgNothingRelevant, []string{}, nil
	}

	prompt := fmt.Sprintf(
		"Com base neste contexto, responda a pergunta abaixo de forma direta e técnica:\n\nPergunta: %s\n\nContexto:\n%s",
		query, strings.Join(texts, "\n\n"))

	answer, err := model.Complete(ctx, ix.provider, prompt, 300)
	if err != nil {
		ix.log.Warn("answer synthesis failed", "error", err)
		answer = ""
	}
	if strings.TrimSpace(answer) == "" {
		answer = MsgCouldNotGenerate
	}
	return answer, sources, nil
}
