package swarm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/EikiYamashiro/agent-swarm/engine/model"
	"github.com/EikiYamashiro/agent-swarm/logger"
	sdkknowledge "github.com/EikiYamashiro/agent-swarm/sdk/knowledge"
	"github.com/EikiYamashiro/agent-swarm/storage"
)

// maxSteps caps the orchestration loop.
const maxSteps = 3

const formattingPrompt = `You are a helpful assistant that formats responses using provided context.
Format the following response to be clear, professional, and well-structured.

Context: %s
Initial Answer: %s

Please:
1. Maintain factual accuracy
2. Improve clarity and readability
3. Use paragraphs where appropriate
4. Keep a professional, user-friendly tone
`

// Result is what every agent handler returns for one dispatch.
type Result struct {
	Answer    string
	Sources   []string
	ToolsUsed []string
	Ticket    *storage.Ticket
}

// Response is the outcome of a full orchestration run.
type Response struct {
	Answer        string   `json:"answer"`
	Sources       []string `json:"sources"`
	UsedRetrieval bool     `json:"used_retrieval"`
	ToolsUsed     []string `json:"tools_used"`
}

// Router drives the orchestration loop: it asks the routing model which agent
// should act, dispatches, and polishes the final answer.
type Router struct {
	provider model.Provider
	source   sdkknowledge.Source
	index    *sdkknowledge.Index
	support  *Support
	ingestor *Ingestor
	log      *logger.Logger
}

// NewRouter assembles the orchestration loop over the given collaborators.
func NewRouter(provider model.Provider, source sdkknowledge.Source, index *sdkknowledge.Index, support *Support, ingestor *Ingestor, log *logger.Logger) *Router {
	if log == nil {
		log = logger.NewNop()
	}
	return &Router{
		provider: provider,
		source:   source,
		index:    index,
		support:  support,
		ingestor: ingestor,
		log:      log.With("component", "router"),
	}
}

// RouteAndRespond runs at most maxSteps routing iterations for the message.
// The knowledge digest is computed once up front and reused across steps. An
// unparseable routing verdict becomes a final DIRECT step. Sources and tools
// come from the last dispatched handler only; used_retrieval is true only
// when the step that ended the loop selected RETRIEVE.
func (r *Router) RouteAndRespond(ctx context.Context, message, userID string) (*Response, error) {
	digest := r.knowledgeDigest(ctx)

	var observations []string
	var last *Result

	for step := 1; step <= maxSteps; step++ {
		decision, err := Decide(ctx, r.provider, message, digest)
		if err != nil {
			r.log.Warn("routing fallback to DIRECT", "step", step, "error", err)
			decision = &Decision{
				SelectedAgent: AgentDirect,
				IsFinal:       true,
				Reasoning:     fmt.Sprintf("Fallback routing (invalid response): %v", err),
			}
		}

		sel := decision.SelectedAgent
		result, err := r.dispatch(ctx, sel, message, userID)
		if err != nil {
			return nil, fmt.Errorf("dispatch %s: %w", sel, err)
		}
		last = result

		observations = append(observations, fmt.Sprintf("Step %d via %s: %s", step, sel, result.Answer))
		r.log.Info("step dispatched", "step", step, "agent", sel, "final", decision.IsFinal, "reasoning", decision.Reasoning)

		if decision.IsFinal {
			return r.finalize(ctx, message, observations, last, sel == AgentRetrieve)
		}
	}

	// Loop exhausted without a final verdict: report no retrieval even if
	// the last step retrieved.
	return r.finalize(ctx, message, observations, last, false)
}

func (r *Router) dispatch(ctx context.Context, sel, message, userID string) (*Result, error) {
	switch sel {
	case AgentSupport:
		return r.support.Handle(ctx, userID, message)

	case AgentAddKnowledge:
		r.index.Invalidate()
		return r.ingestor.Handle(ctx, userID, message)

	case AgentRetrieve:
		answer, sources, err := r.index.Answer(ctx, message)
		if err != nil {
			return nil, err
		}
		return &Result{Answer: answer, Sources: sources, ToolsUsed: []string{}}, nil

	default:
		answer, err := model.Complete(ctx, r.provider, message, 0)
		if err != nil {
			return nil, fmt.Errorf("direct completion: %w", err)
		}
		return &Result{Answer: answer, ToolsUsed: []string{}}, nil
	}
}

// finalize polishes the accumulated observations into the returned answer.
// A failed or empty polish pass falls back to the last handler's raw answer.
func (r *Router) finalize(ctx context.Context, message string, observations []string, last *Result, usedRetrieval bool) (*Response, error) {
	prompt := fmt.Sprintf(formattingPrompt, strings.Join(observations, "\n\n"), message)

	answer, err := model.Complete(ctx, r.provider, prompt, 0)
	if err != nil {
		r.log.Warn("final formatting failed, returning raw answer", "error", err)
		answer = ""
	}
	if strings.TrimSpace(answer) == "" && last != nil {
		answer = last.Answer
	}

	resp := &Response{
		Answer:        answer,
		Sources:       []string{},
		UsedRetrieval: usedRetrieval,
		ToolsUsed:     []string{},
	}
	if last != nil {
		if len(last.Sources) > 0 {
			resp.Sources = last.Sources
		}
		if len(last.ToolsUsed) > 0 {
			resp.ToolsUsed = last.ToolsUsed
		}
	}
	return resp, nil
}

// knowledgeDigest renders the stored mapping as one line per entry, summaries
// flattened and clipped to 200 characters.
func (r *Router) knowledgeDigest(ctx context.Context) string {
	knowledge, err := r.source.Knowledge(ctx)
	if err != nil {
		r.log.Warn("digest unavailable", "error", err)
		return "(unable to load knowledge)"
	}
	if len(knowledge) == 0 {
		return "(no knowledge entries)"
	}

	urls := make([]string, 0, len(knowledge))
	for url := range knowledge {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	lines := make([]string, 0, len(urls))
	for _, url := range urls {
		s := strings.ReplaceAll(knowledge[url], "\n", " ")
		if len([]rune(s)) > 200 {
			s = string([]rune(s)[:200]) + "..."
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", url, s))
	}
	return strings.Join(lines, "\n")
}
