package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/EikiYamashiro/agent-swarm/engine/fetch"
	"github.com/EikiYamashiro/agent-swarm/engine/model"
)

type fakeSource struct {
	data  map[string]string
	err   error
	calls int
}

func (s *fakeSource) Knowledge(ctx context.Context) (map[string]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

type fakeFetcher struct {
	pages map[string]string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*fetch.Page, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	content, ok := f.pages[url]
	if !ok {
		return nil, errors.New("no such page")
	}
	return &fetch.Page{URL: url, Content: content}, nil
}

type fakeProvider struct {
	reply   string
	err     error
	prompts []string
}

func (p *fakeProvider) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	if len(req.Messages) > 0 {
		p.prompts = append(p.prompts, req.Messages[len(req.Messages)-1].Content)
	}
	if p.err != nil {
		return nil, p.err
	}
	return &model.ChatResponse{Content: p.reply, Role: model.RoleAssistant}, nil
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Model() string { return "fake-model" }

func newTestIndex(t *testing.T, source *fakeSource, fetcher *fakeFetcher, provider *fakeProvider) *Index {
	t.Helper()
	return NewIndex(source, fetcher, provider, nil)
}

func TestBuildIsIdempotent(t *testing.T) {
	source := &fakeSource{data: map[string]string{"http://a.com": "Summary A."}}
	fetcher := &fakeFetcher{err: errors.New("offline")}
	ix := newTestIndex(t, source, fetcher, &fakeProvider{})

	ctx := context.Background()
	if err := ix.Build(ctx); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if err := ix.Build(ctx); err != nil {
		t.Fatalf("second build: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("source consulted %d times, want 1", source.calls)
	}

	ix.Invalidate()
	if err := ix.Build(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("source consulted %d times after invalidate, want 2", source.calls)
	}
}

func TestBuildFallsBackToSummaryOnFetchFailure(t *testing.T) {
	source := &fakeSource{data: map[string]string{"http://a.com": "A taxa cobrada por transação é 2%."}}
	fetcher := &fakeFetcher{err: errors.New("timeout")}
	ix := newTestIndex(t, source, fetcher, &fakeProvider{})

	hits, err := ix.Retrieve(context.Background(), "taxa", 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected hits from stored summary fallback")
	}
	if !strings.Contains(hits[0].Text, "2%") {
		t.Fatalf("hit text = %q, want summary content", hits[0].Text)
	}
	if hits[0].SourceURL != "http://a.com" {
		t.Fatalf("hit source = %q", hits[0].SourceURL)
	}
}

func TestBuildAppendsDistinctSummaryChunk(t *testing.T) {
	source := &fakeSource{data: map[string]string{
		"http://a.com": "Machines ship in two business days.",
	}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"http://a.com": "The payment terminal supports contactless cards.",
	}}
	ix := newTestIndex(t, source, fetcher, &fakeProvider{})

	if err := ix.Build(context.Background()); err != nil {
		t.Fatalf("build: %v", err)
	}

	ix.mu.Lock()
	corpus := ix.corpus
	ix.mu.Unlock()
	if len(corpus) != 2 {
		t.Fatalf("corpus size = %d, want page chunk plus summary chunk", len(corpus))
	}
}

func TestBuildSuppressesDuplicateSummary(t *testing.T) {
	source := &fakeSource{data: map[string]string{"http://a.com": "Our fee is 2%."}}
	fetcher := &fakeFetcher{err: errors.New("offline")}
	ix := newTestIndex(t, source, fetcher, &fakeProvider{})

	if err := ix.Build(context.Background()); err != nil {
		t.Fatalf("build: %v", err)
	}

	ix.mu.Lock()
	corpus := ix.corpus
	ix.mu.Unlock()
	if len(corpus) != 1 {
		t.Fatalf("corpus size = %d, want a single deduplicated chunk", len(corpus))
	}
}

func TestBuildDegradesOnSourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("disk gone")}
	ix := newTestIndex(t, source, &fakeFetcher{}, &fakeProvider{})

	hits, err := ix.Retrieve(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits from empty corpus, got %d", len(hits))
	}
}

func TestRetrieveFindsStoredFact(t *testing.T) {
	source := &fakeSource{data: map[string]string{"http://x.com": "Our fee is 2%."}}
	fetcher := &fakeFetcher{err: errors.New("offline")}
	ix := newTestIndex(t, source, fetcher, &fakeProvider{})

	hits, err := ix.Retrieve(context.Background(), "What is the fee?", 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if !strings.Contains(hits[0].Text, "2%") {
		t.Fatalf("top hit = %q, want the fee fact", hits[0].Text)
	}
	if hits[0].Score <= 0 {
		t.Fatalf("top hit score = %v, want > 0", hits[0].Score)
	}
}

func TestAnswerEmptyCorpus(t *testing.T) {
	source := &fakeSource{data: map[string]string{}}
	provider := &fakeProvider{reply: "should not be called"}
	ix := newTestIndex(t, source, &fakeFetcher{}, provider)

	answer, sources, err := ix.Answer(context.Background(), "qualquer coisa")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != MsgNoInformation {
		t.Fatalf("answer = %q, want %q", answer, MsgNoInformation)
	}
	if len(sources) != 0 {
		t.Fatalf("sources = %v, want empty", sources)
	}
	if len(provider.prompts) != 0 {
		t.Fatal("model should not be consulted without context")
	}
}

func TestAnswerBelowRelevanceFloor(t *testing.T) {
	source := &fakeSource{data: map[string]string{"http://a.com": "Our fee is 2%."}}
	fetcher := &fakeFetcher{err: errors.New("offline")}
	provider := &fakeProvider{reply: "should not be called"}
	ix := newTestIndex(t, source, fetcher, provider)

	// No query term appears in the corpus, so every hit scores zero.
	answer, sources, err := ix.Answer(context.Background(), "zebra xylophone")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != MsgNothingRelevant {
		t.Fatalf("answer = %q, want %q", answer, MsgNothingRelevant)
	}
	if len(sources) != 0 {
		t.Fatalf("sources = %v, want empty", sources)
	}
	if len(provider.prompts) != 0 {
		t.Fatal("model should not be consulted below the relevance floor")
	}
}

func TestAnswerSynthesizesFromContext(t *testing.T) {
	source := &fakeSource{data: map[string]string{"http://x.com": "Our fee is 2%."}}
	fetcher := &fakeFetcher{err: errors.New("offline")}
	provider := &fakeProvider{reply: "A taxa é 2%."}
	ix := newTestIndex(t, source, fetcher, provider)

	answer, sources, err := ix.Answer(context.Background(), "What is the fee?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != "A taxa é 2%." {
		t.Fatalf("answer = %q", answer)
	}
	if len(sources) != 1 || sources[0] != "http://x.com" {
		t.Fatalf("sources = %v", sources)
	}
	if len(provider.prompts) != 1 {
		t.Fatalf("model consulted %d times, want 1", len(provider.prompts))
	}
	if !strings.Contains(provider.prompts[0], "What is the fee?") {
		t.Fatalf("prompt missing question: %q", provider.prompts[0])
	}
	if !strings.Contains(provider.prompts[0], "2%") {
		t.Fatalf("prompt missing retrieved context: %q", provider.prompts[0])
	}
}

func TestAnswerModelFailureDegrades(t *testing.T) {
	source := &fakeSource{data: map[string]string{"http://x.com": "Our fee is 2%."}}
	fetcher := &fakeFetcher{err: errors.New("offline")}
	provider := &fakeProvider{err: errors.New("model down")}
	ix := newTestIndex(t, source, fetcher, provider)

	answer, sources, err := ix.Answer(context.Background(), "What is the fee?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != MsgCouldNotGenerate {
		t.Fatalf("answer = %q, want %q", answer, MsgCouldNotGenerate)
	}
	if len(sources) != 1 {
		t.Fatalf("sources = %v, want the consulted URL", sources)
	}
}
