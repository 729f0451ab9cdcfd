package tools

import (
	"context"

	"github.com/EikiYamashiro/agent-swarm/sdk/knowledge"
	"github.com/EikiYamashiro/agent-swarm/storage"
)

// NewDefaultRegistry registers the built-in tool set over the given
// collaborators.
func NewDefaultRegistry(store storage.Store, fetcher knowledge.Fetcher, index *knowledge.Index) *Registry {
	r := NewRegistry()

	r.Register(&Definition{
		ID:          "fetch_webpage",
		Description: "Download a web page and return its visible text.",
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			url, err := stringParam(params, "url")
			if err != nil {
				return nil, err
			}
			page, err := fetcher.Fetch(ctx, url)
			if err != nil {
				return nil, err
			}
			return map[string]any{"url": page.URL, "title": page.Title, "content": page.Content}, nil
		},
	})

	r.Register(&Definition{
		ID:          "semantic_search",
		Description: "Retrieve the stored passages most relevant to a query.",
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			query, err := stringParam(params, "query")
			if err != nil {
				return nil, err
			}
			topK := intParam(params, "top_k", knowledge.DefaultTopK)
			hits, err := index.Retrieve(ctx, query, topK)
			if err != nil {
				return nil, err
			}
			return map[string]any{"hits": hits}, nil
		},
	})

	r.Register(&Definition{
		ID:          "get_knowledge",
		Description: "Return the full url -> summary knowledge mapping.",
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			return store.Knowledge(ctx)
		},
	})

	r.Register(&Definition{
		ID:          "add_knowledge_url",
		Description: "Fetch a page, summarize it and store it in the knowledge base.",
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			url, err := stringParam(params, "url")
			if err != nil {
				return nil, err
			}
			page, err := fetcher.Fetch(ctx, url)
			if err != nil {
				return nil, err
			}
			summary := knowledge.Summarize(page.Content, 3)
			if err := store.PutKnowledge(ctx, url, summary); err != nil {
				return nil, err
			}
			index.Invalidate()
			return map[string]any{url: summary}, nil
		},
	})

	r.Register(&Definition{
		ID:          "get_user_profile",
		Description: "Look up a user profile by ID.",
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			userID, err := stringParam(params, "user_id")
			if err != nil {
				return nil, err
			}
			return store.GetUser(ctx, userID)
		},
	})

	r.Register(&Definition{
		ID:          "create_support_ticket",
		Description: "Open a support ticket for a user.",
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			userID, err := stringParam(params, "user_id")
			if err != nil {
				return nil, err
			}
			subject, err := stringParam(params, "subject")
			if err != nil {
				return nil, err
			}
			body, err := stringParam(params, "body")
			if err != nil {
				return nil, err
			}
			return store.CreateTicket(ctx, userID, subject, body)
		},
	})

	return r
}
