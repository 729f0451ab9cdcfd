package model

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// OpenAICompatible implements Provider for any OpenAI-compatible API endpoint.
// Use this for self-hosted models (vLLM, Ollama, LiteLLM) or cloud providers
// that expose an OpenAI-compatible interface (Groq, Together, OpenRouter).
type OpenAICompatible struct {
	config       ProviderConfig
	providerName string
	http         *httpClient
}

// NewOpenAICompatible creates a provider for any OpenAI-compatible endpoint.
// name is a human-readable identifier (e.g., "groq", "vllm").
func NewOpenAICompatible(name string, cfg ProviderConfig) *OpenAICompatible {
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}
	return &OpenAICompatible{
		config:       cfg,
		providerName: name,
		http:         newHTTPClient(cfg.BaseURL, cfg.TimeoutSec, headers),
	}
}

func (c *OpenAICompatible) Name() string  { return c.providerName }
func (c *OpenAICompatible) Model() string { return c.config.Model }

func (c *OpenAICompatible) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	body := buildOpenAIRequestBody(req, c.config.Model)

	resp, err := c.http.post(ctx, "/chat/completions", body)
	if err != nil {
		return nil, fmt.Errorf("%s chat: %w", c.providerName, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s chat: %s", c.providerName, readErrorBody(resp))
	}

	var oaiResp openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaiResp); err != nil {
		return nil, fmt.Errorf("%s chat decode: %w", c.providerName, err)
	}
	return convertOpenAIResponse(&oaiResp), nil
}

// NewGroq creates a provider for Groq.
func NewGroq(apiKey, modelID string) *OpenAICompatible {
	return NewOpenAICompatible("groq", ProviderConfig{
		APIKey: apiKey, BaseURL: "https://api.groq.com/openai/v1", Model: modelID,
	})
}

// NewOpenRouter creates a provider for OpenRouter.
func NewOpenRouter(apiKey, modelID string) *OpenAICompatible {
	return NewOpenAICompatible("openrouter", ProviderConfig{
		APIKey: apiKey, BaseURL: "https://openrouter.ai/api/v1", Model: modelID,
	})
}
