package model

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// OpenAI implements Provider for OpenAI chat completion endpoints.
// Works with GPT-4o, GPT-4.1, o-series models, and any OpenAI-compatible API.
type OpenAI struct {
	config ProviderConfig
	http   *httpClient
}

// NewOpenAI creates a new OpenAI provider with the given API key.
func NewOpenAI(apiKey string) *OpenAI {
	return NewOpenAIWithConfig(ProviderConfig{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	})
}

// NewOpenAIWithConfig creates an OpenAI provider with full configuration.
func NewOpenAIWithConfig(cfg ProviderConfig) *OpenAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	headers := map[string]string{
		"Authorization": "Bearer " + cfg.APIKey,
	}
	if cfg.OrgID != "" {
		headers["OpenAI-Organization"] = cfg.OrgID
	}
	return &OpenAI{
		config: cfg,
		http:   newHTTPClient(cfg.BaseURL, cfg.TimeoutSec, headers),
	}
}

func (o *OpenAI) Name() string  { return "openai" }
func (o *OpenAI) Model() string { return o.config.Model }

func (o *OpenAI) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	body := buildOpenAIRequestBody(req, o.config.Model)

	resp, err := o.http.post(ctx, "/chat/completions", body)
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai chat: %s", readErrorBody(resp))
	}

	var oaiResp openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaiResp); err != nil {
		return nil, fmt.Errorf("openai chat decode: %w", err)
	}

	return convertOpenAIResponse(&oaiResp), nil
}

// buildOpenAIRequestBody converts a ChatRequest into the OpenAI API JSON body.
// Shared by the OpenAI and OpenAICompatible providers.
func buildOpenAIRequestBody(req *ChatRequest, defaultModel string) map[string]any {
	modelID := req.Model
	if modelID == "" {
		modelID = defaultModel
	}

	messages := make([]map[string]any, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, map[string]any{"role": m.Role, "content": m.Content})
	}

	body := map[string]any{
		"model":    modelID,
		"messages": messages,
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	if req.TopP > 0 {
		body["top_p"] = req.TopP
	}
	if len(req.Stop) > 0 {
		body["stop"] = req.Stop
	}
	if req.ResponseFormat == "json_object" {
		body["response_format"] = map[string]string{"type": "json_object"}
	}
	return body
}

// convertOpenAIResponse maps the raw API response to a ChatResponse.
func convertOpenAIResponse(oai *openAIChatResponse) *ChatResponse {
	if len(oai.Choices) == 0 {
		return &ChatResponse{ID: oai.ID, Role: RoleAssistant}
	}
	choice := oai.Choices[0]
	return &ChatResponse{
		ID:      oai.ID,
		Content: choice.Message.Content,
		Role:    RoleAssistant,
		Usage: Usage{
			PromptTokens:     oai.Usage.PromptTokens,
			CompletionTokens: oai.Usage.CompletionTokens,
		},
		StopReason: mapOpenAIFinishReason(choice.FinishReason),
	}
}

func mapOpenAIFinishReason(reason string) StopReason {
	switch reason {
	case "length":
		return StopReasonMaxTokens
	case "content_filter":
		return StopReasonFilter
	default:
		return StopReasonEnd
	}
}

// openAIChatResponse is the raw OpenAI API response shape.
type openAIChatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index        int    `json:"index"`
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}
