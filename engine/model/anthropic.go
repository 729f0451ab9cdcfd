package model

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Anthropic implements Provider for Claude models via the Anthropic Messages API.
type Anthropic struct {
	config ProviderConfig
	http   *httpClient
}

// NewAnthropic creates a new Anthropic provider with the given API key.
func NewAnthropic(apiKey string) *Anthropic {
	return NewAnthropicWithConfig(ProviderConfig{APIKey: apiKey})
}

// NewAnthropicWithConfig creates an Anthropic provider with full configuration.
func NewAnthropicWithConfig(cfg ProviderConfig) *Anthropic {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-20250514"
	}
	headers := map[string]string{
		"x-api-key":         cfg.APIKey,
		"anthropic-version": "2023-06-01",
	}
	return &Anthropic{
		config: cfg,
		http:   newHTTPClient(cfg.BaseURL, cfg.TimeoutSec, headers),
	}
}

func (a *Anthropic) Name() string  { return "anthropic" }
func (a *Anthropic) Model() string { return a.config.Model }

func (a *Anthropic) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	body := a.buildRequestBody(req)

	resp, err := a.http.post(ctx, "/v1/messages", body)
	if err != nil {
		return nil, fmt.Errorf("anthropic chat: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anthropic chat: %s", readErrorBody(resp))
	}

	var raw anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("anthropic chat decode: %w", err)
	}
	return convertAnthropicResponse(&raw), nil
}

func (a *Anthropic) buildRequestBody(req *ChatRequest) map[string]any {
	modelID := req.Model
	if modelID == "" {
		modelID = a.config.Model
	}

	// The Messages API takes the system prompt as a top-level field.
	var system string
	messages := make([]map[string]any, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			system = m.Content
			continue
		}
		messages = append(messages, map[string]any{"role": m.Role, "content": m.Content})
	}

	body := map[string]any{
		"model":      modelID,
		"messages":   messages,
		"max_tokens": 4096,
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if system != "" {
		body["system"] = system
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	if req.TopP > 0 {
		body["top_p"] = req.TopP
	}
	if len(req.Stop) > 0 {
		body["stop_sequences"] = req.Stop
	}
	return body
}

func convertAnthropicResponse(raw *anthropicResponse) *ChatResponse {
	cr := &ChatResponse{
		ID:   raw.ID,
		Role: RoleAssistant,
		Usage: Usage{
			PromptTokens:     raw.Usage.InputTokens,
			CompletionTokens: raw.Usage.OutputTokens,
		},
	}

	var textParts []string
	for _, block := range raw.Content {
		if block.Type == "text" {
			textParts = append(textParts, block.Text)
		}
	}
	cr.Content = strings.Join(textParts, "")

	switch raw.StopReason {
	case "max_tokens":
		cr.StopReason = StopReasonMaxTokens
	default:
		cr.StopReason = StopReasonEnd
	}
	return cr
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}
