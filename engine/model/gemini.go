package model

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Gemini implements Provider for Google's Gemini API. It is the default
// provider for the swarm: the routing and answer-synthesis prompts were
// tuned against gemini-2.0-flash-lite.
type Gemini struct {
	config ProviderConfig
	http   *httpClient
}

// NewGemini creates a new Gemini provider with the given API key.
func NewGemini(apiKey string) *Gemini {
	return NewGeminiWithConfig(ProviderConfig{
		APIKey:  apiKey,
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Model:   "gemini-2.0-flash-lite",
	})
}

// NewGeminiWithConfig creates a Gemini provider with full configuration.
func NewGeminiWithConfig(cfg ProviderConfig) *Gemini {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash-lite"
	}
	return &Gemini{
		config: cfg,
		http:   newHTTPClient(cfg.BaseURL, cfg.TimeoutSec, nil),
	}
}

func (g *Gemini) Name() string  { return "gemini" }
func (g *Gemini) Model() string { return g.config.Model }

func (g *Gemini) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = g.config.Model
	}

	body := g.buildRequestBody(req)
	path := fmt.Sprintf("/models/%s:generateContent?key=%s", modelID, g.config.APIKey)

	resp, err := g.http.post(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("gemini chat: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini chat: %s", readErrorBody(resp))
	}

	var raw geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("gemini chat decode: %w", err)
	}
	return g.convertResponse(&raw), nil
}

func (g *Gemini) buildRequestBody(req *ChatRequest) map[string]any {
	var systemInstruction map[string]any
	contents := make([]map[string]any, 0, len(req.Messages))

	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			systemInstruction = map[string]any{
				"parts": []map[string]string{{"text": m.Content}},
			}
			continue
		}

		role := m.Role
		if role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, map[string]any{
			"role":  role,
			"parts": []map[string]any{{"text": m.Content}},
		})
	}

	body := map[string]any{
		"contents": contents,
	}
	if systemInstruction != nil {
		body["systemInstruction"] = systemInstruction
	}

	genConfig := map[string]any{}
	if req.MaxTokens > 0 {
		genConfig["maxOutputTokens"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		genConfig["temperature"] = req.Temperature
	}
	if req.TopP > 0 {
		genConfig["topP"] = req.TopP
	}
	if len(req.Stop) > 0 {
		genConfig["stopSequences"] = req.Stop
	}
	if req.ResponseFormat == "json_object" {
		genConfig["responseMimeType"] = "application/json"
	}
	if len(genConfig) > 0 {
		body["generationConfig"] = genConfig
	}

	return body
}

func (g *Gemini) convertResponse(raw *geminiResponse) *ChatResponse {
	cr := &ChatResponse{Role: RoleAssistant}

	if raw.UsageMetadata != nil {
		cr.Usage = Usage{
			PromptTokens:     raw.UsageMetadata.PromptTokenCount,
			CompletionTokens: raw.UsageMetadata.CandidatesTokenCount,
		}
	}

	if len(raw.Candidates) == 0 {
		return cr
	}

	candidate := raw.Candidates[0]
	var textParts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			textParts = append(textParts, part.Text)
		}
	}
	cr.Content = strings.Join(textParts, "")

	switch candidate.FinishReason {
	case "MAX_TOKENS":
		cr.StopReason = StopReasonMaxTokens
	case "SAFETY":
		cr.StopReason = StopReasonFilter
	default:
		cr.StopReason = StopReasonEnd
	}
	return cr
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text,omitempty"`
			} `json:"parts"`
			Role string `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}
