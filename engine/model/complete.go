package model

import "context"

// Complete sends a single user prompt and returns the assistant text.
// An empty string with a nil error means the model produced no usable text;
// callers substitute their own canned answer in that case.
func Complete(ctx context.Context, p Provider, prompt string, maxTokens int) (string, error) {
	resp, err := p.Chat(ctx, &ChatRequest{
		Messages:  []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
