// Package swarm routes user messages across the specialized agents and runs
// the orchestration loop that stitches their answers together.
package swarm

import (
	"context"
	"fmt"
	"strings"

	"github.com/EikiYamashiro/agent-swarm/engine/model"
)

// Agent intents the routing model can select.
const (
	AgentSupport      = "SUPPORT"
	AgentRetrieve     = "RETRIEVE"
	AgentDirect       = "DIRECT"
	AgentAddKnowledge = "ADD_KNOWLEDGE"
)

// Decision is the routing model's verdict for a single step.
type Decision struct {
	SelectedAgent string `json:"selected_agent"`
	IsFinal       bool   `json:"is_final"`
	Reasoning     string `json:"reasoning"`
}

const routingPrompt = `You are a ROUTING AI specialized in the CloudWalk and InfinityPay ecosystem.
Your task is to decide which specialized agent should handle a user message.

Respond ONLY with valid JSON:
{
  "selected_agent": "SUPPORT" | "RETRIEVE" | "DIRECT" | "ADD_KNOWLEDGE",
  "is_final": true or false, indicates if this is the final step,
  "reasoning": "short reasoning for your choice"
}

## Domain context:
CloudWalk and InfinityPay provide payment solutions, APIs, financial platforms, and integrations for businesses.
User questions may involve topics such as: onboarding, fees, terminals, API usage, integrations, account setup, support requests, product updates, or business inquiries.

## Decision rules:
- Use "RETRIEVE" if the question asks about any information related to CloudWalk or InfinityPay — such as product details, pricing, API documentation, terminal usage, company policies, or other factual data — that could exist in the stored knowledge base.
- Use "SUPPORT" if the message is about technical problems, bugs, access errors, or operational issues with the system.
- Use "ADD_KNOWLEDGE" if the user wants to add, update, or upload new information to the knowledge base.
- Use "DIRECT" if the message is personal, conversational, or unrelated to CloudWalk/InfinityPay, and does not require retrieval or system support.

Note:
If the user's question could be improved or clarified by referencing company information, documentation, or internal resources, prefer "RETRIEVE" — since additional context can be acquired from stored knowledge.

Knowledge (summary):
%s

User message:
%s`

// Decide asks the routing model which agent should handle the message. The
// returned error wraps a *model.DecodeError when the model's output could not
// be parsed into a valid decision; callers fall back to DIRECT in that case.
func Decide(ctx context.Context, p model.Provider, message, digest string) (*Decision, error) {
	resp, err := p.Chat(ctx, &model.ChatRequest{
		Messages:       []model.Message{{Role: model.RoleUser, Content: fmt.Sprintf(routingPrompt, digest, message)}},
		MaxTokens:      300,
		ResponseFormat: "json_object",
	})
	if err != nil {
		return nil, fmt.Errorf("routing call: %w", err)
	}

	var d Decision
	if err := model.DecodeStructured(resp.Content, &d); err != nil {
		return nil, err
	}

	d.SelectedAgent = strings.ToUpper(strings.TrimSpace(d.SelectedAgent))
	if d.SelectedAgent == "" {
		return nil, &model.DecodeError{
			Raw: resp.Content,
			Err: fmt.Errorf("missing selected_agent"),
		}
	}
	return &d, nil
}
