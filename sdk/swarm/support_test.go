package swarm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func hasTool(tools []string, name string) bool {
	for _, t := range tools {
		if t == name {
			return true
		}
	}
	return false
}

func TestSupportNoEscalationNoTicket(t *testing.T) {
	store := newTestStore(t)
	provider := &scriptedProvider{completion: "Try restarting the terminal."}
	support := NewSupport(store, provider, nil)

	res, err := support.Handle(context.Background(), "user_123", "My terminal won't connect")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Ticket != nil {
		t.Fatalf("ticket = %+v, want nil without escalation keyword", res.Ticket)
	}
	if !hasTool(res.ToolsUsed, "get_user_profile") {
		t.Fatalf("tools = %v, want get_user_profile for existing user", res.ToolsUsed)
	}
	if hasTool(res.ToolsUsed, "create_support_ticket") {
		t.Fatalf("tools = %v, ticket tool must not appear", res.ToolsUsed)
	}
	if res.Answer != "Try restarting the terminal." {
		t.Fatalf("answer = %q", res.Answer)
	}
}

func TestSupportEscalationCreatesTicket(t *testing.T) {
	store := newTestStore(t)
	provider := &scriptedProvider{completion: "I will escalate this."}
	support := NewSupport(store, provider, nil)
	ctx := context.Background()

	res, err := support.Handle(ctx, "user_123", "There is an unauthorized charge on my account")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Ticket == nil {
		t.Fatal("escalation keyword must create a ticket")
	}
	if res.Ticket.TicketID != "T000001" {
		t.Fatalf("ticket id = %q", res.Ticket.TicketID)
	}
	if !hasTool(res.ToolsUsed, "create_support_ticket") {
		t.Fatalf("tools = %v", res.ToolsUsed)
	}
	if !strings.Contains(res.Answer, "A support ticket has been created with ID T000001") {
		t.Fatalf("answer missing ticket notice: %q", res.Answer)
	}

	tickets, err := store.ListTickets(ctx, "user_123")
	if err != nil {
		t.Fatalf("list tickets: %v", err)
	}
	if len(tickets) != 1 {
		t.Fatalf("persisted tickets = %d, want 1", len(tickets))
	}
	if !strings.HasPrefix(tickets[0].Subject, "Support request: ") {
		t.Fatalf("subject = %q", tickets[0].Subject)
	}
}

func TestSupportUnknownUserSkipsProfileTool(t *testing.T) {
	store := newTestStore(t)
	provider := &scriptedProvider{completion: "Happy to help."}
	support := NewSupport(store, provider, nil)

	res, err := support.Handle(context.Background(), "ghost", "How do I reset my password?")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if hasTool(res.ToolsUsed, "get_user_profile") {
		t.Fatalf("tools = %v, profile tool must be absent when lookup fails", res.ToolsUsed)
	}
	if len(provider.prompts) == 0 || !strings.Contains(provider.prompts[0], "No user-specific context available.") {
		t.Fatal("prompt should fall back to the no-context marker")
	}
}

func TestSupportModelFailureDegrades(t *testing.T) {
	store := newTestStore(t)
	provider := &scriptedProvider{chatErr: errors.New("model down")}
	support := NewSupport(store, provider, nil)

	res, err := support.Handle(context.Background(), "user_123", "help please")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Answer != supportFallbackAnswer {
		t.Fatalf("answer = %q, want canned apology", res.Answer)
	}
}

func TestSupportPromptExcludesTransactions(t *testing.T) {
	store := newTestStore(t)
	provider := &scriptedProvider{completion: "ok"}
	support := NewSupport(store, provider, nil)

	if _, err := support.Handle(context.Background(), "user_123", "question about my account"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(provider.prompts) != 1 {
		t.Fatalf("model consulted %d times, want 1", len(provider.prompts))
	}
	prompt := provider.prompts[0]
	if !strings.Contains(prompt, "user_123") {
		t.Fatal("prompt missing profile fields")
	}
	if strings.Contains(strings.ToLower(prompt), "transaction") {
		t.Fatalf("prompt leaks transactions: %q", prompt)
	}
}
