package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/EikiYamashiro/agent-swarm/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(:memory:): %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMigrateSeedsUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u, err := store.GetUser(ctx, "user_123")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.Name != "Alice Silva" {
		t.Fatalf("unexpected seeded user: %+v", u)
	}
	if len(u.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(u.Transactions))
	}

	if _, err := store.GetUser(ctx, "ghost"); !errors.Is(err, storage.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	// Migrate is idempotent and must not duplicate the seed.
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestKnowledgeUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.PutKnowledge(ctx, "http://x.com", "old"); err != nil {
		t.Fatalf("PutKnowledge: %v", err)
	}
	if err := store.PutKnowledge(ctx, "http://x.com", "new"); err != nil {
		t.Fatalf("PutKnowledge upsert: %v", err)
	}

	knowledge, err := store.Knowledge(ctx)
	if err != nil {
		t.Fatalf("Knowledge: %v", err)
	}
	if len(knowledge) != 1 || knowledge["http://x.com"] != "new" {
		t.Fatalf("upsert broken: %v", knowledge)
	}
}

func TestTicketSequence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ticket, err := store.CreateTicket(ctx, "user_456", "s", "b")
		if err != nil {
			t.Fatalf("CreateTicket: %v", err)
		}
		if want := fmt.Sprintf("T%06d", i); ticket.TicketID != want {
			t.Fatalf("got %q, want %q", ticket.TicketID, want)
		}
	}

	tickets, err := store.ListTickets(ctx, "user_456")
	if err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	if len(tickets) != 3 {
		t.Fatalf("expected 3 tickets, got %d", len(tickets))
	}
	if tickets[0].Status != "open" {
		t.Fatalf("status = %q", tickets[0].Status)
	}
}

func TestMessagesOrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		err := store.AppendMessage(ctx, "user_123", &storage.Message{
			Role: "user",
			Text: fmt.Sprintf("m%d", i),
		})
		if err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	msgs, err := store.ListMessages(ctx, "user_123", 2)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "m2" || msgs[1].Text != "m3" {
		t.Fatalf("wrong window or order: %q, %q", msgs[0].Text, msgs[1].Text)
	}

	all, err := store.ListMessages(ctx, "user_123", 0)
	if err != nil {
		t.Fatalf("ListMessages all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(all))
	}
}
