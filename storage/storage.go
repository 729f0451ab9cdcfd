// Package storage defines the core persistence interfaces for the swarm.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is returned by GetUser for unknown user IDs.
var ErrUserNotFound = errors.New("user not found")

// User is a customer profile record.
type User struct {
	UserID        string        `json:"user_id"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	AccountStatus string        `json:"account_status"`
	CreatedAt     string        `json:"created_at"`
	Transactions  []Transaction `json:"transactions,omitempty"`
}

// Transaction is a single entry in a user's payment history.
type Transaction struct {
	Date   string `json:"date"`
	Type   string `json:"type"`
	Amount string `json:"amount"`
}

// Ticket is a support ticket created by the support handler.
type Ticket struct {
	TicketID string `json:"ticket_id"`
	UserID   string `json:"user_id"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Status   string `json:"status"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat message in a user's conversation history.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the primary persistence interface. All adapters must implement this.
type Store interface {
	// Knowledge mapping (url -> summary). PutKnowledge merges a single
	// entry with overwrite semantics.
	Knowledge(ctx context.Context) (map[string]string, error)
	PutKnowledge(ctx context.Context, url, summary string) error

	// Users
	GetUser(ctx context.Context, userID string) (*User, error)

	// Conversation history
	AppendMessage(ctx context.Context, userID string, m *Message) error
	ListMessages(ctx context.Context, userID string, limit int) ([]*Message, error)

	// Tickets
	CreateTicket(ctx context.Context, userID, subject, body string) (*Ticket, error)
	ListTickets(ctx context.Context, userID string) ([]*Ticket, error)

	Close() error
}

// SampleUsers seeds a fresh store so the support flow is exercisable out of
// the box.
func SampleUsers() []*User {
	return []*User{
		{
			UserID:        "user_123",
			Name:          "Alice Silva",
			Email:         "alice@example.com",
			AccountStatus: "active",
			CreatedAt:     "2024-01-15",
			Transactions: []Transaction{
				{Date: "2024-10-01", Type: "payment", Amount: "R$100.00"},
			},
		},
		{
			UserID:        "user_456",
			Name:          "Bruno Souza",
			Email:         "bruno@example.com",
			AccountStatus: "active",
			CreatedAt:     "2023-10-02",
		},
	}
}
