// Package sqlite implements storage.Store on SQLite. Unlike the jsonfile
// backend, ticket IDs come from an AUTOINCREMENT sequence, so concurrent
// writers cannot collide.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/EikiYamashiro/agent-swarm/storage"
)

// Store is a SQLite-backed storage adapter.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path. Use ":memory:" for tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id        TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	email          TEXT NOT NULL,
	account_status TEXT NOT NULL,
	created_at     TEXT NOT NULL,
	transactions   TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	role       TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id);

CREATE TABLE IF NOT EXISTS tickets (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	ticket_id TEXT UNIQUE NOT NULL,
	user_id   TEXT NOT NULL,
	subject   TEXT NOT NULL,
	body      TEXT NOT NULL,
	status    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS knowledge (
	url     TEXT PRIMARY KEY,
	summary TEXT NOT NULL
);
`

// Migrate creates the schema and seeds sample users into an empty database.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("sqlite: count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, u := range storage.SampleUsers() {
		txns, err := json.Marshal(u.Transactions)
		if err != nil {
			return fmt.Errorf("sqlite: marshal transactions: %w", err)
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO users (user_id, name, email, account_status, created_at, transactions)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			u.UserID, u.Name, u.Email, u.AccountStatus, u.CreatedAt, string(txns))
		if err != nil {
			return fmt.Errorf("sqlite: seed user %s: %w", u.UserID, err)
		}
	}
	return nil
}

func (s *Store) Knowledge(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, summary FROM knowledge`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list knowledge: %w", err)
	}
	defer rows.Close()

	knowledge := map[string]string{}
	for rows.Next() {
		var url, summary string
		if err := rows.Scan(&url, &summary); err != nil {
			return nil, fmt.Errorf("sqlite: scan knowledge: %w", err)
		}
		knowledge[url] = summary
	}
	return knowledge, rows.Err()
}

func (s *Store) PutKnowledge(ctx context.Context, url, summary string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO knowledge (url, summary) VALUES (?, ?)
		 ON CONFLICT(url) DO UPDATE SET summary = excluded.summary`,
		url, summary)
	if err != nil {
		return fmt.Errorf("sqlite: put knowledge %s: %w", url, err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*storage.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, name, email, account_status, created_at, transactions
		 FROM users WHERE user_id = ?`, userID)

	var u storage.User
	var txns string
	err := row.Scan(&u.UserID, &u.Name, &u.Email, &u.AccountStatus, &u.CreatedAt, &txns)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get user %s: %w", userID, err)
	}
	if err := json.Unmarshal([]byte(txns), &u.Transactions); err != nil {
		return nil, fmt.Errorf("sqlite: parse transactions for %s: %w", userID, err)
	}
	return &u, nil
}

func (s *Store) AppendMessage(ctx context.Context, userID string, m *storage.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, user_id, role, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, userID, m.Role, m.Text, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: append message: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, userID string, limit int) ([]*storage.Message, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, message, created_at FROM
		   (SELECT rowid, id, role, message, created_at FROM messages
		    WHERE user_id = ? ORDER BY rowid DESC LIMIT ?)
		 ORDER BY rowid ASC`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*storage.Message
	for rows.Next() {
		var m storage.Message
		if err := rows.Scan(&m.ID, &m.Role, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan message: %w", err)
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

func (s *Store) CreateTicket(ctx context.Context, userID, subject, body string) (*storage.Ticket, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin ticket tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO tickets (ticket_id, user_id, subject, body, status) VALUES ('', ?, ?, ?, 'open')`,
		userID, subject, body)
	if err != nil {
		return nil, fmt.Errorf("sqlite: insert ticket: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("sqlite: ticket sequence: %w", err)
	}

	ticketID := fmt.Sprintf("T%06d", seq)
	if _, err := tx.ExecContext(ctx, `UPDATE tickets SET ticket_id = ? WHERE seq = ?`, ticketID, seq); err != nil {
		return nil, fmt.Errorf("sqlite: assign ticket id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit ticket: %w", err)
	}

	return &storage.Ticket{
		TicketID: ticketID,
		UserID:   userID,
		Subject:  subject,
		Body:     body,
		Status:   "open",
	}, nil
}

func (s *Store) ListTickets(ctx context.Context, userID string) ([]*storage.Ticket, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ticket_id, user_id, subject, body, status FROM tickets
		 WHERE user_id = ? ORDER BY seq ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*storage.Ticket
	for rows.Next() {
		var t storage.Ticket
		if err := rows.Scan(&t.TicketID, &t.UserID, &t.Subject, &t.Body, &t.Status); err != nil {
			return nil, fmt.Errorf("sqlite: scan ticket: %w", err)
		}
		tickets = append(tickets, &t)
	}
	return tickets, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }
