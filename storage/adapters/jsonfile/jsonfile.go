// Package jsonfile implements storage.Store on flat JSON collections under
// a data directory: users.json, messages.json, tickets.json and
// knowledge.json, each rewritten whole on every change.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/EikiYamashiro/agent-swarm/storage"
)

const (
	usersFile     = "users.json"
	messagesFile  = "messages.json"
	ticketsFile   = "tickets.json"
	knowledgeFile = "knowledge.json"
)

// Store persists each collection as a whole file under dir. Writes go to a
// temp file in the same directory and are renamed into place, so readers
// never observe a partial document. A process-wide mutex serializes access;
// concurrent processes race with last-writer-wins semantics, which the low
// write frequency makes acceptable.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New opens (and if needed seeds) the data directory.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: create data dir: %w", err)
	}
	s := &Store{dir: dir}
	if err := s.seed(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) seed() error {
	seeds := []struct {
		name string
		v    any
	}{
		{usersFile, usersDoc{Users: storage.SampleUsers()}},
		{messagesFile, messagesDoc{Messages: map[string][]*storage.Message{}}},
		{ticketsFile, ticketsDoc{Tickets: []*storage.Ticket{}}},
		{knowledgeFile, map[string]string{}},
	}
	for _, seed := range seeds {
		path := filepath.Join(s.dir, seed.name)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("jsonfile: stat %s: %w", seed.name, err)
		}
		if err := s.write(seed.name, seed.v); err != nil {
			return err
		}
	}
	return nil
}

type usersDoc struct {
	Users []*storage.User `json:"users"`
}

type messagesDoc struct {
	Messages map[string][]*storage.Message `json:"messages"`
}

type ticketsDoc struct {
	Tickets []*storage.Ticket `json:"tickets"`
}

func (s *Store) read(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("jsonfile: read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("jsonfile: parse %s: %w", name, err)
	}
	return nil
}

func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: marshal %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("jsonfile: write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("jsonfile: replace %s: %w", name, err)
	}
	return nil
}

// backup copies the named file aside with a unix-timestamp suffix. Missing
// source is not an error; a fresh store has nothing to protect.
func (s *Store) backup(name string) error {
	path := filepath.Join(s.dir, name)
	src, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("jsonfile: open %s for backup: %w", name, err)
	}
	defer src.Close()

	dst, err := os.Create(fmt.Sprintf("%s.bak.%d", path, time.Now().Unix()))
	if err != nil {
		return fmt.Errorf("jsonfile: create backup of %s: %w", name, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("jsonfile: copy backup of %s: %w", name, err)
	}
	return nil
}

func (s *Store) Knowledge(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	knowledge := map[string]string{}
	if err := s.read(knowledgeFile, &knowledge); err != nil {
		return nil, err
	}
	return knowledge, nil
}

func (s *Store) PutKnowledge(_ context.Context, url, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	knowledge := map[string]string{}
	if err := s.read(knowledgeFile, &knowledge); err != nil {
		return err
	}
	if err := s.backup(knowledgeFile); err != nil {
		return err
	}
	knowledge[url] = summary
	return s.write(knowledgeFile, knowledge)
}

func (s *Store) GetUser(_ context.Context, userID string) (*storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc usersDoc
	if err := s.read(usersFile, &doc); err != nil {
		return nil, err
	}
	for _, u := range doc.Users {
		if u.UserID == userID {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (s *Store) AppendMessage(_ context.Context, userID string, m *storage.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc messagesDoc
	if err := s.read(messagesFile, &doc); err != nil {
		return err
	}
	if doc.Messages == nil {
		doc.Messages = map[string][]*storage.Message{}
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	doc.Messages[userID] = append(doc.Messages[userID], m)
	return s.write(messagesFile, doc)
}

func (s *Store) ListMessages(_ context.Context, userID string, limit int) ([]*storage.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc messagesDoc
	if err := s.read(messagesFile, &doc); err != nil {
		return nil, err
	}
	msgs := doc.Messages[userID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (s *Store) CreateTicket(_ context.Context, userID, subject, body string) (*storage.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc ticketsDoc
	if err := s.read(ticketsFile, &doc); err != nil {
		return nil, err
	}
	// Sequential ID from collection length; not collision-safe across
	// processes (known limitation of this backend).
	ticket := &storage.Ticket{
		TicketID: fmt.Sprintf("T%06d", len(doc.Tickets)+1),
		UserID:   userID,
		Subject:  subject,
		Body:     body,
		Status:   "open",
	}
	doc.Tickets = append(doc.Tickets, ticket)
	if err := s.write(ticketsFile, doc); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *Store) ListTickets(_ context.Context, userID string) ([]*storage.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc ticketsDoc
	if err := s.read(ticketsFile, &doc); err != nil {
		return nil, err
	}
	var out []*storage.Ticket
	for _, t := range doc.Tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) Close() error { return nil }
