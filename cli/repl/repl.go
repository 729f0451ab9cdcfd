// Package repl provides an interactive chat loop over the agent swarm.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/EikiYamashiro/agent-swarm/sdk/swarm"
	"github.com/EikiYamashiro/agent-swarm/storage"
)

// DefaultUserID is the profile used until /user switches it.
const DefaultUserID = "user_123"

// REPL is the interactive command loop. Plain input goes through the swarm;
// slash commands inspect the store.
type REPL struct {
	router   *swarm.Router
	store    storage.Store
	userID   string
	commands map[string]Command
	ctx      context.Context
	cancel   context.CancelFunc
}

// Command represents a slash command.
type Command struct {
	Name        string
	Description string
	Handler     func(args string) error
}

// New creates a new REPL with built-in commands.
func New(router *swarm.Router, store storage.Store) *REPL {
	ctx, cancel := context.WithCancel(context.Background())
	r := &REPL{
		router:   router,
		store:    store,
		userID:   DefaultUserID,
		commands: make(map[string]Command),
		ctx:      ctx,
		cancel:   cancel,
	}
	r.registerBuiltins()
	return r
}

func (r *REPL) registerBuiltins() {
	r.Register(Command{
		Name: "/help", Description: "Show available commands",
		Handler: func(_ string) error {
			fmt.Println("Available commands:")
			for _, c := range r.commands {
				fmt.Printf("  %-20s %s\n", c.Name, c.Description)
			}
			return nil
		},
	})
	r.Register(Command{
		Name: "/user", Description: "Switch the active user ID",
		Handler: func(args string) error {
			id := strings.TrimSpace(args)
			if id == "" {
				fmt.Printf("Current user: %s\n", r.userID)
				return nil
			}
			r.userID = id
			fmt.Printf("Now chatting as %s\n", id)
			return nil
		},
	})
	r.Register(Command{
		Name: "/tickets", Description: "List the active user's support tickets",
		Handler: func(_ string) error {
			tickets, err := r.store.ListTickets(r.ctx, r.userID)
			if err != nil {
				return err
			}
			if len(tickets) == 0 {
				fmt.Println("No tickets.")
				return nil
			}
			for _, tk := range tickets {
				fmt.Printf("  [%s] %s  status=%s\n", tk.TicketID, tk.Subject, tk.Status)
			}
			return nil
		},
	})
	r.Register(Command{
		Name: "/knowledge", Description: "List stored knowledge entries",
		Handler: func(_ string) error {
			mapping, err := r.store.Knowledge(r.ctx)
			if err != nil {
				return err
			}
			if len(mapping) == 0 {
				fmt.Println("No knowledge entries.")
				return nil
			}
			for url, summary := range mapping {
				if len(summary) > 80 {
					summary = summary[:80] + "..."
				}
				fmt.Printf("  %s: %s\n", url, summary)
			}
			return nil
		},
	})
	r.Register(Command{
		Name: "/history", Description: "Show recent messages for the active user",
		Handler: func(args string) error {
			limit := 10
			if n := strings.TrimSpace(args); n != "" {
				fmt.Sscanf(n, "%d", &limit)
			}
			msgs, err := r.store.ListMessages(r.ctx, r.userID, limit)
			if err != nil {
				return err
			}
			if len(msgs) == 0 {
				fmt.Println("No messages.")
				return nil
			}
			for _, m := range msgs {
				fmt.Printf("  [%s] %s: %s\n", m.CreatedAt.Format("15:04"), m.Role, m.Text)
			}
			return nil
		},
	})
	r.Register(Command{
		Name: "/quit", Description: "Exit the REPL",
		Handler: func(_ string) error {
			r.cancel()
			return nil
		},
	})
}

// Register adds a slash command.
func (r *REPL) Register(c Command) {
	r.commands[c.Name] = c
}

// Start begins the interactive loop.
func (r *REPL) Start() error {
	fmt.Println("agent-swarm interactive mode. Type /help for commands, /quit to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("%s> ", r.userID)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if err := r.dispatch(line); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			select {
			case <-r.ctx.Done():
				fmt.Println("Goodbye.")
				return nil
			default:
			}
			continue
		}

		r.chat(line)
	}
	return scanner.Err()
}

func (r *REPL) dispatch(line string) error {
	parts := strings.SplitN(line, " ", 2)
	args := ""
	if len(parts) > 1 {
		args = parts[1]
	}
	cmd, ok := r.commands[parts[0]]
	if !ok {
		return fmt.Errorf("unknown command: %s", parts[0])
	}
	return cmd.Handler(args)
}

func (r *REPL) chat(message string) {
	resp, err := r.router.RouteAndRespond(r.ctx, message, r.userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Println("Sources:")
		for _, s := range resp.Sources {
			fmt.Println("  -", s)
		}
	}
}
