// Package cmd provides the agent-swarm CLI command tree.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/EikiYamashiro/agent-swarm/cli/repl"
	"github.com/EikiYamashiro/agent-swarm/config"
	"github.com/EikiYamashiro/agent-swarm/engine/fetch"
	"github.com/EikiYamashiro/agent-swarm/logger"
	"github.com/EikiYamashiro/agent-swarm/sdk/knowledge"
	"github.com/EikiYamashiro/agent-swarm/sdk/swarm"
	"github.com/EikiYamashiro/agent-swarm/sdk/tools"
	"github.com/EikiYamashiro/agent-swarm/server"
	"github.com/EikiYamashiro/agent-swarm/storage"
)

const version = "agent-swarm v0.1.0"

// Execute runs the root CLI command.
func Execute() error {
	if len(os.Args) < 2 {
		return printUsage()
	}
	switch os.Args[1] {
	case "serve":
		return runServe(os.Args[2:])
	case "chat":
		return runChat(os.Args[2:])
	case "repl":
		return runREPL()
	case "tickets":
		return runTickets(os.Args[2:])
	case "knowledge":
		return runKnowledge()
	case "version":
		fmt.Println(version)
		return nil
	case "help", "--help", "-h":
		return printUsage()
	default:
		return fmt.Errorf("unknown command: %s\nRun 'agent-swarm help' for usage.", os.Args[1])
	}
}

func printUsage() error {
	fmt.Println(`Agent Swarm: multi-agent support and knowledge assistant

Usage:
  agent-swarm <command> [options]

Commands:
  serve [addr]              Start the HTTP server (default :8000)
  chat <user_id> <message>  Run one message through the swarm and print the answer
  repl                      Start an interactive chat session
  tickets <user_id>         List a user's support tickets
  knowledge                 Print the stored url -> summary mapping
  version                   Print version
  help                      Show this help

Configuration:
  Reads agent-swarm.yaml from the working directory, or the file named by
  AGENT_SWARM_CONFIG. Without a config file the Gemini provider is used with
  GEMINI_API_KEY and a jsonfile store under ./data. A .env file is loaded
  when present.`)
	return nil
}

// loadConfig reads the service config, falling back to environment defaults
// when no file exists.
func loadConfig() *config.Config {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("AGENT_SWARM_CONFIG"))
	if err != nil {
		return config.Default()
	}
	return cfg
}

// buildSwarm wires the store, model, index and handlers from config.
func buildSwarm(ctx context.Context, cfg *config.Config, log *logger.Logger) (*swarm.Router, *tools.Registry, storage.Store, *fetch.Client, error) {
	store, err := config.BuildStore(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("storage: %w", err)
	}

	provider, err := config.BuildProvider(cfg.Model)
	if err != nil {
		store.Close()
		return nil, nil, nil, nil, fmt.Errorf("model: %w", err)
	}

	fetcher := config.BuildFetcher(cfg.Fetch)
	index := knowledge.NewIndex(store, fetcher, provider, log)
	index.SetMaxChars(cfg.Retrieval.MaxChars)
	index.SetTopK(cfg.Retrieval.TopK)
	support := swarm.NewSupport(store, provider, log)
	ingestor := swarm.NewIngestor(store, fetcher, provider, log)
	router := swarm.NewRouter(provider, store, index, support, ingestor, log)
	registry := tools.NewDefaultRegistry(store, fetcher, index)

	return router, registry, store, fetcher, nil
}

func runServe(args []string) error {
	cfg := loadConfig()
	if len(args) > 0 {
		cfg.Server.Addr = args[0]
	}

	log, err := logger.New(cfg.Server.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()
	router, registry, store, fetcher, err := buildSwarm(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	seedKnowledge(ctx, store, fetcher, cfg.Seed.URLs, log)

	srv := server.New(router, registry, store, log, cfg.Server.Mode)
	return srv.Run(cfg.Server.Addr)
}

// seedKnowledge indexes the configured pages into an empty knowledge store.
// Failures are logged and skipped; seeding never blocks startup on a dead page.
func seedKnowledge(ctx context.Context, store storage.Store, fetcher knowledge.Fetcher, urls []string, log *logger.Logger) {
	if len(urls) == 0 {
		return
	}
	existing, err := store.Knowledge(ctx)
	if err != nil || len(existing) > 0 {
		return
	}

	for _, url := range urls {
		page, err := fetcher.Fetch(ctx, url)
		if err != nil {
			log.Warn("seed fetch failed", "url", url, "error", err)
			continue
		}
		summary := knowledge.Summarize(page.Content, 3)
		if err := store.PutKnowledge(ctx, url, summary); err != nil {
			log.Warn("seed store failed", "url", url, "error", err)
			continue
		}
		log.Info("seeded knowledge entry", "url", url)
	}
}

func runChat(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: agent-swarm chat <user_id> <message>")
	}
	userID := args[0]
	message := strings.Join(args[1:], " ")

	cfg := loadConfig()
	log := logger.NewNop()

	ctx := context.Background()
	router, _, store, _, err := buildSwarm(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	resp, err := router.RouteAndRespond(ctx, message, userID)
	if err != nil {
		return err
	}

	fmt.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range resp.Sources {
			fmt.Println("  -", s)
		}
	}
	return nil
}

func runREPL() error {
	cfg := loadConfig()
	log := logger.NewNop()

	ctx := context.Background()
	router, _, store, _, err := buildSwarm(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	return repl.New(router, store).Start()
}

func runTickets(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: agent-swarm tickets <user_id>")
	}

	cfg := loadConfig()
	ctx := context.Background()
	store, err := config.BuildStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	tickets, err := store.ListTickets(ctx, args[0])
	if err != nil {
		return err
	}
	if len(tickets) == 0 {
		fmt.Println("no tickets")
		return nil
	}
	return printJSON(tickets)
}

func runKnowledge() error {
	cfg := loadConfig()
	ctx := context.Background()
	store, err := config.BuildStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	mapping, err := store.Knowledge(ctx)
	if err != nil {
		return err
	}
	if len(mapping) == 0 {
		fmt.Println("no knowledge entries")
		return nil
	}
	return printJSON(mapping)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
