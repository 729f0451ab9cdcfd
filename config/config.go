// Package config loads the YAML service configuration and builds the wired
// collaborators from it.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/EikiYamashiro/agent-swarm/engine/fetch"
	"github.com/EikiYamashiro/agent-swarm/engine/model"
	"github.com/EikiYamashiro/agent-swarm/storage"
	"github.com/EikiYamashiro/agent-swarm/storage/adapters/jsonfile"
	"github.com/EikiYamashiro/agent-swarm/storage/adapters/sqlite"
)

// Config is the top-level structure of the service YAML file.
type Config struct {
	Server    ServerConfig    `yaml:"server,omitempty"`
	Storage   storage.Config  `yaml:"storage,omitempty"`
	Model     ModelConfig     `yaml:"model"`
	Fetch     FetchConfig     `yaml:"fetch,omitempty"`
	Retrieval RetrievalConfig `yaml:"retrieval,omitempty"`
	Seed      SeedConfig      `yaml:"seed,omitempty"`
}

// RetrievalConfig tunes the knowledge index. Zero values keep the package
// defaults (800-char chunks, top 3 hits).
type RetrievalConfig struct {
	MaxChars int `yaml:"max_chars,omitempty"`
	TopK     int `yaml:"top_k,omitempty"`
}

// ServerConfig controls the HTTP boundary.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
	Mode string `yaml:"mode,omitempty"` // debug, release, test
}

// ModelConfig describes which model provider and settings to use.
type ModelConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"` // literal or ${ENV_VAR}
	BaseURL    string `yaml:"base_url,omitempty"`
	OrgID      string `yaml:"org_id,omitempty"`
	TimeoutSec int    `yaml:"timeout_sec,omitempty"`

	// MaxRetries enables retry with exponential backoff around the provider.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// Fallbacks are tried in order when the primary provider fails.
	Fallbacks []ModelConfig `yaml:"fallbacks,omitempty"`
}

// FetchConfig controls the page fetcher.
type FetchConfig struct {
	TimeoutSec int `yaml:"timeout_sec,omitempty"`
}

// SeedConfig lists pages indexed into the knowledge base on first start.
type SeedConfig struct {
	URLs []string `yaml:"urls,omitempty"`
}

// Load parses a YAML config file. With an empty path it searches the working
// directory for agent-swarm.yaml then config.yaml. Environment references
// like ${GEMINI_API_KEY} are expanded in string fields.
func Load(path string) (*Config, error) {
	data, resolved, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", resolved, err)
	}
	cfg.expandEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no file is present: a jsonfile
// store under ./data and the Gemini provider keyed from the environment.
func Default() *Config {
	cfg := &Config{
		Model: ModelConfig{Provider: "gemini", APIKey: os.Getenv("GEMINI_API_KEY")},
	}
	cfg.applyDefaults()
	return cfg
}

func readConfigFile(path string) ([]byte, string, error) {
	candidates := []string{path}
	if path == "" {
		candidates = []string{"agent-swarm.yaml", "agent-swarm.yml", "config.yaml"}
	}
	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if err == nil {
			return data, p, nil
		}
	}
	if path != "" {
		return nil, path, fmt.Errorf("config file not found: %s", path)
	}
	return nil, "", fmt.Errorf("no config found (looked in: %s)", strings.Join(candidates, ", "))
}

func (c *Config) expandEnv() {
	c.Server.Addr = expand(c.Server.Addr)
	c.Storage.Dir = expand(c.Storage.Dir)
	c.Storage.DSN = expand(c.Storage.DSN)
	c.Model.expandEnv()
	for i := range c.Seed.URLs {
		c.Seed.URLs[i] = expand(c.Seed.URLs[i])
	}
}

func (m *ModelConfig) expandEnv() {
	m.APIKey = expand(m.APIKey)
	m.BaseURL = expand(m.BaseURL)
	m.OrgID = expand(m.OrgID)
	for i := range m.Fallbacks {
		m.Fallbacks[i].expandEnv()
	}
}

func expand(s string) string {
	if s == "" {
		return s
	}
	return os.ExpandEnv(s)
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "jsonfile"
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "data"
	}
	if c.Storage.DSN == "" {
		c.Storage.DSN = "agent-swarm.db"
	}
}

// BuildProvider constructs the configured model provider, wrapping it in a
// fallback chain when alternates are configured.
func BuildProvider(cfg ModelConfig) (model.Provider, error) {
	primary, err := buildSingleProvider(cfg)
	if err != nil {
		return nil, err
	}
	provider := primary
	if len(cfg.Fallbacks) > 0 {
		providers := []model.Provider{primary}
		for _, fb := range cfg.Fallbacks {
			p, err := buildSingleProvider(fb)
			if err != nil {
				return nil, fmt.Errorf("fallback provider: %w", err)
			}
			providers = append(providers, p)
		}
		provider, err = model.NewFallbackProvider(providers...)
		if err != nil {
			return nil, err
		}
	}

	if cfg.MaxRetries > 0 {
		provider = model.NewRetry(provider, cfg.MaxRetries)
	}
	return provider, nil
}

func buildSingleProvider(cfg ModelConfig) (model.Provider, error) {
	pc := model.ProviderConfig{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		OrgID:      cfg.OrgID,
		TimeoutSec: cfg.TimeoutSec,
	}

	switch strings.ToLower(cfg.Provider) {
	case "gemini", "google":
		return model.NewGeminiWithConfig(pc), nil
	case "openai":
		return model.NewOpenAIWithConfig(pc), nil
	case "anthropic":
		return model.NewAnthropicWithConfig(pc), nil
	case "mistral":
		return model.NewMistralWithConfig(pc), nil
	case "ollama":
		return model.NewOllamaWithConfig(pc), nil
	case "groq":
		return model.NewGroq(cfg.APIKey, cfg.Model), nil
	case "openrouter":
		return model.NewOpenRouter(cfg.APIKey, cfg.Model), nil
	case "compatible", "custom":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("compatible provider requires base_url")
		}
		return model.NewOpenAICompatible("compatible", pc), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: gemini, openai, anthropic, mistral, ollama, groq, openrouter, compatible)", cfg.Provider)
	}
}

// BuildStore opens the configured storage backend, running migrations where
// the adapter needs them.
func BuildStore(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "jsonfile":
		return jsonfile.New(cfg.Dir)
	case "sqlite":
		store, err := sqlite.New(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (supported: jsonfile, sqlite)", cfg.Backend)
	}
}

// BuildFetcher constructs the page fetcher with the configured timeout.
func BuildFetcher(cfg FetchConfig) *fetch.Client {
	return fetch.New(time.Duration(cfg.TimeoutSec) * time.Second)
}
