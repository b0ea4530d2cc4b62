// Package config handles Voyant configuration loading.
//
// Configuration comes from two layers: an optional YAML file (discovered
// via [DefaultSearchPaths] or an explicit -config path) and environment
// variables, which always win. The environment layer exists because the
// service is commonly deployed as a container where OLLAMA_URL,
// OLLAMA_MODEL, and BRAVE_API_KEY are injected rather than baked into a
// file. A .env file in the working directory is honored for development.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/voyant/config.yaml, /etc/voyant/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "voyant", "config.yaml"))
	}

	paths = append(paths, "/etc/voyant/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns an empty path (not an error) when nothing is found — Voyant runs
// on defaults plus environment variables without a file.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

// Config holds all Voyant configuration.
type Config struct {
	Listen   ListenConfig   `yaml:"listen"`
	Ollama   OllamaConfig   `yaml:"ollama"`
	Search   SearchConfig   `yaml:"search"`
	History  HistoryConfig  `yaml:"history"`
	LogLevel string         `yaml:"log_level"`
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// OllamaConfig defines the language-model backend connection.
type OllamaConfig struct {
	URL   string `yaml:"url"`
	Model string `yaml:"model"`
}

// SearchConfig defines search provider settings.
type SearchConfig struct {
	// Primary selects which registered provider handles searches.
	// Defaults to "brave" when a Brave key is set, else "searxng".
	Primary    string        `yaml:"primary"`
	MaxResults int           `yaml:"max_results"`
	Brave      BraveConfig   `yaml:"brave"`
	SearXNG    SearXNGConfig `yaml:"searxng"`
}

// BraveConfig holds configuration for the Brave Search provider.
type BraveConfig struct {
	APIKey string `yaml:"api_key"`
}

// Configured reports whether a Brave API key is set.
func (c BraveConfig) Configured() bool {
	return c.APIKey != ""
}

// SearXNGConfig holds configuration for the SearXNG provider.
type SearXNGConfig struct {
	URL string `yaml:"url"`
}

// Configured reports whether a SearXNG URL is set.
func (c SearXNGConfig) Configured() bool {
	return c.URL != ""
}

// HistoryConfig defines the in-memory resolution history.
type HistoryConfig struct {
	// Size is the number of recent resolutions retained. Zero uses the
	// default; negative disables history.
	Size int `yaml:"size"`
}

// envOverrides is the environment variable layer. Field values here
// override whatever the YAML file provided.
type envOverrides struct {
	Port       int    `envconfig:"PORT"`
	OllamaURL  string `envconfig:"OLLAMA_URL"`
	Model      string `envconfig:"OLLAMA_MODEL"`
	BraveKey   string `envconfig:"BRAVE_API_KEY"`
	SearXNGURL string `envconfig:"SEARXNG_URL"`
	Provider   string `envconfig:"SEARCH_PROVIDER"`
	LogLevel   string `envconfig:"LOG_LEVEL"`
}

// Defaults mirror the original deployment's documented values. None are
// security-sensitive.
const (
	DefaultPort      = 8080
	DefaultOllamaURL = "http://127.0.0.1:11434"
	DefaultModel     = "scb10x/typhoon2.1-gemma3-4b"

	// DefaultMaxResults caps search results per query. Eight balances
	// summary context size against latency and provider cost.
	DefaultMaxResults = 8

	DefaultHistorySize = 50
)

// Load reads the YAML file at path (skipped when path is empty), applies
// environment overrides, and fills in defaults.
func Load(path string) (*Config, error) {
	// .env is a development convenience; a missing file is not an error.
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	cfg.applyEnv(env)
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv(env envOverrides) {
	if env.Port != 0 {
		c.Listen.Port = env.Port
	}
	if env.OllamaURL != "" {
		c.Ollama.URL = env.OllamaURL
	}
	if env.Model != "" {
		c.Ollama.Model = env.Model
	}
	if env.BraveKey != "" {
		c.Search.Brave.APIKey = env.BraveKey
	}
	if env.SearXNGURL != "" {
		c.Search.SearXNG.URL = env.SearXNGURL
	}
	if env.Provider != "" {
		c.Search.Primary = env.Provider
	}
	if env.LogLevel != "" {
		c.LogLevel = env.LogLevel
	}
}

func (c *Config) applyDefaults() {
	if c.Listen.Port == 0 {
		c.Listen.Port = DefaultPort
	}
	if c.Ollama.URL == "" {
		c.Ollama.URL = DefaultOllamaURL
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = DefaultModel
	}
	if c.Search.MaxResults == 0 {
		c.Search.MaxResults = DefaultMaxResults
	}
	if c.Search.Primary == "" {
		if c.Search.Brave.Configured() {
			c.Search.Primary = "brave"
		} else if c.Search.SearXNG.Configured() {
			c.Search.Primary = "searxng"
		}
	}
	if c.History.Size == 0 {
		c.History.Size = DefaultHistorySize
	}
}
