// Package config loads the TickerLens YAML configuration with defaults
// for anything left unset.
package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// EmbedderConfig selects the embedding gateway.
type EmbedderConfig struct {
	// Type is "openai" or "ollama".
	Type      string `yaml:"type"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	// Dimension must match the model's embedding width.
	Dimension int `yaml:"dimension"`
}

// IndexConfig locates the on-disk vector collection.
type IndexConfig struct {
	Dir string `yaml:"dir"`
}

// ScraperConfig configures video discovery.
type ScraperConfig struct {
	APIKeyEnv  string   `yaml:"api_key_env"`
	ChannelIDs []string `yaml:"channel_ids"`
	MaxResults int      `yaml:"max_results"`
	Playlists  bool     `yaml:"playlists"`
}

// RetrievalConfig tunes query-time behaviour.
type RetrievalConfig struct {
	TopK              int `yaml:"top_k"`
	SearchTimeoutSecs int `yaml:"search_timeout_secs"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	NATSURL     string          `yaml:"nats_url"`
	MetricsPort int             `yaml:"metrics_port"`
	Embedder    EmbedderConfig  `yaml:"embedder"`
	Index       IndexConfig     `yaml:"index"`
	Scraper     ScraperConfig   `yaml:"scraper"`
	Retrieval   RetrievalConfig `yaml:"retrieval"`
}

// Load reads the config at path. A missing file yields pure defaults;
// a present file has defaults applied to unset fields.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := &AppConfig{}
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// APIKey resolves the embedder API key from the configured env var.
func (e EmbedderConfig) APIKey() string {
	if e.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(e.APIKeyEnv)
}

// APIKey resolves the YouTube Data API key from the configured env var.
func (s ScraperConfig) APIKey() string {
	if s.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(s.APIKeyEnv)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.NATSURL == "" {
		cfg.NATSURL = "nats://localhost:4222"
	}
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = 9090
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "ollama"
	}
	if cfg.Embedder.BaseURL == "" {
		switch cfg.Embedder.Type {
		case "openai":
			cfg.Embedder.BaseURL = "https://api.openai.com"
		default:
			cfg.Embedder.BaseURL = "http://localhost:11434"
		}
	}
	if cfg.Embedder.Model == "" {
		switch cfg.Embedder.Type {
		case "openai":
			cfg.Embedder.Model = "text-embedding-3-small"
		default:
			cfg.Embedder.Model = "nomic-embed-text"
		}
	}
	if cfg.Embedder.APIKeyEnv == "" && cfg.Embedder.Type == "openai" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 768
	}
	if cfg.Index.Dir == "" {
		cfg.Index.Dir = "data/index"
	}
	if cfg.Scraper.APIKeyEnv == "" {
		cfg.Scraper.APIKeyEnv = "YOUTUBE_API_KEY"
	}
	if cfg.Scraper.MaxResults == 0 {
		cfg.Scraper.MaxResults = 10
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.SearchTimeoutSecs == 0 {
		cfg.Retrieval.SearchTimeoutSecs = 10
	}
}
