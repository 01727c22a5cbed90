// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that call
// external capabilities.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "trendscope/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CollectConfig holds settings for the document collection stage.
type CollectConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the search capability.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxResults is the maximum number of documents requested per query
	// (default 30).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MaxPerDomain caps how many kept results may share one source domain
	// (default 5).
	MaxPerDomain int `json:"max_per_domain" yaml:"max_per_domain"`
}

// AIConfig holds shared settings for components that call the
// text-generation or embedding capability.
type AIConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model is the chat model identifier (default "gpt-4").
	Model string `json:"model" yaml:"model"`

	// EmbeddingModel is the embedding model identifier
	// (default "text-embedding-3-small").
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model"`
}

// StoreConfig holds settings for the shared state store.
type StoreConfig struct {
	// Backend selects the store implementation: "memory" (default) or
	// "sqlite".
	Backend string `json:"backend" yaml:"backend"`

	// Path is the SQLite database path when Backend is "sqlite".
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// DrainInterval is how long terminal snapshots are kept before eviction
	// (default 10m). Observers connected when a workflow finishes have at
	// least this long to read the final snapshot.
	DrainInterval time.Duration `json:"drain_interval" yaml:"drain_interval"`
}

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// PollInterval is how often streaming readers poll the store for status
	// changes (default 100ms).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`
}

// Config is the root configuration for the trendscope service.
type Config struct {
	Collect CollectConfig `json:"collect" yaml:"collect"`
	AI      AIConfig      `json:"ai" yaml:"ai"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Server  ServerConfig  `json:"server" yaml:"server"`
}

// Defaults fills zero-valued fields with documented defaults.
func (c *Config) Defaults() {
	if c.Collect.Timeout == 0 {
		c.Collect.Timeout = 30 * time.Second
	}
	if c.Collect.UserAgent == "" {
		c.Collect.UserAgent = "trendscope/0.1"
	}
	if c.Collect.MaxResults <= 0 {
		c.Collect.MaxResults = 30
	}
	if c.Collect.MaxPerDomain <= 0 {
		c.Collect.MaxPerDomain = 5
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 60 * time.Second
	}
	if c.AI.UserAgent == "" {
		c.AI.UserAgent = "trendscope/0.1"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4"
	}
	if c.AI.EmbeddingModel == "" {
		c.AI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.DrainInterval == 0 {
		c.Store.DrainInterval = 10 * time.Minute
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.PollInterval == 0 {
		c.Server.PollInterval = 100 * time.Millisecond
	}
}
