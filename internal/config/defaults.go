package config

import "time"

// Search defaults.
const (
	DefaultVectorThreshold = 0.3
	DefaultVectorLimit     = 10
	DefaultKeywordLimit    = 5
	DefaultContentLimit    = 5
	DefaultFusedLimit      = 10
	DefaultStrategyTimeout = 3 * time.Second
	DefaultUpstreamTimeout = 15 * time.Second
)

// DefaultSearchConfig returns the search section with every default applied.
func DefaultSearchConfig() SearchConfig {
	var cfg Config
	ApplyDefaults(&cfg)
	return cfg.Search
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/recall/data/db/reminders.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/recall/data/indices/bleve"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/recall/data/indices/vectors"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "mock"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = "mock"
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = 1024
	}
	if cfg.Generation.Timeout == 0 {
		cfg.Generation.Timeout = 20 * time.Second
	}
	if cfg.Vector.IndexType == "" {
		cfg.Vector.IndexType = "memory"
	}
	if cfg.Search.VectorThreshold == 0 {
		cfg.Search.VectorThreshold = DefaultVectorThreshold
	}
	if cfg.Search.VectorLimit == 0 {
		cfg.Search.VectorLimit = DefaultVectorLimit
	}
	if cfg.Search.KeywordLimit == 0 {
		cfg.Search.KeywordLimit = DefaultKeywordLimit
	}
	if cfg.Search.ContentLimit == 0 {
		cfg.Search.ContentLimit = DefaultContentLimit
	}
	if cfg.Search.FusedLimit == 0 {
		cfg.Search.FusedLimit = DefaultFusedLimit
	}
	if cfg.Search.StrategyTimeout == 0 {
		cfg.Search.StrategyTimeout = DefaultStrategyTimeout
	}
	if cfg.Search.UpstreamTimeout == 0 {
		cfg.Search.UpstreamTimeout = DefaultUpstreamTimeout
	}
	if cfg.Temporal.Resolver == "" {
		cfg.Temporal.Resolver = "calendar"
	}
	if cfg.Temporal.Timezone == "" {
		cfg.Temporal.Timezone = "UTC"
	}
}
