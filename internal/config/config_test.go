package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// loadYAML writes body to a config.yaml in a fresh directory and loads it.
func loadYAML(t *testing.T, body string) (*Config, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg, dir
}

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, _ := loadYAML(t, `
debug: true
server:
  host: 127.0.0.1
  port: 9000
search:
  strategy_timeout: 750ms
  fused_limit: 4
temporal:
  resolver: model
`)
	if !cfg.Debug {
		t.Error("debug not read")
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Search.StrategyTimeout != 750*time.Millisecond {
		t.Errorf("strategy_timeout = %v", cfg.Search.StrategyTimeout)
	}
	if cfg.Search.FusedLimit != 4 {
		t.Errorf("fused_limit = %d", cfg.Search.FusedLimit)
	}
	// Unset fields still pick up defaults.
	if cfg.Search.VectorLimit != DefaultVectorLimit {
		t.Errorf("vector_limit = %d, want default", cfg.Search.VectorLimit)
	}
	if cfg.Temporal.Resolver != "model" {
		t.Errorf("resolver = %s", cfg.Temporal.Resolver)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadStoragePaths(t *testing.T) {
	cfg, dir := loadYAML(t, `
storage:
  database_path: ./data/db/reminders.db
  bleve_index_path: ":memory:"
  vector_index_path: /var/lib/recall/vectors
`)
	tests := []struct {
		field, got, want string
	}{
		{"database_path", cfg.Storage.DatabasePath, filepath.Join(dir, "data", "db", "reminders.db")},
		{"bleve_index_path", cfg.Storage.BleveIndexPath, ":memory:"},
		{"vector_index_path", cfg.Storage.VectorIndexPath, "/var/lib/recall/vectors"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %s, want %s", tt.field, tt.got, tt.want)
		}
	}
}

func TestLoadSecretsFromEnv(t *testing.T) {
	t.Setenv("RECALL_JWT_SECRET", "from-env")
	t.Setenv("RECALL_ADMIN_KEY", "admin-env")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	cfg, _ := loadYAML(t, `
auth:
  jwt_secret: from-file
generation:
  provider: anthropic
`)
	if cfg.Auth.JWTSecret != "from-env" {
		t.Errorf("jwt_secret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.AdminKey != "admin-env" {
		t.Errorf("admin_key = %q", cfg.Auth.AdminKey)
	}
	if cfg.Generation.APIKey != "sk-test" {
		t.Errorf("generation api_key = %q", cfg.Generation.APIKey)
	}
	if cfg.Embedding.APIKey != "" {
		t.Errorf("mock embedding should not pick up a key, got %q", cfg.Embedding.APIKey)
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if got := cfg.Server.AllowedOrigins; len(got) != 1 || got[0] != "*" {
		t.Errorf("allowed_origins = %v", got)
	}
	if cfg.Embedding.Provider != "mock" || cfg.Generation.Provider != "mock" {
		t.Errorf("providers = %s/%s", cfg.Embedding.Provider, cfg.Generation.Provider)
	}
	if cfg.Temporal.Resolver != "calendar" {
		t.Errorf("resolver = %s", cfg.Temporal.Resolver)
	}

	want := SearchConfig{
		VectorThreshold: 0.3,
		VectorLimit:     10,
		KeywordLimit:    5,
		ContentLimit:    5,
		FusedLimit:      10,
		StrategyTimeout: 3 * time.Second,
		UpstreamTimeout: 15 * time.Second,
	}
	if cfg.Search != want {
		t.Errorf("search = %+v, want %+v", cfg.Search, want)
	}
	if DefaultSearchConfig() != want {
		t.Errorf("DefaultSearchConfig = %+v", DefaultSearchConfig())
	}
}

func TestTemporalLocation(t *testing.T) {
	tests := []struct {
		tz   string
		want string
	}{
		{"", "UTC"},
		{"Not/AZone", "UTC"},
		{"America/New_York", "America/New_York"},
	}
	for _, tt := range tests {
		if got := (&TemporalConfig{Timezone: tt.tz}).Location().String(); got != tt.want {
			t.Errorf("Location(%q) = %s, want %s", tt.tz, got, tt.want)
		}
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	in := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/recall.db"},
	}
	if err := Save(path, in); err != nil {
		t.Fatal(err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if out.Server.Port != 9090 || out.Storage.DatabasePath != "/tmp/recall.db" {
		t.Errorf("round trip lost fields: %+v %+v", out.Server, out.Storage)
	}
}
