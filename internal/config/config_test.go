package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Chat.MaxChunkChars != 800 {
		t.Errorf("MaxChunkChars = %d, want 800", cfg.Chat.MaxChunkChars)
	}
	if cfg.Storage.Local != "memory" {
		t.Errorf("Storage.Local = %q, want memory", cfg.Storage.Local)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("Session.TTL = %v, want 24h", cfg.Session.TTL)
	}
	if len(cfg.Storage.RemoteDomains) != 5 {
		t.Errorf("RemoteDomains = %v, want 5 domains", cfg.Storage.RemoteDomains)
	}
	if Get() != cfg {
		t.Error("Get() should return the loaded config")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
storage:
  local: sqlite
  sqlitePath: /tmp/chathy-test.db
chat:
  maxHistory: 10
  timezone: America/Sao_Paulo
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHATHY_CHAT_MAXMESSAGELENGTH", "42")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Local != "sqlite" {
		t.Errorf("Storage.Local = %q, want sqlite", cfg.Storage.Local)
	}
	if cfg.Chat.MaxHistory != 10 {
		t.Errorf("MaxHistory = %d, want 10", cfg.Chat.MaxHistory)
	}
	if cfg.Chat.MaxMessageLength != 42 {
		t.Errorf("MaxMessageLength = %d, want 42 from env", cfg.Chat.MaxMessageLength)
	}
	// 未覆盖的字段保留默认值
	if cfg.Chat.MaxChunkChars != 800 {
		t.Errorf("MaxChunkChars = %d, want default 800", cfg.Chat.MaxChunkChars)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Storage: StorageConfig{Local: "memory"},
			Session: SessionConfig{TTL: time.Hour},
			Chat:    ChatConfig{MaxMessageLength: 10, MaxChunkChars: 10},
			Media:   MediaConfig{Type: "local"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown local storage", mutate: func(c *Config) { c.Storage.Local = "disk" }, wantErr: true},
		{name: "sqlite without path", mutate: func(c *Config) { c.Storage.Local = "sqlite" }, wantErr: true},
		{name: "zero ttl", mutate: func(c *Config) { c.Session.TTL = 0 }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.Chat.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "bad media", mutate: func(c *Config) { c.Media.Type = "s3" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsRemoteDomain(t *testing.T) {
	c := StorageConfig{Remote: true, RemoteDomains: []string{"agents"}}
	if !c.IsRemoteDomain("agents") {
		t.Error("agents should be remote")
	}
	if c.IsRemoteDomain("groups") {
		t.Error("groups should not be remote")
	}
	c.Remote = false
	if c.IsRemoteDomain("agents") {
		t.Error("remote disabled should win")
	}
}
