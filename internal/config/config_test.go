package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Backend != "memory" || cfg.Store.Path != "active-game" || cfg.Server.Port != "8080" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.Users) == 0 {
		t.Fatalf("expected default roster")
	}
}

func TestLoadReadsRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
store:
  backend: redis
redis:
  addr: localhost:6379
  ttl: 30m
game:
  introDelay: 2s
users:
  - id: nana
    name: Nana
    avatar: owl
    admin: true
    passcode: "1234"
  - id: tom
    name: Tom
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Backend != "redis" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected store config %+v", cfg)
	}
	if len(cfg.Users) != 2 || !cfg.Users[0].IsAdmin || cfg.Users[0].Passcode != "1234" || cfg.Users[0].Name != "Nana" {
		t.Fatalf("unexpected roster %+v", cfg.Users)
	}
	if got := TTLDuration(cfg.Redis.TTL, time.Minute); got != 30*time.Minute {
		t.Fatalf("expected 30m ttl, got %v", got)
	}
	if got := TTLDuration(cfg.Game.ResultsDelay, 7*time.Second); got != 7*time.Second {
		t.Fatalf("expected fallback, got %v", got)
	}
}
