package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"family-quiz-sync/internal/domain"
)

type Config struct {
	Server struct {
		Port      string `yaml:"port"`
		PublicURL string `yaml:"publicURL"`
	} `yaml:"server"`
	Store struct {
		Backend string `yaml:"backend"` // memory | redis | nats
		Path    string `yaml:"path"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	NATS struct {
		URL    string `yaml:"url"`
		Bucket string `yaml:"bucket"`
	} `yaml:"nats"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Game struct {
		IntroDelay   string `yaml:"introDelay"`
		ResultsDelay string `yaml:"resultsDelay"`
	} `yaml:"game"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Users []domain.RosterEntry `yaml:"users"`
}

// Load reads YAML config from path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg.applyDefaults()
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.Path == "" {
		c.Store.Path = "active-game"
	}
	if c.NATS.Bucket == "" {
		c.NATS.Bucket = "quiz-sessions"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if len(c.Users) == 0 {
		c.Users = DefaultRoster()
	}
}

// DefaultRoster is the built-in family used when the config names no users.
func DefaultRoster() []domain.RosterEntry {
	return []domain.RosterEntry{
		{User: domain.User{ID: "mum", Name: "Mum", Avatar: "owl", IsAdmin: true}},
		{User: domain.User{ID: "dad", Name: "Dad", Avatar: "bear", IsAdmin: true}},
		{User: domain.User{ID: "ella", Name: "Ella", Avatar: "fox"}},
		{User: domain.User{ID: "sam", Name: "Sam", Avatar: "frog"}},
		{User: domain.User{ID: "gran", Name: "Gran", Avatar: "cat"}},
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
