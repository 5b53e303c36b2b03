package config

import (
	"testing"
	"time"
)

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "production", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "callops", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "callops", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_RealtimeAndRelayDefaults(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "callops"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Realtime.URL == "" || c.Realtime.Voice != "alloy" {
		t.Fatalf("expected realtime defaults, got %+v", c.Realtime)
	}
	if c.Relay.GraceDelay != 250*time.Millisecond {
		t.Fatalf("expected 250ms grace delay default, got %v", c.Relay.GraceDelay)
	}
	if c.Relay.StartTimeout != 30*time.Second || c.Relay.ConfigureTimeout != 30*time.Second {
		t.Fatalf("expected 30s timeouts, got %+v", c.Relay)
	}
	if c.Relay.MaxSessions != 50 {
		t.Fatalf("expected default session cap, got %d", c.Relay.MaxSessions)
	}
}

func TestValidate_RejectsNonWebsocketRealtimeURL(t *testing.T) {
	c := Config{
		App:      AppConfig{Env: "local", Port: 8080},
		DB:       DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "callops"},
		Redis:    RedisConfig{Host: "localhost", Port: 6379},
		Realtime: RealtimeConfig{URL: "https://api.openai.com/v1/realtime"},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for non-websocket realtime URL")
	}
}
