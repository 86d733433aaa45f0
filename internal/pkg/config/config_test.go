package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Env != "production" || cfg.TelemetryTimeout != 5*time.Second || cfg.CollectorURL != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	s := cfg.Session
	if s.Backend != BackendFile || s.AuthMode != AuthStatic || s.Key != "tekvoro_user" || s.LoginRoute != "/login" {
		t.Fatalf("unexpected session defaults: %+v", s)
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"COLLECTOR_URL":   "http://collector:8080",
		"APP_ENV":         "development",
		"SESSION_BACKEND": "redis",
		"AUTH_MODE":       "remote",
		"SESSION_DIR":     "/tmp/tekvoro",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CollectorURL != "http://collector:8080" || cfg.Session.Backend != BackendRedis || cfg.Session.AuthMode != AuthRemote {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoad_RejectsUnknownModes(t *testing.T) {
	for _, env := range []map[string]string{
		{"SESSION_BACKEND": "sqlite"},
		{"AUTH_MODE": "ldap"},
	} {
		if _, err := load(context.Background(), envconfig.MapLookuper(env)); err == nil {
			t.Fatalf("expected error for %v", env)
		}
	}
}
