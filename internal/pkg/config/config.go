// Package config loads the tekvoro CLI configuration from the environment.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Session back ends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Credential verification modes.
const (
	AuthStatic = "static"
	AuthRemote = "remote"
)

type Config struct {
	// CollectorURL empty means the fallback for Env.
	CollectorURL     string        `env:"COLLECTOR_URL"`
	Env              string        `env:"APP_ENV,           default=production"`
	LogLevel         string        `env:"LOG_LEVEL,         default=warn"`
	TelemetryTimeout time.Duration `env:"TELEMETRY_TIMEOUT, default=5s"`
	// CollectorToken authorizes analytics queries when no login token is
	// available.
	CollectorToken string `env:"COLLECTOR_TOKEN"`

	Session SessionConfig
}

type SessionConfig struct {
	Backend    string        `env:"SESSION_BACKEND,     default=file"`
	Dir        string        `env:"SESSION_DIR"`
	Key        string        `env:"SESSION_KEY,         default=tekvoro_user"`
	AuthMode   string        `env:"AUTH_MODE,           default=static"`
	RedisAddr  string        `env:"SESSION_REDIS_ADDR,  default=localhost:6379"`
	RedisTTL   time.Duration `env:"SESSION_REDIS_TTL,   default=720h"`
	LoginRoute string        `env:"LOGIN_PATH,          default=/login"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	switch cfg.Session.Backend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return nil, fmt.Errorf("config: unknown SESSION_BACKEND %q", cfg.Session.Backend)
	}
	switch cfg.Session.AuthMode {
	case AuthStatic, AuthRemote:
	default:
		return nil, fmt.Errorf("config: unknown AUTH_MODE %q", cfg.Session.AuthMode)
	}
	return &cfg, nil
}
