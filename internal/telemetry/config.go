package telemetry

import (
	"strings"
	"time"
)

const (
	ProductionBaseURL  = "https://api.tekvoro.com"
	DevelopmentBaseURL = "http://localhost:5000"

	defaultTimeout = 5 * time.Second
)

// Config describes where events go and the ambient values attached to them.
type Config struct {
	// BaseURL of the collector. Empty falls back per Env, see ResolveBaseURL.
	BaseURL string
	// Env is the runtime mode. "development" mirrors every event to the
	// diagnostic sink.
	Env       string
	Referrer  string
	UserAgent string
	// Timeout bounds a single send or query. Defaults to 5s.
	Timeout time.Duration
}

// Development reports whether events should be mirrored locally.
func (c Config) Development() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "development", "dev", "local":
		return true
	}
	return false
}

// ResolveBaseURL returns raw without a trailing slash, or the fallback
// collector for env when raw is empty.
func ResolveBaseURL(raw, env string) string {
	if u := strings.TrimRight(strings.TrimSpace(raw), "/"); u != "" {
		return u
	}
	if (Config{Env: env}).Development() {
		return DevelopmentBaseURL
	}
	return ProductionBaseURL
}
