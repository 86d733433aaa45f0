package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tekvoro/web-platform/internal/core/ports"
	redisdb "github.com/tekvoro/web-platform/internal/infrastructure/db/redis"
	"github.com/tekvoro/web-platform/internal/infrastructure/storage"
	"github.com/tekvoro/web-platform/internal/pkg/config"
	"github.com/tekvoro/web-platform/internal/session"
	"github.com/tekvoro/web-platform/internal/telemetry"
)

// Build assembles an App from cfg. The returned func releases the session
// back end and must be called after Run.
func Build(ctx context.Context, cfg *config.Config, version string, in io.Reader, out, errOut io.Writer, log zerolog.Logger) (*App, func(), error) {
	store, closeStore, err := openStore(ctx, cfg.Session)
	if err != nil {
		return nil, nil, err
	}

	baseURL := telemetry.ResolveBaseURL(cfg.CollectorURL, cfg.Env)
	verifier, err := newVerifier(cfg.Session.AuthMode, baseURL, cfg.TelemetryTimeout)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	tokenKey := cfg.Session.Key + "_token"
	tokenSource := func() string {
		if cfg.CollectorToken != "" {
			return cfg.CollectorToken
		}
		tok, err := store.Get(context.Background(), tokenKey)
		if err != nil {
			log.Debug().Err(err).Msg("read collector token failed")
			return ""
		}
		return string(tok)
	}

	tele := telemetry.New(telemetry.Config{
		BaseURL:   cfg.CollectorURL,
		Env:       cfg.Env,
		UserAgent: "tekvoro-cli/" + version,
		Timeout:   cfg.TelemetryTimeout,
	},
		telemetry.WithLogger(log.With().Str("component", "telemetry").Logger()),
		telemetry.WithTokenSource(tokenSource),
	)

	app := New(Deps{
		Store:      store,
		Verifier:   verifier,
		Telemetry:  tele,
		StorageKey: cfg.Session.Key,
		LoginPath:  cfg.Session.LoginRoute,
		Version:    version,
		In:         in,
		Out:        out,
		Err:        errOut,
		Log:        log,
	})
	return app, closeStore, nil
}

func openStore(ctx context.Context, cfg config.SessionConfig) (ports.SessionStore, func(), error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return storage.NewMemoryStore(), func() {}, nil
	case config.BackendRedis:
		client, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.RedisAddr})
		if err != nil {
			return nil, nil, fmt.Errorf("session store: %w", err)
		}
		return redisdb.NewSessionStore(client, cfg.RedisTTL), func() { _ = client.Close() }, nil
	default:
		dir := cfg.Dir
		if dir == "" {
			dir = storage.DefaultDir()
		}
		return storage.NewFileStore(dir), func() {}, nil
	}
}

func newVerifier(mode, baseURL string, timeout time.Duration) (ports.CredentialVerifier, error) {
	if mode == config.AuthRemote {
		return session.NewRemoteVerifier(baseURL, &http.Client{Timeout: timeout}), nil
	}
	creds, err := session.NewStaticCredentials(session.DefaultAccounts()...)
	if err != nil {
		return nil, fmt.Errorf("static credentials: %w", err)
	}
	return creds, nil
}
