// Package session owns the current-user value of a running client and decides
// whether protected views may render.
//
// A Guard is an explicit instance: construct one at startup, call
// RestoreSession once, and pass it to whatever needs access decisions.
// Caller-facing operations never return errors; wrong credentials, a missing
// session and a corrupt persisted record all degrade to "logged out".
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tekvoro/web-platform/internal/core/domain"
	"github.com/tekvoro/web-platform/internal/core/ports"
)

// DefaultStorageKey is the durable storage key holding the session record.
const DefaultStorageKey = "tekvoro_user"

// Observer is notified after the session changes. Implementations must not
// block; the telemetry client satisfies it.
type Observer interface {
	OnLogin(ctx context.Context, user domain.User)
	OnLogout(ctx context.Context, user domain.User)
}

// record is the persisted form of the current user.
type record struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

func (r record) valid() bool {
	return r.ID != "" && r.Username != "" && r.Role.Valid()
}

// Guard holds the single current user of this client.
type Guard struct {
	store    ports.SessionStore
	verifier ports.CredentialVerifier
	key      string
	observer Observer
	log      zerolog.Logger

	mu      sync.RWMutex
	current *domain.User
	ready   bool
}

// GuardOption customises a Guard.
type GuardOption func(*Guard)

// WithStorageKey overrides DefaultStorageKey.
func WithStorageKey(key string) GuardOption {
	return func(g *Guard) {
		if key != "" {
			g.key = key
		}
	}
}

// WithObserver registers an observer for login and logout.
func WithObserver(o Observer) GuardOption {
	return func(g *Guard) { g.observer = o }
}

func NewGuard(store ports.SessionStore, verifier ports.CredentialVerifier, log zerolog.Logger, opts ...GuardOption) *Guard {
	g := &Guard{
		store:    store,
		verifier: verifier,
		key:      DefaultStorageKey,
		log:      log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Login verifies the credential pair and, on a match, persists the user
// before making it current. Any failure leaves the state unchanged.
func (g *Guard) Login(ctx context.Context, username, password string) bool {
	user, err := g.verifier.Verify(ctx, username, password)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			g.log.Warn().Err(err).Str("username", username).Msg("credential check failed")
		}
		return false
	}

	rec := record{ID: user.ID, Username: user.Username, Role: user.Role}
	if !rec.valid() {
		g.log.Error().Str("username", username).Msg("verifier returned an incomplete user")
		return false
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		g.log.Error().Err(err).Msg("encode session record")
		return false
	}

	g.mu.Lock()
	if err := g.store.Set(ctx, g.key, payload); err != nil {
		g.mu.Unlock()
		g.log.Error().Err(err).Str("username", username).Msg("persist session failed")
		return false
	}
	current := domain.User{ID: rec.ID, Username: rec.Username, Role: rec.Role}
	g.current = &current
	g.ready = true
	g.mu.Unlock()

	g.log.Info().Str("user_id", current.ID).Str("role", string(current.Role)).Msg("logged in")
	if g.observer != nil {
		g.observer.OnLogin(ctx, current)
	}
	return true
}

// Logout removes the persisted record and clears the current user. Calling it
// while logged out is a no-op.
func (g *Guard) Logout(ctx context.Context) {
	g.mu.Lock()
	if err := g.store.Delete(ctx, g.key); err != nil {
		g.log.Warn().Err(err).Msg("remove persisted session failed")
	}
	prev := g.current
	g.current = nil
	g.mu.Unlock()

	if prev == nil {
		return
	}
	g.log.Info().Str("user_id", prev.ID).Msg("logged out")
	if g.observer != nil {
		g.observer.OnLogout(ctx, *prev)
	}
}

// RestoreSession loads the persisted record, if any, as the current user.
// A record that cannot be decoded is deleted. Call once at startup.
func (g *Guard) RestoreSession(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer func() { g.ready = true }()

	payload, err := g.store.Get(ctx, g.key)
	if err != nil {
		g.log.Warn().Err(err).Msg("read persisted session failed")
		g.current = nil
		return
	}
	if payload == nil {
		g.current = nil
		return
	}

	var rec record
	if err := json.Unmarshal(payload, &rec); err != nil || !rec.valid() {
		g.log.Warn().Err(err).Msg("discarding malformed persisted session")
		if delErr := g.store.Delete(ctx, g.key); delErr != nil {
			g.log.Warn().Err(delErr).Msg("remove malformed session failed")
		}
		g.current = nil
		return
	}

	g.current = &domain.User{ID: rec.ID, Username: rec.Username, Role: rec.Role}
	g.log.Debug().Str("user_id", rec.ID).Msg("session restored")
}

// Ready reports whether RestoreSession has completed or a login succeeded.
func (g *Guard) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ready
}

// IsAuthenticated reports whether a current user is present.
func (g *Guard) IsAuthenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current != nil
}

// CurrentUser returns a copy of the current user.
func (g *Guard) CurrentUser() (domain.User, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.current == nil {
		return domain.User{}, false
	}
	return *g.current, true
}

// CanAccess reports whether a view requiring role may render. An empty role
// requires nothing; otherwise the current user's role must match exactly.
func (g *Guard) CanAccess(role domain.Role) bool {
	if role == "" {
		return true
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current != nil && g.current.Role == role
}
