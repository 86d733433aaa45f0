// Package telemetry reports usage events to the collector on a best-effort
// basis. No method of Client surfaces a delivery failure to its caller:
// failures go to the injected logger and the client_telemetry_sends_total
// counter, nothing else.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tekvoro/web-platform/internal/core/domain"
)

const trackPath = "/api/analytics/track"

// Client is one telemetry lifetime. Construct it once at startup and pass it
// to whatever reports events.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	log     zerolog.Logger
	diag    *zerolog.Logger
	mirror  bool
	now     func() time.Time
	rnd     *rand.Rand
	token   func() string

	sessionID string

	pathMu sync.RWMutex
	path   string

	userMu sync.RWMutex
	userID string

	inflight sync.WaitGroup

	initOnce sync.Once
	tracker  *Tracker
}

// Option customises a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the sink for swallowed send and query failures.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithDiagnostics sets the sink development mode mirrors events to. It
// defaults to the logger given by WithLogger.
func WithDiagnostics(log zerolog.Logger) Option {
	return func(c *Client) { c.diag = &log }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRandom sets the source of the session identifier's random part.
func WithRandom(r *rand.Rand) Option {
	return func(c *Client) {
		if r != nil {
			c.rnd = r
		}
	}
}

// WithAuthToken attaches a bearer token to read-side queries.
func WithAuthToken(token string) Option {
	return func(c *Client) { c.token = func() string { return token } }
}

// WithTokenSource is WithAuthToken for tokens obtained after construction.
func WithTokenSource(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.token = fn
		}
	}
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg:     cfg,
		baseURL: ResolveBaseURL(cfg.BaseURL, cfg.Env),
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     zerolog.Nop(),
		mirror:  cfg.Development(),
		now:     time.Now,
		token:   func() string { return "" },
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.diag == nil {
		c.diag = &c.log
	}
	if c.rnd == nil {
		c.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	c.sessionID = newSessionID(c.now(), c.rnd)
	return c
}

// SessionID returns the identifier attached to every event of this lifetime.
func (c *Client) SessionID() string { return c.sessionID }

// BaseURL returns the resolved collector URL.
func (c *Client) BaseURL() string { return c.baseURL }

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// newSessionID formats session_<unix millis>_<9 base36 chars>. It is a
// correlation key, not a secret.
func newSessionID(now time.Time, r *rand.Rand) string {
	var suffix [9]byte
	for i := range suffix {
		suffix[i] = base36[r.IntN(len(base36))]
	}
	return "session_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + string(suffix[:])
}

func (c *Client) currentPath() string {
	c.pathMu.RLock()
	defer c.pathMu.RUnlock()
	return c.path
}

func (c *Client) setPath(path string) {
	c.pathMu.Lock()
	c.path = path
	c.pathMu.Unlock()
}

// Identify attaches userID as metadata "userId" to every later event, so the
// collector can assemble a user's journey across visits. An empty id stops it.
func (c *Client) Identify(userID string) {
	c.userMu.Lock()
	c.userID = userID
	c.userMu.Unlock()
}

func (c *Client) currentUserID() string {
	c.userMu.RLock()
	defer c.userMu.RUnlock()
	return c.userID
}

// TrackEvent reports one event and returns without waiting for the
// collector. An empty path means the current page. String values under
// "referrer", "userAgent" and "sessionId" in metadata override the ambient
// values.
func (c *Client) TrackEvent(eventType, path string, metadata map[string]any) {
	if path == "" {
		path = c.currentPath()
	}
	ev := domain.TelemetryEvent{
		Type:      eventType,
		Path:      path,
		Referrer:  c.cfg.Referrer,
		UserAgent: c.cfg.UserAgent,
		SessionID: c.sessionID,
		Timestamp: c.now().UTC(),
		Metadata:  maps.Clone(metadata),
	}
	if uid := c.currentUserID(); uid != "" {
		if _, ok := ev.Metadata["userId"]; !ok {
			if ev.Metadata == nil {
				ev.Metadata = make(map[string]any, 1)
			}
			ev.Metadata["userId"] = uid
		}
	}
	if v, ok := metadata["referrer"].(string); ok {
		ev.Referrer = v
	}
	if v, ok := metadata["userAgent"].(string); ok {
		ev.UserAgent = v
	}
	if v, ok := metadata["sessionId"].(string); ok {
		ev.SessionID = v
	}

	if c.mirror {
		c.diag.Info().
			Str("type", ev.Type).
			Str("path", ev.Path).
			Str("session_id", ev.SessionID).
			Interface("metadata", ev.Metadata).
			Msg("analytics event")
	}

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.send(ev)
	}()
}

func (c *Client) send(ev domain.TelemetryEvent) {
	result := "ok"
	defer func() {
		sendsTotal.WithLabelValues(ev.Type, result).Inc()
	}()

	if err := c.post(ev); err != nil {
		result = "failed"
		c.log.Warn().Err(err).Str("type", ev.Type).Msg("telemetry send failed")
	}
}

func (c *Client) post(ev domain.TelemetryEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+trackPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("collector responded %d", resp.StatusCode)
	}
	return nil
}

// Flush waits for in-flight sends or until ctx is done. It does not cancel
// anything; use it on shutdown and in tests.
func (c *Client) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
