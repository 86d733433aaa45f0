package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tekvoro/web-platform/internal/core/domain"
)

// fakeClock returns t and then moves forward by step on every read.
type fakeClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), step: step}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// collector records every event posted to the track endpoint.
type collector struct {
	t      *testing.T
	srv    *httptest.Server
	status int

	mu     sync.Mutex
	events []domain.TelemetryEvent
}

func newCollector(t *testing.T, status int) *collector {
	t.Helper()
	c := &collector{t: t, status: status}
	c.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != trackPath || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var ev domain.TelemetryEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		c.mu.Lock()
		c.events = append(c.events, ev)
		c.mu.Unlock()
		w.WriteHeader(c.status)
	}))
	t.Cleanup(c.srv.Close)
	return c
}

// ofType returns the recorded events of one type ordered by timestamp.
func (c *collector) ofType(typ string) []domain.TelemetryEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.TelemetryEvent
	for _, ev := range c.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func newTestClient(baseURL string, clock *fakeClock, opts ...Option) *Client {
	base := []Option{
		WithClock(clock.Now),
		WithRandom(rand.New(rand.NewPCG(1, 2))),
	}
	return New(Config{
		BaseURL:   baseURL,
		Env:       "production",
		Referrer:  "https://www.google.com/",
		UserAgent: "tekvoro-test/1.0",
		Timeout:   2 * time.Second,
	}, append(base, opts...)...)
}

func flush(t *testing.T, c *Client) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Flush(ctx))
}

// syncBuffer is a log sink safe for the concurrent writes of send goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
