package telemetry

import (
	"bytes"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tekvoro/web-platform/internal/core/domain"
)

func TestResolveBaseURL(t *testing.T) {
	cases := []struct {
		raw, env, want string
	}{
		{"https://collector.example.com/", "production", "https://collector.example.com"},
		{"", "production", ProductionBaseURL},
		{"", "", ProductionBaseURL},
		{"", "development", DevelopmentBaseURL},
		{"  ", "local", DevelopmentBaseURL},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ResolveBaseURL(tc.raw, tc.env), "raw=%q env=%q", tc.raw, tc.env)
	}
}

func TestNew_SessionID(t *testing.T) {
	clock := newFakeClock(0)
	c := newTestClient("http://unused", clock)

	assert.Regexp(t, regexp.MustCompile(`^session_\d+_[0-9a-z]{9}$`), c.SessionID())
	assert.Contains(t, c.SessionID(), "_1773478800000_")
	assert.Equal(t, c.SessionID(), c.SessionID(), "stable for the client lifetime")

	other := New(Config{}, WithClock(clock.Now), WithRandom(rand.New(rand.NewPCG(3, 4))))
	assert.NotEqual(t, c.SessionID(), other.SessionID())
}

func TestTrackEvent_AmbientValuesAndOverrides(t *testing.T) {
	col := newCollector(t, http.StatusAccepted)
	c := newTestClient(col.srv.URL, newFakeClock(0))

	c.TrackEvent("custom", "/pricing", map[string]any{"plan": "pro"})
	c.TrackEvent("custom_override", "/pricing", map[string]any{
		"referrer":  "https://newsletter.tekvoro.com/",
		"sessionId": "session_campaign",
	})
	flush(t, c)

	plain := col.ofType("custom")
	require.Len(t, plain, 1)
	assert.Equal(t, "/pricing", plain[0].Path)
	assert.Equal(t, "https://www.google.com/", plain[0].Referrer)
	assert.Equal(t, "tekvoro-test/1.0", plain[0].UserAgent)
	assert.Equal(t, c.SessionID(), plain[0].SessionID)
	assert.Equal(t, "pro", plain[0].Metadata["plan"])
	assert.False(t, plain[0].Timestamp.IsZero())

	overridden := col.ofType("custom_override")
	require.Len(t, overridden, 1)
	assert.Equal(t, "https://newsletter.tekvoro.com/", overridden[0].Referrer)
	assert.Equal(t, "session_campaign", overridden[0].SessionID)
	assert.Equal(t, "tekvoro-test/1.0", overridden[0].UserAgent)
}

func TestTrackEvent_DoesNotMutateMetadata(t *testing.T) {
	col := newCollector(t, http.StatusAccepted)
	c := newTestClient(col.srv.URL, newFakeClock(0))

	md := map[string]any{"a": 1}
	c.TrackEvent("custom", "/", md)
	flush(t, c)
	assert.Equal(t, map[string]any{"a": 1}, md)
}

func TestTrackEvent_ReturnsBeforeCollectorResponds(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: time.Minute})

	returned := make(chan struct{})
	go func() {
		c.TrackEvent(domain.EventPageView, "/", nil)
		c.TrackPageView("/services", "Services")
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("TrackEvent blocked on a collector that never responds")
	}

	close(release)
	flush(t, c)
}

func TestTrackEvent_FailuresAreLoggedNotRaised(t *testing.T) {
	failing := newCollector(t, http.StatusInternalServerError)

	gone := httptest.NewServer(http.NotFoundHandler())
	goneURL := gone.URL
	gone.Close()

	before := testutil.ToFloat64(sendsTotal.WithLabelValues(domain.EventPageView, "failed"))

	for _, base := range []string{failing.srv.URL, goneURL} {
		var logs syncBuffer
		c := newTestClient(base, newFakeClock(0), WithLogger(zerolog.New(&logs)))

		require.NotPanics(t, func() {
			c.TrackEvent("custom", "/", nil)
			c.TrackPageView("/", "Home")
			c.TrackContactSubmission(ContactForm{Name: "Ada", Email: "ada@example.com", Message: "hi"})
			c.TrackSubscription("ada@example.com", "footer")
			c.TrackDemoRequest(DemoRequest{Name: "Ada", Email: "ada@example.com"})
			c.TrackCampaignOpen("cmp-1", "ada@example.com")
			c.TrackCampaignClick("cmp-1", "ada@example.com", "https://tekvoro.com/offer")
		})
		flush(t, c)

		assert.Contains(t, logs.String(), "telemetry send failed", "base=%s", base)
	}

	after := testutil.ToFloat64(sendsTotal.WithLabelValues(domain.EventPageView, "failed"))
	assert.Equal(t, 2.0, after-before)
	assert.Equal(t, 7, failing.count())
}

func TestTrackEvent_DevelopmentMirror(t *testing.T) {
	col := newCollector(t, http.StatusAccepted)

	var diag bytes.Buffer
	dev := New(Config{BaseURL: col.srv.URL, Env: "development"}, WithDiagnostics(zerolog.New(&diag)))
	dev.TrackPageView("/about", "About")
	flush(t, dev)
	assert.Contains(t, diag.String(), `"type":"page_view"`)
	assert.Contains(t, diag.String(), "analytics event")

	var quiet bytes.Buffer
	prod := New(Config{BaseURL: col.srv.URL, Env: "production"}, WithDiagnostics(zerolog.New(&quiet)))
	prod.TrackPageView("/about", "About")
	flush(t, prod)
	assert.Empty(t, quiet.String())

	assert.Len(t, col.ofType(domain.EventPageView), 2, "mirroring is in addition to the network send")
}

func TestDerivedEvents(t *testing.T) {
	col := newCollector(t, http.StatusAccepted)
	c := newTestClient(col.srv.URL, newFakeClock(time.Millisecond))

	c.TrackPageView("/contact", "Contact")
	c.TrackContactSubmission(ContactForm{Name: "Ada", Email: "ada@example.com", Company: "ACME", Service: "cloud", Message: "hello"})
	c.TrackCampaignClick("cmp-9", "ada@example.com", "https://tekvoro.com/x")
	c.OnLogin(t.Context(), domain.User{ID: "1", Username: "admin", Role: domain.RoleAdmin})
	c.OnLogout(t.Context(), domain.User{ID: "1", Username: "admin", Role: domain.RoleAdmin})
	flush(t, c)

	pv := col.ofType(domain.EventPageView)
	require.Len(t, pv, 1)
	assert.Equal(t, "Contact", pv[0].Metadata["title"])

	contact := col.ofType(domain.EventContactSubmission)
	require.Len(t, contact, 1)
	assert.Equal(t, "/contact", contact[0].Path, "derived events default to the current page")
	assert.Equal(t, "ACME", contact[0].Metadata["company"])
	assert.Equal(t, true, contact[0].Metadata["hasMessage"])
	assert.NotContains(t, contact[0].Metadata, "message")

	click := col.ofType(domain.EventCampaignClick)
	require.Len(t, click, 1)
	assert.Equal(t, "cmp-9", click[0].Metadata["campaignId"])
	assert.Equal(t, "https://tekvoro.com/x", click[0].Metadata["url"])

	login := col.ofType(domain.EventLogin)
	require.Len(t, login, 1)
	assert.Equal(t, "1", login[0].Metadata["userId"])
	assert.Equal(t, "admin", login[0].Metadata["role"])
	require.Len(t, col.ofType(domain.EventLogout), 1)
}

func TestTrackEvent_CarriesSignedInUser(t *testing.T) {
	col := newCollector(t, http.StatusAccepted)
	c := newTestClient(col.srv.URL, newFakeClock(time.Millisecond))
	admin := domain.User{ID: "1", Username: "admin", Role: domain.RoleAdmin}

	c.TrackPageView("/", "")
	c.OnLogin(t.Context(), admin)
	c.TrackPageView("/services", "")
	c.TrackEvent(domain.EventCTAClick, "", map[string]any{"userId": "impersonated"})
	c.OnLogout(t.Context(), admin)
	c.TrackPageView("/blog", "")
	flush(t, c)

	pv := col.ofType(domain.EventPageView)
	require.Len(t, pv, 3)
	assert.NotContains(t, pv[0].Metadata, "userId")
	assert.Equal(t, "1", pv[1].Metadata["userId"])
	assert.NotContains(t, pv[2].Metadata, "userId")

	cta := col.ofType(domain.EventCTAClick)
	require.Len(t, cta, 1)
	assert.Equal(t, "impersonated", cta[0].Metadata["userId"], "explicit metadata wins")

	logout := col.ofType(domain.EventLogout)
	require.Len(t, logout, 1)
	assert.Equal(t, "1", logout[0].Metadata["userId"])
}
