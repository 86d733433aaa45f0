package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tekvoro/web-platform/internal/core/domain"
	"github.com/tekvoro/web-platform/internal/core/ports"
)

type stubQueue struct {
	err error
	got []ports.TrackEventInput
}

func (q *stubQueue) Enqueue(event ports.TrackEventInput) error {
	if q.err != nil {
		return q.err
	}
	q.got = append(q.got, event)
	return nil
}

type stubAnalyticsService struct {
	summaryFn func(ctx context.Context, f domain.SummaryFilter) (*domain.Summary, error)
	popularFn func(ctx context.Context, limit int) ([]domain.PageCount, error)
	journeyFn func(ctx context.Context, f domain.JourneyFilter) ([]domain.TelemetryEvent, error)
}

func (s *stubAnalyticsService) Record(context.Context, ports.TrackEventInput) error { return nil }

func (s *stubAnalyticsService) Summary(ctx context.Context, f domain.SummaryFilter) (*domain.Summary, error) {
	return s.summaryFn(ctx, f)
}

func (s *stubAnalyticsService) PopularPages(ctx context.Context, limit int) ([]domain.PageCount, error) {
	return s.popularFn(ctx, limit)
}

func (s *stubAnalyticsService) Journey(ctx context.Context, f domain.JourneyFilter) ([]domain.TelemetryEvent, error) {
	return s.journeyFn(ctx, f)
}

func httpErrorCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestAnalyticsHandler_Track_Accepted(t *testing.T) {
	e := newTestEcho()
	q := &stubQueue{}
	h := NewAnalyticsHandler(&stubAnalyticsService{}, q)

	c, rec := newJSONContext(e, http.MethodPost, "/api/analytics/track",
		`{"type":"page_view","path":"/services","referrer":"https://google.com","sessionId":"session_1_abc","metadata":{"title":"Services"}}`)
	c.Request().Header.Set("User-Agent", "Mozilla/5.0")

	if err := h.Track(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(q.got) != 1 {
		t.Fatalf("expected one queued event, got %d", len(q.got))
	}

	in := q.got[0]
	if in.Type != "page_view" || in.Path != "/services" || in.SessionID != "session_1_abc" {
		t.Fatalf("unexpected input: %+v", in)
	}
	if in.UserAgent != "Mozilla/5.0" {
		t.Fatalf("user agent should default to the request header, got %q", in.UserAgent)
	}
	if in.ClientIP != "192.0.2.1" {
		t.Fatalf("unexpected client ip %q", in.ClientIP)
	}
	if !in.Timestamp.IsZero() {
		t.Fatalf("absent timestamp must stay zero, got %v", in.Timestamp)
	}
	if in.Metadata["title"] != "Services" {
		t.Fatalf("metadata not forwarded: %+v", in.Metadata)
	}
}

func TestAnalyticsHandler_Track_KeepsClientTimestamp(t *testing.T) {
	e := newTestEcho()
	q := &stubQueue{}
	h := NewAnalyticsHandler(&stubAnalyticsService{}, q)

	c, _ := newJSONContext(e, http.MethodPost, "/api/analytics/track",
		`{"type":"scroll_depth","sessionId":"s","timestamp":"2026-03-14T09:00:00Z","userAgent":"tekvoro-cli"}`)
	if err := h.Track(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	want := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	if !q.got[0].Timestamp.Equal(want) {
		t.Fatalf("expected %v, got %v", want, q.got[0].Timestamp)
	}
	if q.got[0].UserAgent != "tekvoro-cli" {
		t.Fatalf("body user agent must win, got %q", q.got[0].UserAgent)
	}
}

func TestAnalyticsHandler_Track_Validation(t *testing.T) {
	e := newTestEcho()
	q := &stubQueue{}
	h := NewAnalyticsHandler(&stubAnalyticsService{}, q)

	c, _ := newJSONContext(e, http.MethodPost, "/api/analytics/track", `{"type":"page_view"}`)
	err := h.Track(c)

	if code := httpErrorCode(t, err); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	if !strings.Contains(err.Error(), "sessionId is required") {
		t.Fatalf("unexpected message: %v", err)
	}
	if len(q.got) != 0 {
		t.Fatalf("invalid event must not be queued")
	}
}

func TestAnalyticsHandler_Track_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	h := NewAnalyticsHandler(&stubAnalyticsService{}, &stubQueue{})

	c, _ := newJSONContext(e, http.MethodPost, "/api/analytics/track", `[`)
	if code := httpErrorCode(t, h.Track(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAnalyticsHandler_Track_QueueFull(t *testing.T) {
	e := newTestEcho()
	h := NewAnalyticsHandler(&stubAnalyticsService{}, &stubQueue{err: domain.ErrQueueFull})

	c, rec := newJSONContext(e, http.MethodPost, "/api/analytics/track", `{"type":"page_view","sessionId":"s"}`)
	err := h.Track(c)

	if !errors.Is(err, domain.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if rec.Code == http.StatusAccepted {
		t.Fatalf("dropped event must not be acknowledged")
	}
}

func TestAnalyticsHandler_Summary_ParsesDates(t *testing.T) {
	e := newTestEcho()
	var got domain.SummaryFilter
	svc := &stubAnalyticsService{
		summaryFn: func(ctx context.Context, f domain.SummaryFilter) (*domain.Summary, error) {
			got = f
			return &domain.Summary{TotalEvents: 3, EventsByType: map[string]int64{"page_view": 3}, TopPages: []domain.PageCount{}}, nil
		},
	}
	h := NewAnalyticsHandler(svc, &stubQueue{})

	c, rec := newJSONContext(e, http.MethodGet, "/analytics/summary?startDate=2026-03-01T00:00:00Z&endDate=2026-03-02", "")
	if err := h.Summary(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if !got.StartDate.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", got.StartDate)
	}
	if !got.EndDate.Equal(time.Date(2026, 3, 2, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)) {
		t.Fatalf("bare end date must cover the whole day, got %v", got.EndDate)
	}

	var resp domain.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.TotalEvents != 3 {
		t.Fatalf("unexpected summary %+v", resp)
	}
}

func TestAnalyticsHandler_Summary_BadDate(t *testing.T) {
	e := newTestEcho()
	h := NewAnalyticsHandler(&stubAnalyticsService{}, &stubQueue{})

	c, _ := newJSONContext(e, http.MethodGet, "/analytics/summary?startDate=yesterday", "")
	if code := httpErrorCode(t, h.Summary(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAnalyticsHandler_Summary_PropagatesDomainError(t *testing.T) {
	e := newTestEcho()
	svc := &stubAnalyticsService{
		summaryFn: func(ctx context.Context, f domain.SummaryFilter) (*domain.Summary, error) {
			return nil, domain.ErrInvalidRange
		},
	}
	h := NewAnalyticsHandler(svc, &stubQueue{})

	c, _ := newJSONContext(e, http.MethodGet, "/analytics/summary?startDate=2026-03-05&endDate=2026-03-01", "")
	if err := h.Summary(c); !errors.Is(err, domain.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestAnalyticsHandler_PopularPages(t *testing.T) {
	e := newTestEcho()
	svc := &stubAnalyticsService{
		popularFn: func(ctx context.Context, limit int) ([]domain.PageCount, error) {
			if limit != 5 {
				t.Fatalf("expected limit 5, got %d", limit)
			}
			return []domain.PageCount{{Path: "/", Views: 9}}, nil
		},
	}
	h := NewAnalyticsHandler(svc, &stubQueue{})

	c, rec := newJSONContext(e, http.MethodGet, "/analytics/popular-pages?limit=5", "")
	if err := h.PopularPages(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != `[{"path":"/","views":9}]` {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestAnalyticsHandler_PopularPages_BadLimit(t *testing.T) {
	e := newTestEcho()
	h := NewAnalyticsHandler(&stubAnalyticsService{}, &stubQueue{})

	for _, raw := range []string{"abc", "-1"} {
		c, _ := newJSONContext(e, http.MethodGet, "/analytics/popular-pages?limit="+raw, "")
		if code := httpErrorCode(t, h.PopularPages(c)); code != http.StatusBadRequest {
			t.Fatalf("limit=%s: expected 400, got %d", raw, code)
		}
	}
}

func TestAnalyticsHandler_Journey(t *testing.T) {
	e := newTestEcho()
	svc := &stubAnalyticsService{
		journeyFn: func(ctx context.Context, f domain.JourneyFilter) ([]domain.TelemetryEvent, error) {
			if f.SessionID != "session_1_abc" || f.UserID != "" {
				t.Fatalf("unexpected filter %+v", f)
			}
			return nil, nil
		},
	}
	h := NewAnalyticsHandler(svc, &stubQueue{})

	c, rec := newJSONContext(e, http.MethodGet, "/analytics/user-journey?sessionId=session_1_abc", "")
	if err := h.Journey(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("empty journey must render as [], got %s", rec.Body.String())
	}
}

func TestAnalyticsHandler_Journey_MissingKey(t *testing.T) {
	e := newTestEcho()
	svc := &stubAnalyticsService{
		journeyFn: func(ctx context.Context, f domain.JourneyFilter) ([]domain.TelemetryEvent, error) {
			return nil, domain.ErrMissingJourneyKey
		},
	}
	h := NewAnalyticsHandler(svc, &stubQueue{})

	c, _ := newJSONContext(e, http.MethodGet, "/analytics/user-journey", "")
	if err := h.Journey(c); !errors.Is(err, domain.ErrMissingJourneyKey) {
		t.Fatalf("expected ErrMissingJourneyKey, got %v", err)
	}
}
