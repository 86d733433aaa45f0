package ports

import (
	"context"
	"time"

	"github.com/tekvoro/web-platform/internal/core/domain"
)

// TrackEventInput is the DTO passed from the transport layer to AnalyticsService.
type TrackEventInput struct {
	Type      string
	Path      string
	Referrer  string
	UserAgent string
	SessionID string
	Timestamp time.Time // optional, receive time is used when zero
	Metadata  map[string]any
	ClientIP  string
}

// AnalyticsService records telemetry events and serves aggregate views.
type AnalyticsService interface {
	Record(ctx context.Context, in TrackEventInput) error
	Summary(ctx context.Context, filter domain.SummaryFilter) (*domain.Summary, error)
	PopularPages(ctx context.Context, limit int) ([]domain.PageCount, error)
	Journey(ctx context.Context, filter domain.JourneyFilter) ([]domain.TelemetryEvent, error)
}
