package ports

import (
	"context"

	"github.com/tekvoro/web-platform/internal/core/domain"
)

// EventRepository persists telemetry events and answers the aggregate queries
// behind the admin dashboard.
type EventRepository interface {
	Insert(ctx context.Context, event *domain.TelemetryEvent) error

	// Summary aggregates totals, per-type counts and distinct sessions within
	// the filter range. UniqueVisitors is left for the caller to fill.
	Summary(ctx context.Context, filter domain.SummaryFilter, topPages int) (*domain.Summary, error)

	PopularPages(ctx context.Context, limit int) ([]domain.PageCount, error)

	// Journey returns the matching events ordered by timestamp ascending.
	Journey(ctx context.Context, filter domain.JourneyFilter) ([]domain.TelemetryEvent, error)
}

// VisitorCounter keeps approximate unique-session counts per UTC day.
type VisitorCounter interface {
	Add(ctx context.Context, event *domain.TelemetryEvent) error
	Count(ctx context.Context, filter domain.SummaryFilter) (int64, error)
}
