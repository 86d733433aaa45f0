package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tekvoro/web-platform/internal/core/domain"
	"github.com/tekvoro/web-platform/internal/core/ports"
)

const (
	defaultPopularLimit = 10
	maxPopularLimit     = 100
	summaryTopPages     = 5
	maxEventTypeLen     = 64
)

type analyticsService struct {
	events   ports.EventRepository
	visitors ports.VisitorCounter
	log      zerolog.Logger
	now      func() time.Time
}

// NewAnalyticsService returns an AnalyticsService implementation. visitors may
// be nil, in which case unique visitor counts are reported as zero.
func NewAnalyticsService(
	events ports.EventRepository,
	visitors ports.VisitorCounter,
	log zerolog.Logger,
) ports.AnalyticsService {
	return &analyticsService{
		events:   events,
		visitors: visitors,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Record validates and persists a single telemetry event.
func (s *analyticsService) Record(ctx context.Context, in ports.TrackEventInput) error {
	eventType := strings.TrimSpace(in.Type)
	if eventType == "" || len(eventType) > maxEventTypeLen {
		return fmt.Errorf("record event: %w: type", domain.ErrInvalidEvent)
	}
	if strings.TrimSpace(in.SessionID) == "" {
		return fmt.Errorf("record event: %w: session id", domain.ErrInvalidEvent)
	}

	now := s.now()
	ts := in.Timestamp.UTC()
	if in.Timestamp.IsZero() {
		ts = now
	}

	event := &domain.TelemetryEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Path:       in.Path,
		Referrer:   in.Referrer,
		UserAgent:  in.UserAgent,
		SessionID:  in.SessionID,
		Timestamp:  ts,
		Metadata:   in.Metadata,
		ClientIP:   in.ClientIP,
		ReceivedAt: now,
	}

	if err := s.events.Insert(ctx, event); err != nil {
		return fmt.Errorf("record event: insert: %w", err)
	}

	// Visitor counting is best effort, the event itself is already stored.
	if s.visitors != nil {
		if err := s.visitors.Add(ctx, event); err != nil {
			s.log.Warn().Err(err).Str("session_id", event.SessionID).Msg("failed to count visitor")
		}
	}

	s.log.Debug().
		Str("event_id", event.ID).
		Str("type", event.Type).
		Str("path", event.Path).
		Str("session_id", event.SessionID).
		Msg("event recorded")

	return nil
}

func (s *analyticsService) Summary(ctx context.Context, filter domain.SummaryFilter) (*domain.Summary, error) {
	if !filter.StartDate.IsZero() && !filter.EndDate.IsZero() && filter.StartDate.After(filter.EndDate) {
		return nil, domain.ErrInvalidRange
	}

	summary, err := s.events.Summary(ctx, filter, summaryTopPages)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}

	if s.visitors != nil {
		n, err := s.visitors.Count(ctx, filter)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to count unique visitors")
		} else {
			summary.UniqueVisitors = n
		}
	}

	if !filter.StartDate.IsZero() {
		start := filter.StartDate
		summary.StartDate = &start
	}
	if !filter.EndDate.IsZero() {
		end := filter.EndDate
		summary.EndDate = &end
	}
	return summary, nil
}

// PopularPages returns the most viewed paths. limit is clamped to (0, 100].
func (s *analyticsService) PopularPages(ctx context.Context, limit int) ([]domain.PageCount, error) {
	switch {
	case limit <= 0:
		limit = defaultPopularLimit
	case limit > maxPopularLimit:
		limit = maxPopularLimit
	}

	pages, err := s.events.PopularPages(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("popular pages: %w", err)
	}
	if pages == nil {
		pages = []domain.PageCount{}
	}
	return pages, nil
}

func (s *analyticsService) Journey(ctx context.Context, filter domain.JourneyFilter) ([]domain.TelemetryEvent, error) {
	filter.SessionID = strings.TrimSpace(filter.SessionID)
	filter.UserID = strings.TrimSpace(filter.UserID)
	if filter.SessionID == "" && filter.UserID == "" {
		return nil, domain.ErrMissingJourneyKey
	}

	events, err := s.events.Journey(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("user journey: %w", err)
	}
	if events == nil {
		events = []domain.TelemetryEvent{}
	}
	return events, nil
}
