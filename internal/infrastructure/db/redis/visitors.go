package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tekvoro/web-platform/internal/core/domain"
)

const (
	visitorsTTL = 400 * 24 * time.Hour
	// maxVisitorDays bounds how many daily keys a single PFCOUNT merges.
	maxVisitorDays = 366
)

// VisitorCounter counts distinct session ids per UTC day with HyperLogLog.
// Key format: visitors:<yyyy-mm-dd>
type VisitorCounter struct {
	client *redis.Client
	now    func() time.Time
}

// NewVisitorCounter creates a VisitorCounter wrapping the given Redis client.
func NewVisitorCounter(client *redis.Client) *VisitorCounter {
	return &VisitorCounter{client: client, now: time.Now}
}

// Add records the event's session id in the HyperLogLog for the event's day.
func (v *VisitorCounter) Add(ctx context.Context, event *domain.TelemetryEvent) error {
	key := visitorKey(event.Timestamp)
	pipe := v.client.TxPipeline()
	pipe.PFAdd(ctx, key, event.SessionID)
	pipe.Expire(ctx, key, visitorsTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("visitor add: %w", err)
	}
	return nil
}

// Count returns the approximate number of distinct sessions in the range.
// An open start defaults to 30 days before the end.
func (v *VisitorCounter) Count(ctx context.Context, filter domain.SummaryFilter) (int64, error) {
	keys := visitorKeys(filter, v.now())
	n, err := v.client.PFCount(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("visitor count: %w", err)
	}
	return n, nil
}

func visitorKey(ts time.Time) string {
	return "visitors:" + ts.UTC().Format(time.DateOnly)
}

func visitorKeys(filter domain.SummaryFilter, now time.Time) []string {
	end := filter.EndDate
	if end.IsZero() {
		end = now
	}
	start := filter.StartDate
	if start.IsZero() {
		start = end.AddDate(0, 0, -30)
	}

	startDay := truncateDay(start)
	endDay := truncateDay(end)
	if endDay.Before(startDay) {
		return []string{visitorKey(endDay)}
	}

	keys := make([]string, 0, 31)
	for d := startDay; !d.After(endDay) && len(keys) < maxVisitorDays; d = d.AddDate(0, 0, 1) {
		keys = append(keys, visitorKey(d))
	}
	return keys
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
