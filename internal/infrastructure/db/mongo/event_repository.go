package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tekvoro/web-platform/internal/core/domain"
	"github.com/tekvoro/web-platform/internal/core/ports"
)

const (
	eventsCollection = "analytics_events"
	maxJourneyEvents = 1000
)

// EventRepository implements ports.EventRepository using MongoDB.
type EventRepository struct {
	coll *mongo.Collection
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{coll: db.Collection(eventsCollection)}
}

var _ ports.EventRepository = (*EventRepository)(nil)

type eventDoc struct {
	ID         string         `bson:"_id"`
	Type       string         `bson:"type"`
	Path       string         `bson:"path"`
	Referrer   string         `bson:"referrer,omitempty"`
	UserAgent  string         `bson:"user_agent,omitempty"`
	SessionID  string         `bson:"session_id"`
	Timestamp  time.Time      `bson:"timestamp"`
	Metadata   map[string]any `bson:"metadata,omitempty"`
	ClientIP   string         `bson:"client_ip,omitempty"`
	ReceivedAt time.Time      `bson:"received_at"`
}

func toEventDoc(e *domain.TelemetryEvent) eventDoc {
	return eventDoc{
		ID:         e.ID,
		Type:       e.Type,
		Path:       e.Path,
		Referrer:   e.Referrer,
		UserAgent:  e.UserAgent,
		SessionID:  e.SessionID,
		Timestamp:  e.Timestamp.UTC(),
		Metadata:   e.Metadata,
		ClientIP:   e.ClientIP,
		ReceivedAt: e.ReceivedAt.UTC(),
	}
}

func (d eventDoc) toDomain() domain.TelemetryEvent {
	return domain.TelemetryEvent{
		ID:         d.ID,
		Type:       d.Type,
		Path:       d.Path,
		Referrer:   d.Referrer,
		UserAgent:  d.UserAgent,
		SessionID:  d.SessionID,
		Timestamp:  d.Timestamp.UTC(),
		Metadata:   d.Metadata,
		ClientIP:   d.ClientIP,
		ReceivedAt: d.ReceivedAt.UTC(),
	}
}

// Insert persists a telemetry event.
func (r *EventRepository) Insert(ctx context.Context, event *domain.TelemetryEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, toEventDoc(event)); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

type countRow struct {
	N int64 `bson:"n"`
}

type summaryFacet struct {
	Totals   []countRow `bson:"totals"`
	Sessions []countRow `bson:"sessions"`
	ByType   []struct {
		Type string `bson:"_id"`
		N    int64  `bson:"n"`
	} `bson:"by_type"`
	TopPages []pageRow `bson:"top_pages"`
}

type pageRow struct {
	Path  string `bson:"_id"`
	Views int64  `bson:"views"`
}

// Summary runs a single $facet aggregation over the filtered range.
func (r *EventRepository) Summary(ctx context.Context, filter domain.SummaryFilter, topPages int) (*domain.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Aggregate(ctx, summaryPipeline(filter, topPages))
	if err != nil {
		return nil, fmt.Errorf("summary aggregate: %w", err)
	}
	defer cur.Close(ctx)

	var facets []summaryFacet
	if err := cur.All(ctx, &facets); err != nil {
		return nil, fmt.Errorf("summary decode: %w", err)
	}

	summary := &domain.Summary{EventsByType: map[string]int64{}, TopPages: []domain.PageCount{}}
	if len(facets) == 0 {
		return summary, nil
	}
	f := facets[0]
	if len(f.Totals) > 0 {
		summary.TotalEvents = f.Totals[0].N
	}
	if len(f.Sessions) > 0 {
		summary.UniqueSessions = f.Sessions[0].N
	}
	for _, row := range f.ByType {
		summary.EventsByType[row.Type] = row.N
	}
	summary.PageViews = summary.EventsByType[domain.EventPageView]
	for _, row := range f.TopPages {
		summary.TopPages = append(summary.TopPages, domain.PageCount{Path: row.Path, Views: row.Views})
	}
	return summary, nil
}

// PopularPages ranks paths by page_view count, ties broken by path.
func (r *EventRepository) PopularPages(ctx context.Context, limit int) ([]domain.PageCount, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Aggregate(ctx, popularPagesPipeline(limit))
	if err != nil {
		return nil, fmt.Errorf("popular pages aggregate: %w", err)
	}
	defer cur.Close(ctx)

	var rows []pageRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("popular pages decode: %w", err)
	}

	pages := make([]domain.PageCount, 0, len(rows))
	for _, row := range rows {
		pages = append(pages, domain.PageCount{Path: row.Path, Views: row.Views})
	}
	return pages, nil
}

// Journey returns the events of a session and/or user in timestamp order.
func (r *EventRepository) Journey(ctx context.Context, filter domain.JourneyFilter) ([]domain.TelemetryEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(maxJourneyEvents)

	cur, err := r.coll.Find(ctx, journeyFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("journey find: %w", err)
	}
	defer cur.Close(ctx)

	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("journey decode: %w", err)
	}

	events := make([]domain.TelemetryEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, d.toDomain())
	}
	return events, nil
}

// EnsureIndexes creates the indexes backing the analytics queries.
func (r *EventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "path", Value: 1}}},
		{Keys: bson.D{{Key: "metadata.userId", Value: 1}, {Key: "timestamp", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func rangeMatch(filter domain.SummaryFilter) bson.M {
	match := bson.M{}
	ts := bson.M{}
	if !filter.StartDate.IsZero() {
		ts["$gte"] = filter.StartDate.UTC()
	}
	if !filter.EndDate.IsZero() {
		ts["$lte"] = filter.EndDate.UTC()
	}
	if len(ts) > 0 {
		match["timestamp"] = ts
	}
	return match
}

func summaryPipeline(filter domain.SummaryFilter, topPages int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: rangeMatch(filter)}},
		{{Key: "$facet", Value: bson.M{
			"totals": bson.A{
				bson.M{"$count": "n"},
			},
			"sessions": bson.A{
				bson.M{"$group": bson.M{"_id": "$session_id"}},
				bson.M{"$count": "n"},
			},
			"by_type": bson.A{
				bson.M{"$group": bson.M{"_id": "$type", "n": bson.M{"$sum": 1}}},
			},
			"top_pages": bson.A{
				bson.M{"$match": bson.M{"type": domain.EventPageView}},
				bson.M{"$group": bson.M{"_id": "$path", "views": bson.M{"$sum": 1}}},
				bson.D{{Key: "$sort", Value: bson.D{{Key: "views", Value: -1}, {Key: "_id", Value: 1}}}},
				bson.M{"$limit": topPages},
			},
		}}},
	}
}

func popularPagesPipeline(limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"type": domain.EventPageView}}},
		{{Key: "$group", Value: bson.M{"_id": "$path", "views": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "views", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
}

func journeyFilter(filter domain.JourneyFilter) bson.M {
	q := bson.M{}
	if filter.SessionID != "" {
		q["session_id"] = filter.SessionID
	}
	if filter.UserID != "" {
		q["metadata.userId"] = filter.UserID
	}
	return q
}
