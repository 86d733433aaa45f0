package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tekvoro/web-platform/internal/core/domain"
)

func TestRangeMatch(t *testing.T) {
	if m := rangeMatch(domain.SummaryFilter{}); len(m) != 0 {
		t.Fatalf("expected empty match for open range, got %v", m)
	}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := rangeMatch(domain.SummaryFilter{StartDate: start})
	ts, ok := m["timestamp"].(bson.M)
	if !ok {
		t.Fatalf("expected timestamp clause, got %v", m)
	}
	if _, ok := ts["$lte"]; ok {
		t.Errorf("unexpected upper bound: %v", ts)
	}
	if got, _ := ts["$gte"].(time.Time); !got.Equal(start) {
		t.Errorf("expected lower bound %v, got %v", start, ts["$gte"])
	}
}

func TestPopularPagesPipeline_OnlyPageViews(t *testing.T) {
	p := popularPagesPipeline(5)
	if len(p) != 4 {
		t.Fatalf("expected 4 stages, got %d", len(p))
	}
	match, ok := p[0][0].Value.(bson.M)
	if p[0][0].Key != "$match" || !ok || match["type"] != domain.EventPageView {
		t.Fatalf("expected page_view match stage, got %v", p[0])
	}
	if p[3][0].Key != "$limit" || p[3][0].Value != 5 {
		t.Fatalf("expected limit stage 5, got %v", p[3])
	}
}

func TestSummaryPipeline_Facets(t *testing.T) {
	p := summaryPipeline(domain.SummaryFilter{}, 3)
	if len(p) != 2 || p[1][0].Key != "$facet" {
		t.Fatalf("unexpected pipeline: %v", p)
	}
	facet := p[1][0].Value.(bson.M)
	for _, name := range []string{"totals", "sessions", "by_type", "top_pages"} {
		if _, ok := facet[name]; !ok {
			t.Errorf("missing facet %q", name)
		}
	}
}

func TestJourneyFilter(t *testing.T) {
	q := journeyFilter(domain.JourneyFilter{SessionID: "s1"})
	if q["session_id"] != "s1" || len(q) != 1 {
		t.Fatalf("unexpected session filter: %v", q)
	}

	q = journeyFilter(domain.JourneyFilter{SessionID: "s1", UserID: "42"})
	if q["metadata.userId"] != "42" || q["session_id"] != "s1" {
		t.Fatalf("expected both clauses, got %v", q)
	}
}

func TestEventDocRoundTrip(t *testing.T) {
	ts := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	in := &domain.TelemetryEvent{ID: "e1", Type: "cta_click", Path: "/", SessionID: "s", Timestamp: ts, Metadata: map[string]any{"buttonText": "Book a demo"}}

	out := toEventDoc(in).toDomain()
	if out.ID != in.ID || out.Type != in.Type || !out.Timestamp.Equal(ts) || out.Metadata["buttonText"] != "Book a demo" {
		t.Fatalf("unexpected conversion: %+v", out)
	}
}

func TestJourneyFilter_MatchesSignedInPageViews(t *testing.T) {
	ev := &domain.TelemetryEvent{
		ID: "e2", Type: domain.EventPageView, Path: "/services", SessionID: "session_2",
		Timestamp: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Metadata:  map[string]any{"userId": "64f"},
	}
	raw, err := bson.Marshal(toEventDoc(ev))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var stored struct {
		Metadata struct {
			UserID string `bson:"userId"`
		} `bson:"metadata"`
	}
	if err := bson.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	q := journeyFilter(domain.JourneyFilter{UserID: "64f"})
	if len(q) != 1 || q["metadata.userId"] != stored.Metadata.UserID {
		t.Fatalf("filter %v does not select stored page view with userId %q", q, stored.Metadata.UserID)
	}
}
