package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tekvoro/web-platform/internal/core/domain"
	"github.com/tekvoro/web-platform/internal/core/ports"
)

type recordingService struct {
	mu       sync.Mutex
	recorded []ports.TrackEventInput
	err      error
}

func (s *recordingService) Record(_ context.Context, in ports.TrackEventInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded = append(s.recorded, in)
	return s.err
}

func (s *recordingService) Summary(context.Context, domain.SummaryFilter) (*domain.Summary, error) {
	return nil, nil
}

func (s *recordingService) PopularPages(context.Context, int) ([]domain.PageCount, error) {
	return nil, nil
}

func (s *recordingService) Journey(context.Context, domain.JourneyFilter) ([]domain.TelemetryEvent, error) {
	return nil, nil
}

func (s *recordingService) snapshot() []ports.TrackEventInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.TrackEventInput(nil), s.recorded...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestDispatcher_PreservesPerSessionOrder(t *testing.T) {
	svc := &recordingService{}
	d := NewDispatcher(4, svc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	paths := []string{"/", "/services", "/industries", "/insights", "/contact"}
	for _, p := range paths {
		if err := d.Enqueue(ports.TrackEventInput{Type: "page_view", Path: p, SessionID: "session_a"}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	waitFor(t, func() bool { return len(svc.snapshot()) == len(paths) })
	for i, ev := range svc.snapshot() {
		if ev.Path != paths[i] {
			t.Fatalf("event %d: expected %s, got %s", i, paths[i], ev.Path)
		}
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(0, &recordingService{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	first := d.shardIndex("session_123")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("session_123"); got != first {
			t.Fatalf("shard changed: %d != %d", got, first)
		}
	}
}

func TestDispatcher_EnqueueDoesNotBlockWhenFull(t *testing.T) {
	svc := &recordingService{}
	d := NewDispatcher(1, svc, zerolog.Nop())
	// Workers not started: the single buffer fills up.

	var err error
	for i := 0; i <= channelBuffer; i++ {
		err = d.Enqueue(ports.TrackEventInput{Type: "page_view", SessionID: "s"})
	}
	if !errors.Is(err, domain.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestDispatcher_FailureDoesNotStopWorker(t *testing.T) {
	svc := &recordingService{err: errors.New("mongo unavailable")}
	d := NewDispatcher(1, svc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	_ = d.Enqueue(ports.TrackEventInput{Type: "page_view", SessionID: "s"})
	_ = d.Enqueue(ports.TrackEventInput{Type: "cta_click", SessionID: "s"})

	waitFor(t, func() bool { return len(svc.snapshot()) == 2 })
}

func TestDispatcher_StopDrainsQueuedEvents(t *testing.T) {
	svc := &recordingService{}
	d := NewDispatcher(2, svc, zerolog.Nop())

	for i := 0; i < 20; i++ {
		if err := d.Enqueue(ports.TrackEventInput{Type: "page_view", SessionID: string(rune('a' + i%5))}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	d.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := len(svc.snapshot()); got != 20 {
		t.Fatalf("expected 20 stored events after Stop, got %d", got)
	}
}
