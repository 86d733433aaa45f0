package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tekvoro/web-platform/internal/api/metrics"
	"github.com/tekvoro/web-platform/internal/core/domain"
	"github.com/tekvoro/web-platform/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes telemetry events to a fixed set of workers using
// consistent hashing on the session id, so events of one visit are stored in
// the order they were accepted.
type Dispatcher struct {
	workers []chan ports.TrackEventInput
	service ports.AnalyticsService
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.AnalyticsService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.TrackEventInput, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.TrackEventInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.runWorker(ctx, i, ch)
		}()
	}
}

// Stop closes every shard and waits until the workers have stored what was
// already queued, or until ctx is done. Enqueue must not be called after Stop.
func (d *Dispatcher) Stop(ctx context.Context) error {
	for _, ch := range d.workers {
		close(ch)
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue hands an event to the worker responsible for its session. It never
// blocks: when that worker's buffer is full the event is dropped and
// domain.ErrQueueFull is returned.
func (d *Dispatcher) Enqueue(event ports.TrackEventInput) error {
	idx := d.shardIndex(event.SessionID)
	select {
	case d.workers[idx] <- event:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	default:
		metrics.EventsErrorsTotal.WithLabelValues("queue_full").Inc()
		return domain.ErrQueueFull
	}
}

// shardIndex maps a session id deterministically to a worker index.
func (d *Dispatcher) shardIndex(sessionID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.TrackEventInput) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.EventsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.process(ctx, id, event)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, id int, event ports.TrackEventInput) {
	start := time.Now()
	err := d.service.Record(ctx, event)
	if err != nil {
		reason := "store_failed"
		if errors.Is(err, domain.ErrInvalidEvent) {
			reason = "invalid_event"
		}
		metrics.EventsErrorsTotal.WithLabelValues(reason).Inc()
		metrics.EventProcessingDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		d.log.Error().Err(err).
			Str("session_id", event.SessionID).
			Str("type", event.Type).
			Int("worker_id", id).
			Msg("event processing failed")
		return
	}
	metrics.EventsProcessedTotal.WithLabelValues(event.Type).Inc()
	metrics.EventProcessingDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
}
