package telemetry

import (
	"strings"
	"sync"
	"time"

	"github.com/tekvoro/web-platform/internal/core/domain"
)

const minDwell = 10 * time.Second

var scrollThresholds = [...]int{25, 50, 75, 100}

// Marker attributes that make a click worth reporting.
const (
	AttrCTA     = "data-track-cta"
	AttrService = "data-service-id"
	AttrBlog    = "data-blog-id"
)

// Element is the part of a clicked node the click tracker reads.
type Element struct {
	Attrs  map[string]string
	Text   string
	Parent *Element
}

func (e *Element) attr(name string) (string, bool) {
	if e == nil || e.Attrs == nil {
		return "", false
	}
	v, ok := e.Attrs[name]
	return v, ok
}

// Tracker holds the passive interaction state of one page lifetime.
type Tracker struct {
	c     *Client
	start time.Time

	mu       sync.Mutex
	maxDepth int
	unloaded bool
}

// Initialize records the initial page view and returns the passive tracker.
// Subsequent calls return the same tracker and emit nothing.
func (c *Client) Initialize(path string) *Tracker {
	c.initOnce.Do(func() {
		c.tracker = &Tracker{c: c, start: c.now()}
		c.TrackPageView(path, "")
	})
	return c.tracker
}

// Navigate records a page view for a history navigation.
func (t *Tracker) Navigate(path string) {
	t.c.TrackPageView(path, "")
}

// Click reports a click on el when el or one of its ancestors carries a
// marker attribute. The nearest marked node wins.
func (t *Tracker) Click(el *Element) {
	for n := el; n != nil; n = n.Parent {
		text := strings.TrimSpace(n.Text)
		if _, ok := n.attr(AttrCTA); ok {
			t.c.TrackEvent(domain.EventCTAClick, "", map[string]any{
				"buttonText": text,
				"location":   t.c.currentPath(),
			})
			return
		}
		if id, ok := n.attr(AttrService); ok {
			t.c.TrackEvent(domain.EventServiceClick, "", map[string]any{
				"serviceId": id,
				"text":      text,
			})
			return
		}
		if id, ok := n.attr(AttrBlog); ok {
			t.c.TrackEvent(domain.EventBlogClick, "", map[string]any{
				"blogId": id,
				"text":   text,
			})
			return
		}
	}
}

// Scroll takes a scroll position in percent and emits scroll_depth for every
// threshold reached for the first time, lowest first.
func (t *Tracker) Scroll(percent float64) {
	t.mu.Lock()
	var crossed []int
	for _, th := range scrollThresholds {
		if th > t.maxDepth && percent >= float64(th) {
			crossed = append(crossed, th)
			t.maxDepth = th
		}
	}
	t.mu.Unlock()

	for _, th := range crossed {
		t.c.TrackEvent(domain.EventScrollDepth, "", map[string]any{"depth": th})
	}
}

// ScrollPercent converts a scroll offset into the percentage Scroll expects.
// A document that fits the viewport counts as fully read.
func ScrollPercent(top, viewport, document float64) float64 {
	scrollable := document - viewport
	if scrollable <= 0 {
		return 100
	}
	p := top / scrollable * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// Unload reports the dwell time once, and only when it exceeds 10s.
func (t *Tracker) Unload() {
	t.mu.Lock()
	if t.unloaded {
		t.mu.Unlock()
		return
	}
	t.unloaded = true
	t.mu.Unlock()

	elapsed := t.c.now().Sub(t.start)
	if elapsed <= minDwell {
		return
	}
	t.c.TrackEvent(domain.EventTimeOnPage, "", map[string]any{
		"seconds": int(elapsed / time.Second),
	})
}
