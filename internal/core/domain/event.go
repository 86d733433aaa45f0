package domain

import (
	"errors"
	"time"
)

// Event types reported by the telemetry client.
const (
	EventPageView          = "page_view"
	EventContactSubmission = "contact_submission"
	EventSubscription      = "subscription"
	EventDemoRequest       = "demo_request"
	EventCampaignOpen      = "campaign_open"
	EventCampaignClick     = "campaign_click"
	EventCTAClick          = "cta_click"
	EventServiceClick      = "service_click"
	EventBlogClick         = "blog_click"
	EventScrollDepth       = "scroll_depth"
	EventTimeOnPage        = "time_on_page"
	EventLogin             = "login"
	EventLogout            = "logout"
)

var (
	ErrInvalidEvent      = errors.New("invalid telemetry event")
	ErrInvalidRange      = errors.New("start date is after end date")
	ErrMissingJourneyKey = errors.New("session id or user id is required")
	ErrQueueFull         = errors.New("event queue is full")
)

// TelemetryEvent is a single usage record. Events are append-only; Timestamp,
// not arrival order, defines their ordering.
type TelemetryEvent struct {
	ID         string         `json:"id,omitempty"`
	Type       string         `json:"type"`
	Path       string         `json:"path"`
	Referrer   string         `json:"referrer"`
	UserAgent  string         `json:"userAgent"`
	SessionID  string         `json:"sessionId"`
	Timestamp  time.Time      `json:"timestamp"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	ClientIP   string         `json:"clientIp,omitempty"`
	ReceivedAt time.Time      `json:"receivedAt,omitzero"`
}
