package domain

import "time"

// PageCount is one row of the popular pages ranking.
type PageCount struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// Summary aggregates collected events over an optional date range.
type Summary struct {
	TotalEvents    int64            `json:"totalEvents"`
	PageViews      int64            `json:"pageViews"`
	UniqueSessions int64            `json:"uniqueSessions"`
	UniqueVisitors int64            `json:"uniqueVisitors"`
	EventsByType   map[string]int64 `json:"eventsByType"`
	TopPages       []PageCount      `json:"topPages"`
	StartDate      *time.Time       `json:"startDate,omitempty"`
	EndDate        *time.Time       `json:"endDate,omitempty"`
}

// SummaryFilter bounds a summary query. Zero values mean unbounded.
type SummaryFilter struct {
	StartDate time.Time
	EndDate   time.Time
}

// JourneyFilter selects the events of one visit or one user.
// At least one field must be set.
type JourneyFilter struct {
	SessionID string
	UserID    string
}
