package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tekvoro/web-platform/internal/core/domain"
)

// SummaryQuery bounds GetAnalyticsSummary. Zero times are omitted.
type SummaryQuery struct {
	StartDate time.Time
	EndDate   time.Time
}

// JourneyQuery selects a visit or a user. One field is enough.
type JourneyQuery struct {
	SessionID string
	UserID    string
}

// GetAnalyticsSummary returns nil when the collector cannot answer.
func (c *Client) GetAnalyticsSummary(ctx context.Context, q SummaryQuery) *domain.Summary {
	params := url.Values{}
	if !q.StartDate.IsZero() {
		params.Set("startDate", q.StartDate.UTC().Format(time.RFC3339))
	}
	if !q.EndDate.IsZero() {
		params.Set("endDate", q.EndDate.UTC().Format(time.RFC3339))
	}
	var out domain.Summary
	if !c.getJSON(ctx, "/analytics/summary", params, &out) {
		return nil
	}
	return &out
}

// GetPopularPages returns nil when the collector cannot answer and an empty
// slice when it has nothing to rank. A limit <= 0 uses the collector default.
func (c *Client) GetPopularPages(ctx context.Context, limit int) []domain.PageCount {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out []domain.PageCount
	if !c.getJSON(ctx, "/analytics/popular-pages", params, &out) {
		return nil
	}
	if out == nil {
		out = []domain.PageCount{}
	}
	return out
}

// GetUserJourney returns the selected events ordered by timestamp, or nil
// when the collector cannot answer.
func (c *Client) GetUserJourney(ctx context.Context, q JourneyQuery) []domain.TelemetryEvent {
	params := url.Values{}
	if q.SessionID != "" {
		params.Set("sessionId", q.SessionID)
	}
	if q.UserID != "" {
		params.Set("userId", q.UserID)
	}
	var out []domain.TelemetryEvent
	if !c.getJSON(ctx, "/analytics/user-journey", params, &out) {
		return nil
	}
	if out == nil {
		out = []domain.TelemetryEvent{}
	}
	return out
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dst any) bool {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	log := c.log.With().Str("path", path).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		log.Warn().Err(err).Msg("analytics query failed")
		return false
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("analytics query failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Err(fmt.Errorf("collector responded %d", resp.StatusCode)).Msg("analytics query failed")
		return false
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		log.Warn().Err(err).Msg("analytics query failed")
		return false
	}
	return true
}
