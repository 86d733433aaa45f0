package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tekvoro/web-platform/internal/api/metrics"
	"github.com/tekvoro/web-platform/internal/core/domain"
	"github.com/tekvoro/web-platform/internal/core/ports"
)

// EventQueue is the interface the handler uses to hand events to the workers.
type EventQueue interface {
	Enqueue(event ports.TrackEventInput) error
}

// AnalyticsHandler serves event ingestion and the admin read views.
type AnalyticsHandler struct {
	service ports.AnalyticsService
	queue   EventQueue
}

func NewAnalyticsHandler(service ports.AnalyticsService, queue EventQueue) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, queue: queue}
}

// Track handles POST /api/analytics/track. The event is queued and 202 is
// returned before it is stored.
//
// @Summary      Ingest a telemetry event
// @Tags         analytics
// @Accept       json
// @Produce      json
// @Param        body  body      trackEventRequest  true  "Telemetry event"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/analytics/track [post]
func (h *AnalyticsHandler) Track(c echo.Context) error {
	var req trackEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	in := ports.TrackEventInput{
		Type:      req.Type,
		Path:      req.Path,
		Referrer:  req.Referrer,
		UserAgent: req.UserAgent,
		SessionID: req.SessionID,
		Metadata:  req.Metadata,
		ClientIP:  c.RealIP(),
	}
	if in.UserAgent == "" {
		in.UserAgent = c.Request().UserAgent()
	}
	if req.Timestamp != nil {
		in.Timestamp = *req.Timestamp
	}

	if err := h.queue.Enqueue(in); err != nil {
		return err
	}
	metrics.EventsReceivedTotal.WithLabelValues(req.Type).Inc()
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "event accepted"})
}

// Summary handles GET /analytics/summary.
//
// @Summary      Aggregate event summary
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Param        startDate  query     string  false  "RFC 3339 timestamp or YYYY-MM-DD"
// @Param        endDate    query     string  false  "RFC 3339 timestamp or YYYY-MM-DD (inclusive day)"
// @Success      200        {object}  domain.Summary
// @Failure      400        {object}  errorResponse
// @Failure      401        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Router       /analytics/summary [get]
func (h *AnalyticsHandler) Summary(c echo.Context) error {
	start, err := parseDateParam(c.QueryParam("startDate"), false)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid startDate")
	}
	end, err := parseDateParam(c.QueryParam("endDate"), true)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid endDate")
	}

	summary, err := h.service.Summary(c.Request().Context(), domain.SummaryFilter{StartDate: start, EndDate: end})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// PopularPages handles GET /analytics/popular-pages.
//
// @Summary      Most viewed pages
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Number of pages (default 10, max 100)"
// @Success      200    {array}   domain.PageCount
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Router       /analytics/popular-pages [get]
func (h *AnalyticsHandler) PopularPages(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}

	pages, err := h.service.PopularPages(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pages)
}

// Journey handles GET /analytics/user-journey.
//
// @Summary      Events of one visit or one user
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Param        sessionId  query     string  false  "Session identifier"
// @Param        userId     query     string  false  "User identifier"
// @Success      200        {array}   domain.TelemetryEvent
// @Failure      400        {object}  errorResponse
// @Failure      401        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Router       /analytics/user-journey [get]
func (h *AnalyticsHandler) Journey(c echo.Context) error {
	events, err := h.service.Journey(c.Request().Context(), domain.JourneyFilter{
		SessionID: c.QueryParam("sessionId"),
		UserID:    c.QueryParam("userId"),
	})
	if err != nil {
		return err
	}
	if events == nil {
		events = []domain.TelemetryEvent{}
	}
	return c.JSON(http.StatusOK, events)
}

// parseDateParam accepts RFC 3339 or a bare date. A bare end date covers the
// whole day.
func parseDateParam(raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
