package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"github.com/tekvoro/web-platform/internal/api/handler"
	"github.com/tekvoro/web-platform/internal/api/middleware"
	"github.com/tekvoro/web-platform/internal/core/domain"
	"github.com/tekvoro/web-platform/internal/core/ports"
)

const trackPrefix = "/api/analytics/"

// trackBodyLimit caps one anonymous track request.
const trackBodyLimit = "64K"

// Deps carries everything NewRouter wires into handlers.
type Deps struct {
	Auth      ports.AuthService
	Analytics ports.AnalyticsService
	Queue     handler.EventQueue
	Readiness []handler.Dependency

	JWTSecret string
	// AllowOrigins is the CORS allow list of the public track endpoint.
	// Empty allows any origin.
	AllowOrigins []string
	// TrackRateLimit is the per-IP request rate of the track endpoint.
	// Zero disables limiting.
	TrackRateLimit float64

	// Registerer receives the HTTP request metrics. Nil means the default
	// Prometheus registry.
	Registerer prometheus.Registerer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "tekvoro_http",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/health")
		},
	}))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		Skipper:      func(c echo.Context) bool { return !strings.HasPrefix(c.Request().URL.Path, trackPrefix) },
		AllowOrigins: allowOrigins(d.AllowOrigins),
		AllowMethods: []string{http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Log)
	analyticsHandler := handler.NewAnalyticsHandler(d.Analytics, d.Queue)
	authMiddleware := middleware.Auth(d.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Public ingestion ---
	trackMW := []echo.MiddlewareFunc{echomiddleware.BodyLimit(trackBodyLimit)}
	if d.TrackRateLimit > 0 {
		trackMW = append(trackMW, echomiddleware.RateLimiter(
			echomiddleware.NewRateLimiterMemoryStore(rate.Limit(d.TrackRateLimit)),
		))
	}
	e.POST(trackPrefix+"track", analyticsHandler.Track, trackMW...)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/register", authHandler.Register, authMiddleware, adminOnly)

	// --- Admin analytics ---
	g := e.Group("/analytics", authMiddleware, adminOnly)
	g.GET("/summary", analyticsHandler.Summary)
	g.GET("/popular-pages", analyticsHandler.PopularPages)
	g.GET("/user-journey", analyticsHandler.Journey)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Readiness...)

	e.GET("/health", healthHandler.Liveness)          // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func allowOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
