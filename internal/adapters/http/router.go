package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/eda-panel/internal/adapters/http/handlers"
	"github.com/jsamuelsen/eda-panel/internal/adapters/http/middleware"
	"github.com/jsamuelsen/eda-panel/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	Logger *slog.Logger

	// ServiceName labels the telemetry spans and metrics.
	ServiceName string

	HealthHandler  *handlers.HealthHandler
	DatasetHandler *handlers.DatasetHandler

	// Timeout is the API request deadline. Uploads and reports are exempt.
	Timeout time.Duration

	// MaxUploadSize caps the body of upload requests.
	MaxUploadSize int64
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - propagate the caller's transaction ID
//  4. OpenTelemetry - tracing and metrics
//  5. Logging - request logging (skips probe endpoints)
//  6. Timeout - request deadline on /api/v1
//
// Route groups:
//   - /-/ (internal): probes, build info, and metrics
//   - /api/v1/: the dataset API
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.Tracing(cfg.ServiceName),
		telemetry.Middleware(),
		middleware.Logging(cfg.Logger),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.Mount(engine)
	}

	apiV1 := engine.Group("/api/v1")
	apiV1.Use(apiTimeout(cfg.Timeout))

	if cfg.MaxUploadSize > 0 {
		apiV1.Use(middleware.UploadLimit(cfg.MaxUploadSize))
	}

	if cfg.DatasetHandler != nil {
		cfg.DatasetHandler.RegisterRoutes(apiV1)
	}
}

// apiTimeout applies the deadline to every API call except uploads and
// reports, whose cost grows with the dataset.
func apiTimeout(timeout time.Duration) gin.HandlerFunc {
	deadline := middleware.Timeout(timeout)

	return func(c *gin.Context) {
		if exemptFromTimeout(c) {
			c.Next()
			return
		}

		deadline(c)
	}
}

func exemptFromTimeout(c *gin.Context) bool {
	switch c.FullPath() {
	case "/api/v1/datasets":
		return c.Request.Method == http.MethodPost
	case "/api/v1/datasets/:id/report":
		return true
	default:
		return false
	}
}

// SetupMinimalRouter sets up a router with only the probe endpoints.
func SetupMinimalRouter(engine *gin.Engine, logger *slog.Logger, healthHandler *handlers.HealthHandler) {
	engine.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
	)

	if healthHandler != nil {
		healthHandler.Mount(engine)
	}
}

// NewDefaultRouterConfig creates a RouterConfig with the default timeout.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	serviceName string,
	healthHandler *handlers.HealthHandler,
	datasetHandler *handlers.DatasetHandler,
) RouterConfig {
	return RouterConfig{
		Logger:         logger,
		ServiceName:    serviceName,
		HealthHandler:  healthHandler,
		DatasetHandler: datasetHandler,
		Timeout:        DefaultRequestTimeout,
	}
}
