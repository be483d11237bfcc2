package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/eda-panel/internal/platform/logging"
)

// probePrefix marks the health and metrics routes, which are never logged.
const probePrefix = "/-/"

// Logging returns middleware that logs each request on start and completion.
// Probe paths and any path in skipPaths are not logged. When the route has
// an :id parameter the dataset ID is attached to the request logger.
func Logging(logger *slog.Logger, skipPaths ...string) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if _, ok := skip[path]; ok || strings.HasPrefix(path, probePrefix) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		if _, ok := logging.Lookup(ctx); !ok {
			ctx = logging.WithContext(ctx, requestLogger(ctx, logger))
		}

		if id := c.Param("id"); id != "" && strings.HasPrefix(c.FullPath(), "/api/v1/datasets/") {
			ctx = logging.WithDatasetID(ctx, id)
		}

		c.Request = c.Request.WithContext(ctx)
		ctxLogger := logging.FromContext(ctx)

		fullPath := path
		if c.Request.URL.RawQuery != "" {
			fullPath += "?" + c.Request.URL.RawQuery
		}

		start := time.Now()

		ctxLogger.DebugContext(ctx, "request started",
			slog.String("method", c.Request.Method),
			slog.String("path", fullPath),
			slog.String("client_ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
		)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		} else if status >= http.StatusBadRequest {
			level = slog.LevelWarn
		}

		ctxLogger.Log(ctx, level, "request completed",
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()),
			slog.String("path", fullPath),
			slog.Int("status", status),
			slog.Duration("latency", latency),
			slog.Int64("latency_ms", latency.Milliseconds()),
			slog.Int("bytes", c.Writer.Size()),
		)
	}
}

func requestLogger(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		logger = logger.With(slog.String("request_id", id))
	}

	if id := CorrelationIDFromContext(ctx); id != "" {
		logger = logger.With(slog.String("correlation_id", id))
	}

	return logger
}
