// Package middleware provides the gin middleware chain of the dataset API.
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/eda-panel/internal/platform/logging"
)

const (
	// HeaderRequestID names one API call. A missing or oversized value is
	// replaced with a fresh UUID.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID follows one business transaction, for example an
	// import that fetches a remote file, so a valid incoming value is kept.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyRequestID is the gin key holding the request ID.
	ContextKeyRequestID = "request_id"

	// ContextKeyCorrelationID is the gin key holding the correlation ID.
	ContextKeyCorrelationID = "correlation_id"
)

// maxIDLength bounds accepted incoming IDs.
const maxIDLength = 128

// requestKey keys the IDs in a request context.
type requestKey struct{ name string }

var (
	requestIDKey     = requestKey{ContextKeyRequestID}
	correlationIDKey = requestKey{ContextKeyCorrelationID}
)

// tracked describes one propagated identifier.
type tracked struct {
	header string
	key    requestKey
	logAs  func(context.Context, string) context.Context
}

func (t tracked) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(t.header))
		if id == "" || len(id) > maxIDLength {
			id = uuid.NewString()
		}

		c.Set(t.key.name, id)
		c.Header(t.header, id)

		ctx := context.WithValue(c.Request.Context(), t.key, id)
		if _, ok := logging.Lookup(ctx); ok {
			ctx = t.logAs(ctx, id)
		}

		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

var (
	requestIDs     = tracked{header: HeaderRequestID, key: requestIDKey, logAs: logging.WithRequestID}
	correlationIDs = tracked{header: HeaderCorrelationID, key: correlationIDKey, logAs: logging.WithCorrelationID}
)

// RequestID echoes X-Request-ID, generating one when absent. The ID lands in
// the gin context, the request context, and a request-scoped logger if one
// is already installed.
func RequestID() gin.HandlerFunc { return requestIDs.handler() }

// CorrelationID does the same for X-Correlation-ID. The remote source client
// forwards it on every fetch.
func CorrelationID() gin.HandlerFunc { return correlationIDs.handler() }

// GetRequestID returns the request ID, or "" if the middleware did not run.
func GetRequestID(c *gin.Context) string { return c.GetString(ContextKeyRequestID) }

// GetCorrelationID returns the correlation ID, or "" if the middleware did not run.
func GetCorrelationID(c *gin.Context) string { return c.GetString(ContextKeyCorrelationID) }

// MustGetRequestID returns the request ID, or "unknown".
func MustGetRequestID(c *gin.Context) string { return orUnknown(GetRequestID(c)) }

// MustGetCorrelationID returns the correlation ID, or "unknown".
func MustGetCorrelationID(c *gin.Context) string { return orUnknown(GetCorrelationID(c)) }

func orUnknown(id string) string {
	if id == "" {
		return "unknown"
	}

	return id
}

// RequestIDFromContext returns the request ID carried by ctx, or "".
func RequestIDFromContext(ctx context.Context) string { return idFrom(ctx, requestIDKey) }

// CorrelationIDFromContext returns the correlation ID carried by ctx, or "".
func CorrelationIDFromContext(ctx context.Context) string { return idFrom(ctx, correlationIDKey) }

// ContextWithRequestID returns ctx carrying a request ID, as background jobs
// and tests need outside the middleware.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithCorrelationID returns ctx carrying a correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func idFrom(ctx context.Context, key requestKey) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(key).(string)

	return id
}
