package dto

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/eda-panel/internal/domain"
	"github.com/jsamuelsen/eda-panel/internal/platform/logging"
)

// ContextKeyTraceID is the gin key that overrides the trace ID of error responses.
const ContextKeyTraceID = "trace_id"

// GetTraceID returns the trace ID to report for c. It prefers an explicit
// gin value, then the active span, then the X-Request-ID header.
func GetTraceID(c *gin.Context) string {
	if v, ok := c.Get(ContextKeyTraceID); ok {
		s, _ := v.(string)
		return s
	}

	if c.Request == nil {
		return ""
	}

	if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return c.Request.Header.Get("X-Request-ID")
}

// MapDomainError maps a domain error to a status code and error envelope.
// Unknown errors become a 500 with a generic message.
func MapDomainError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	resp := domainEnvelope(err)

	return resp.Status(), resp
}

func domainEnvelope(err error) *ErrorResponse {
	var (
		unsupported *domain.UnsupportedFormatError
		invalid     *domain.ValidationError
		unavailable *domain.UnavailableError
	)

	switch {
	case domain.IsNotFound(err):
		return NewErrorResponse(ErrorCodeNotFound, err.Error())
	case domain.IsConflict(err):
		return NewErrorResponse(ErrorCodeConflict, err.Error())
	case errors.As(err, &unsupported):
		return NewErrorResponse(ErrorCodeUnsupportedFormat, err.Error()).With("extension", unsupported.Extension)
	case domain.IsValidation(err):
		resp := NewErrorResponse(ErrorCodeValidation, err.Error())
		if errors.As(err, &invalid) && invalid.Field != "" {
			resp.With(invalid.Field, invalid.Message)

			if invalid.Value != nil {
				resp.With("value", fmt.Sprint(invalid.Value))
			}
		}

		return resp
	case domain.IsForbidden(err):
		return NewErrorResponse(ErrorCodeForbidden, err.Error())
	case domain.IsUnavailable(err):
		resp := NewErrorResponse(ErrorCodeUnavailable, "a dependency is temporarily unavailable")
		if errors.As(err, &unavailable) {
			resp.With("service", unavailable.Service)
		}

		return resp
	case errors.Is(err, context.DeadlineExceeded):
		return NewErrorResponse(ErrorCodeTimeout, "request timed out")
	default:
		return NewErrorResponse(ErrorCodeInternal, "an internal error occurred")
	}
}

// HandleError writes the envelope for err and logs server-side failures.
func HandleError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	resp.TraceID = GetTraceID(c)

	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "request failed",
			"error", err.Error(),
			"status", status,
			"trace_id", resp.TraceID,
		)
	}

	c.JSON(status, resp)
}

// AbortWithError stops the handler chain and writes the envelope for err.
func AbortWithError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	resp.TraceID = GetTraceID(c)

	c.AbortWithStatusJSON(status, resp)
}

// RespondWithCode writes an envelope for an adapter-level failure.
func RespondWithCode(c *gin.Context, code, message string) {
	resp := NewErrorResponse(code, message).WithTraceID(GetTraceID(c))
	c.JSON(resp.Status(), resp)
}

// RespondWithBindingError writes a 400 for a request that failed binding
// or struct validation.
func RespondWithBindingError(c *gin.Context, err error) {
	if fields := FieldErrors(err); len(fields) > 0 {
		c.JSON(http.StatusBadRequest, NewErrorResponse(ErrorCodeValidation, "request validation failed").
			WithDetails(fields).
			WithTraceID(GetTraceID(c)))

		return
	}

	RespondWithCode(c, ErrorCodeBadRequest, err.Error())
}
