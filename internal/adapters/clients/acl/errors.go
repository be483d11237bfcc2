package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/eda-panel/internal/adapters/clients"
	"github.com/jsamuelsen/eda-panel/internal/domain"
)

// maxErrorBody bounds how much of an error body is read.
const maxErrorBody = 64 << 10

// ErrorResponse is the JSON error body of a file server. Both the nested
// {"error":{"code","message"}} and the flat {"code","message"} shapes decode
// into it.
type ErrorResponse struct {
	Code    string
	Message string
}

func (e *ErrorResponse) UnmarshalJSON(data []byte) error {
	type fields struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}

	var body struct {
		fields
		Error fields `json:"error"`
	}

	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}

	e.Code = firstNonEmpty(body.Error.Code, body.Code)
	e.Message = firstNonEmpty(body.Error.Message, body.Message)

	return nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}

	return b
}

// ParseErrorResponse decodes an error body. It returns nil when body is not
// a JSON error that says anything.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var e ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&e); err != nil {
		return nil
	}

	if e.Code == "" && e.Message == "" {
		return nil
	}

	return &e
}

// MapHTTPError turns the outcome of a source call into a domain error, or
// nil for a 2xx answer. clientErr wins over resp. The path names the file in
// a NotFoundError.
func MapHTTPError(resp *http.Response, clientErr error, source, operation, path string) error {
	switch {
	case clientErr != nil:
		return unreachable(clientErr, source, operation)
	case resp == nil:
		return domain.NewUnavailableError(source, "no response received")
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		return nil
	}

	message := statusMessage(resp.StatusCode, operation)
	if resp.Body != nil {
		if body := ParseErrorResponse(resp.Body); body != nil && body.Message != "" {
			message = body.Message
		}
	}

	switch code := resp.StatusCode; {
	case code == http.StatusNotFound:
		return domain.NewNotFoundError("file", path)
	case code == http.StatusTooManyRequests:
		return domain.NewUnavailableError(source, "rate limit exceeded")
	case code >= http.StatusInternalServerError:
		return domain.NewUnavailableError(source, message)
	default:
		// Other 4xx answers, auth failures included, mean the path as given
		// cannot be imported.
		return domain.NewValidationErrorWithValue("path", message, path)
	}
}

// unreachable reports a source that gave no usable answer.
func unreachable(err error, source, operation string) error {
	var reason string

	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		reason = "circuit breaker open during " + operation
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		reason = "max retries exceeded during " + operation
	default:
		reason = fmt.Sprintf("%s failed: %v", operation, err)
	}

	return domain.NewUnavailableError(source, reason)
}

func statusMessage(status int, operation string) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusUnauthorized:
		return "authentication required"
	case http.StatusForbidden:
		return "access denied"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	default:
		return fmt.Sprintf("%s failed with status %d", operation, status)
	}
}
