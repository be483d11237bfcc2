package acl

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/jsamuelsen/eda-panel/internal/adapters/clients"
	"github.com/jsamuelsen/eda-panel/internal/domain"
)

// BaseAdapter provides common functionality for ACL adapters.
// Embed this in source-specific adapters.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
}

// NewBaseAdapter creates a new base adapter with the given client and service name.
func NewBaseAdapter(client *clients.Client, serviceName string) BaseAdapter {
	return BaseAdapter{
		client:      client,
		serviceName: serviceName,
	}
}

// Client returns the underlying HTTP client.
func (a *BaseAdapter) Client() *clients.Client {
	return a.client
}

// ServiceName returns the name of the remote source.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// Get performs a GET request. On success the caller must close the response
// body; on failure the error is already a domain error.
func (a *BaseAdapter) Get(ctx context.Context, p, operation string) (*http.Response, error) {
	resp, err := a.client.Get(ctx, p)
	if err != nil {
		return nil, MapHTTPError(nil, err, a.serviceName, operation, p)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer func() { _ = resp.Body.Close() }()

		return nil, MapHTTPError(resp, nil, a.serviceName, operation, p)
	}

	return resp, nil
}

// ValidateRequired checks that a required field is not empty.
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(fieldName, "is required")
	}

	return nil
}

// CleanPath validates a remote path and escapes each segment.
// Paths with ".." segments are forbidden.
func CleanPath(p string) (string, error) {
	if err := ValidateRequired(p, "path"); err != nil {
		return "", err
	}

	segments := strings.Split(strings.Trim(p, "/"), "/")
	escaped := make([]string, 0, len(segments))

	for _, s := range segments {
		switch s {
		case "..":
			return "", domain.NewForbiddenError("import", "path leaves the source root")
		case "", ".":
			continue
		}

		escaped = append(escaped, url.PathEscape(s))
	}

	if len(escaped) == 0 {
		return "", domain.NewValidationErrorWithValue("path", "path names no file", p)
	}

	return "/" + strings.Join(escaped, "/"), nil
}

// contentTypes maps response media types to dataset formats.
var contentTypes = map[string]domain.Format{
	"text/csv":                 domain.FormatCSV,
	"application/csv":          domain.FormatCSV,
	"application/json":         domain.FormatJSON,
	"application/vnd.ms-excel": domain.FormatXLS,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": domain.FormatXLSX,
}

// fileName returns the name the source gave the file, falling back to the
// last segment of the requested path.
func fileName(header http.Header, requested string) string {
	if cd := header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := path.Base(strings.ReplaceAll(params["filename"], `\`, "/")); name != "." && name != "/" && name != "" {
				return name
			}
		}
	}

	name := path.Base(requested)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	return name
}

// resolveFormat picks the format from the extension of name, then from the
// content type. A name without a usable extension gets one appended.
func resolveFormat(name, contentType string) (string, domain.Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	for _, f := range contentTypes {
		if string(f) == ext {
			return name, f, nil
		}
	}

	if media, _, err := mime.ParseMediaType(contentType); err == nil {
		if f, ok := contentTypes[media]; ok {
			return name + "." + string(f), f, nil
		}
	}

	return "", "", &domain.UnsupportedFormatError{
		Extension: ext,
		Allowed:   []string{"csv", "xlsx", "xls", "json"},
	}
}

// readLimited reads body, failing once it grows past limit bytes.
func readLimited(body io.Reader, declared, limit int64) ([]byte, error) {
	tooLarge := domain.NewValidationErrorWithValue("file",
		fmt.Sprintf("file exceeds %s", domain.FormatMemorySize(limit)), declared)

	if declared > limit {
		return nil, tooLarge
	}

	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	if int64(len(data)) > limit {
		return nil, tooLarge
	}

	return data, nil
}
