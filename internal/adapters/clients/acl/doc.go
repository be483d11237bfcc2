// Package acl translates remote dataset sources into loader input.
//
// The adapters here form an anti-corruption layer: remote response headers,
// status codes, and transport failures never leave this package. Callers get
// a [domain.RawFile] or a domain error.
//
// # Translation
//
// [DatasetSource] turns one remote file into a [domain.RawFile]:
//
//   - the file name comes from Content-Disposition, then from the path
//   - the format comes from the extension, then from Content-Type
//   - the body is capped at the configured maximum file size
//
// # Error Handling Strategy
//
//   - 404 Not Found → [domain.ErrNotFound]
//   - 5xx, 429, and transport errors → [domain.ErrUnavailable]
//   - other 4xx → [domain.ErrValidation]
//   - paths that climb out of the source root → [domain.ErrForbidden]
//
// Client-level errors ([clients.ErrCircuitOpen], [clients.ErrMaxRetriesExceeded])
// are also translated to [domain.ErrUnavailable].
package acl
