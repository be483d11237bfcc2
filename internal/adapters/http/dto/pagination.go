package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// Page sizes of the dataset listing.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var (
	// ErrInvalidCursor is returned when a cursor is not one this API issued.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrNoCursor marks a request for the first page.
	ErrNoCursor = errors.New("no cursor provided")
)

// PageQuery is the paging part of a listing query.
type PageQuery struct {
	// Cursor is the nextCursor of the previous page.
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit"  validate:"omitempty,gte=1,lte=100"`
}

// Size returns the page size, clamped to [1, MaxPageSize].
func (q PageQuery) Size() int {
	switch {
	case q.Limit <= 0:
		return DefaultPageSize
	case q.Limit > MaxPageSize:
		return MaxPageSize
	default:
		return q.Limit
	}
}

// Position decodes the cursor. It returns ErrNoCursor when none was sent.
func (q PageQuery) Position() (Cursor, error) {
	return ParseCursor(q.Cursor)
}

// Cursor is the position of the last dataset of a page. Listings are
// ordered by load time, then ID, so the pair is unique.
type Cursor struct {
	LoadedAt time.Time `json:"t"`
	ID       string    `json:"id"`
}

// Encode returns the opaque form sent to clients.
func (c Cursor) Encode() string {
	raw, err := json.Marshal(c)
	if err != nil {
		return ""
	}

	return base64.RawURLEncoding.EncodeToString(raw)
}

// Follows reports whether an item loaded at loaded with the given ID sorts
// after the cursor.
func (c Cursor) Follows(loaded time.Time, id string) bool {
	loaded, at := loaded.UTC(), c.LoadedAt.UTC()
	if !loaded.Equal(at) {
		return loaded.After(at)
	}

	return id > c.ID
}

// ParseCursor decodes a cursor produced by Encode.
func ParseCursor(s string) (Cursor, error) {
	var c Cursor

	if s == "" {
		return c, ErrNoCursor
	}

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return c, ErrInvalidCursor
	}

	if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" {
		return Cursor{}, ErrInvalidCursor
	}

	return c, nil
}

// Page is one page of a listing.
type Page[T any] struct {
	Items []T `json:"items"`

	// NextCursor is empty on the last page.
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// NewPage trims items to size. Callers pass one item more than size so the
// last page can be told apart; mark builds the cursor of the final kept item.
func NewPage[T any](items []T, size int, mark func(T) Cursor) Page[T] {
	page := Page[T]{Items: items}
	if page.Items == nil {
		page.Items = []T{}
	}

	if len(page.Items) <= size {
		return page
	}

	page.Items = page.Items[:size]
	page.HasMore = true

	if size > 0 && mark != nil {
		page.NextCursor = mark(page.Items[size-1]).Encode()
	}

	return page
}
