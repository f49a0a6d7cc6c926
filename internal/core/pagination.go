// AngelaMos | 2026
// pagination.go

package core

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// EncodeCursor wraps the last-seen row id in an opaque cursor. Rows are
// always ordered by (created_at DESC, id DESC), so the id alone is enough
// to resume a forward scan.
func EncodeCursor(id string) string {
	return base64.StdEncoding.EncodeToString([]byte(id))
}

func DecodeCursor(cursor string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("decode cursor: %w", ErrInvalidInput)
	}

	if len(raw) == 0 {
		return "", fmt.Errorf("decode cursor: empty cursor: %w", ErrInvalidInput)
	}

	return string(raw), nil
}

type PageQuery struct {
	Cursor string
	Limit  int
}

// Normalize clamps the limit into [1, MaxPageSize]. Out-of-range values are
// silently corrected, never rejected.
func (q *PageQuery) Normalize() {
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
}

// CursorID decodes the query cursor, returning "" when no cursor was supplied.
func (q *PageQuery) CursorID() (string, error) {
	if q.Cursor == "" {
		return "", nil
	}
	return DecodeCursor(q.Cursor)
}

// ParsePageQuery reads cursor and limit from the request query string and
// normalizes the limit. A non-numeric limit falls back to the default.
func ParsePageQuery(r *http.Request) PageQuery {
	q := PageQuery{Cursor: r.URL.Query().Get("cursor")}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			q.Limit = n
		}
	}

	q.Normalize()
	return q
}

type PageInfo struct {
	HasNextPage bool    `json:"has_next_page"`
	StartCursor *string `json:"start_cursor"`
	EndCursor   *string `json:"end_cursor"`
}

type Page[T any] struct {
	Data     []T      `json:"data"`
	PageInfo PageInfo `json:"page_info"`
}

// NewPage builds a page from a limit+1 query result. The probe row beyond
// the limit only signals hasNextPage and is trimmed before returning.
func NewPage[T any](items []T, limit int, id func(T) string) Page[T] {
	hasNext := len(items) > limit
	if hasNext {
		items = items[:limit]
	}

	page := Page[T]{
		Data:     items,
		PageInfo: PageInfo{HasNextPage: hasNext},
	}

	if len(items) > 0 {
		start := EncodeCursor(id(items[0]))
		end := EncodeCursor(id(items[len(items)-1]))
		page.PageInfo.StartCursor = &start
		page.PageInfo.EndCursor = &end
	}

	return page
}
