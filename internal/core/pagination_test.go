// AngelaMos | 2026
// pagination_test.go

package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	ids := []string{
		uuid.New().String(),
		uuid.New().String(),
		"simple-id",
		"00000000-0000-0000-0000-000000000000",
	}

	for _, id := range ids {
		decoded, err := DecodeCursor(EncodeCursor(id))
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}
}

func TestDecodeCursorMalformed(t *testing.T) {
	for _, cursor := range []string{
		"not-base64!!!",
		"%%%",
		"a",
		EncodeCursor(""),
	} {
		_, err := DecodeCursor(cursor)
		require.Error(t, err, "cursor %q", cursor)
		assert.True(t, errors.Is(err, ErrInvalidInput))
	}
}

func TestPageQueryNormalize(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: DefaultPageSize},
		{in: -5, want: DefaultPageSize},
		{in: 1, want: 1},
		{in: 50, want: 50},
		{in: MaxPageSize, want: MaxPageSize},
		{in: MaxPageSize + 1, want: MaxPageSize},
		{in: 100000, want: MaxPageSize},
	}

	for _, tt := range tests {
		q := PageQuery{Limit: tt.in}
		q.Normalize()
		assert.Equal(t, tt.want, q.Limit)
	}
}

type row struct{ ID string }

func TestNewPage(t *testing.T) {
	id := func(r row) string { return r.ID }

	t.Run("probe row trimmed", func(t *testing.T) {
		items := []row{{"3"}, {"2"}, {"1"}}
		page := NewPage(items, 2, id)

		assert.Len(t, page.Data, 2)
		assert.True(t, page.PageInfo.HasNextPage)
		require.NotNil(t, page.PageInfo.StartCursor)
		require.NotNil(t, page.PageInfo.EndCursor)
		assert.Equal(t, EncodeCursor("3"), *page.PageInfo.StartCursor)
		assert.Equal(t, EncodeCursor("2"), *page.PageInfo.EndCursor)
	})

	t.Run("final page", func(t *testing.T) {
		page := NewPage([]row{{"1"}}, 2, id)
		assert.Len(t, page.Data, 1)
		assert.False(t, page.PageInfo.HasNextPage)
	})

	t.Run("empty page has nil cursors", func(t *testing.T) {
		page := NewPage(nil, 2, id)
		assert.Empty(t, page.Data)
		assert.False(t, page.PageInfo.HasNextPage)
		assert.Nil(t, page.PageInfo.StartCursor)
		assert.Nil(t, page.PageInfo.EndCursor)
	})
}

// TestPaginationCompleteness walks a fixed dataset page by page following
// EndCursor and checks every row is seen exactly once in order.
func TestPaginationCompleteness(t *testing.T) {
	const total = 47
	dataset := make([]row, 0, total)
	for i := total; i >= 1; i-- {
		dataset = append(dataset, row{ID: fmt.Sprintf("id-%03d", i)})
	}

	// Mimics a repository scan: rows after the cursor under descending order.
	fetch := func(cursorID string, limit int) []row {
		out := make([]row, 0, limit+1)
		for _, r := range dataset {
			if cursorID != "" && r.ID >= cursorID {
				continue
			}
			out = append(out, r)
			if len(out) == limit+1 {
				break
			}
		}
		return out
	}

	var seen []string
	cursor := ""
	for {
		q := PageQuery{Cursor: cursor, Limit: 10}
		q.Normalize()

		cursorID, err := q.CursorID()
		require.NoError(t, err)

		page := NewPage(fetch(cursorID, q.Limit), q.Limit, func(r row) string {
			return r.ID
		})

		for _, r := range page.Data {
			seen = append(seen, r.ID)
		}

		if !page.PageInfo.HasNextPage {
			break
		}
		cursor = *page.PageInfo.EndCursor
	}

	require.Len(t, seen, total)
	for i, id := range seen {
		assert.Equal(t, fmt.Sprintf("id-%03d", total-i), id)
	}
}
