package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2026-01-02T03:04:05Z"})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)

	_, err = DecodeCursor("not base64!")
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestPage(t *testing.T) {
	rows := []int{1, 2, 3}
	extract := func(v int) Cursor { return Cursor{ID: "x", CreatedAt: "t"} }

	out, info := Page(rows, 5, extract)
	assert.Equal(t, rows, out)
	assert.False(t, info.HasMore)

	out, info = Page(rows, 2, extract)
	assert.Equal(t, []int{1, 2}, out)
	assert.True(t, info.HasMore)
	assert.NotEmpty(t, info.NextPageToken)
}

func TestLimitClamps(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1000}.Limit())
	assert.Equal(t, 7, Pagination{PageSize: 7}.Limit())
}
