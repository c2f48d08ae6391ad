package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-5))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	assert.Equal(t, 11, LimitWithBuffer(10))
}

func TestCursorRoundTrip(t *testing.T) {
	cursor := Cursor{CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 123, time.UTC), ID: uuid.New()}
	encoded := EncodeCursor(cursor)
	assert.NotContains(t, encoded, "=")
	assert.NotContains(t, encoded, "+")

	decoded, err := ParseCursor(encoded)
	require.NoError(t, err)
	assert.True(t, cursor.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, cursor.ID, decoded.ID)

	empty, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = ParseCursor("not-a-cursor")
	assert.Error(t, err)
}

func TestTrim(t *testing.T) {
	base := time.Now().UTC()
	rows := make([]Cursor, 4)
	for i := range rows {
		rows[i] = Cursor{CreatedAt: base.Add(-time.Duration(i) * time.Minute), ID: uuid.New()}
	}
	identity := func(c Cursor) Cursor { return c }

	page, next := Trim(rows, 3, identity)
	assert.Len(t, page, 3)
	require.NotNil(t, next)
	assert.Equal(t, rows[2].ID, next.ID)

	page, next = Trim(rows[:2], 3, identity)
	assert.Len(t, page, 2)
	assert.Nil(t, next)
}
