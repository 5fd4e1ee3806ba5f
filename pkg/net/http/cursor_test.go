package http

import (
	"encoding/base64"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCursor(t *testing.T) {
	cursor := CreateCursor("test_id", true)
	encodedCursor := base64.StdEncoding.EncodeToString([]byte(`{"id":"test_id","points_next":true}`))

	decodedCursor, err := DecodeCursor(encodedCursor)
	require.NoError(t, err)
	assert.Equal(t, cursor, decodedCursor)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("not-base64!!!")
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cursor := CreateCursor("0191a0d0-0000-7000-8000-000000000001", false)

	decoded, err := DecodeCursor(EncodeCursor(cursor))
	require.NoError(t, err)
	assert.Equal(t, cursor, decoded)
}

func TestApplyCursorPaginationDesc(t *testing.T) {
	query := squirrel.Select("*").From("generation")
	decodedCursor := CreateCursor("test_id", true)
	limit := 10

	resultQuery, resultOrder := ApplyCursorPagination(query, decodedCursor, "DESC", limit)
	sqlResult, _, _ := resultQuery.ToSql()

	expectedQuery := query.Where(squirrel.Expr("id < ?", "test_id")).OrderBy("id DESC").Limit(uint64(limit + 1))
	sqlExpected, _, _ := expectedQuery.ToSql()

	assert.Equal(t, sqlExpected, sqlResult)
	assert.Equal(t, "DESC", resultOrder)
}

func TestApplyCursorPaginationNoCursor(t *testing.T) {
	query := squirrel.Select("*").From("generation")
	decodedCursor := CreateCursor("", true)
	limit := 10

	resultQuery, resultOrder := ApplyCursorPagination(query, decodedCursor, "ASC", limit)
	sqlResult, _, _ := resultQuery.ToSql()

	expectedQuery := query.OrderBy("id ASC").Limit(uint64(limit + 1))
	sqlExpected, _, _ := expectedQuery.ToSql()

	assert.Equal(t, sqlExpected, sqlResult)
	assert.Equal(t, "ASC", resultOrder)
}

func TestApplyCursorPaginationPrevPage(t *testing.T) {
	query := squirrel.Select("*").From("generation")
	decodedCursor := CreateCursor("test_id", false)
	limit := 10

	resultQuery, resultOrder := ApplyCursorPagination(query, decodedCursor, "ASC", limit)
	sqlResult, _, _ := resultQuery.ToSql()

	expectedQuery := query.Where(squirrel.Expr("id < ?", "test_id")).OrderBy("id DESC").Limit(uint64(limit + 1))
	sqlExpected, _, _ := expectedQuery.ToSql()

	assert.Equal(t, sqlExpected, sqlResult)
	assert.Equal(t, "DESC", resultOrder)
}

func TestPaginateRecordsTrimsAndReverses(t *testing.T) {
	items := []string{"a", "b", "c", "d"}

	// Forward page with one extra row fetched.
	forward := PaginateRecords(true, true, true, append([]string{}, items...), 3, "DESC")
	assert.Equal(t, []string{"a", "b", "c"}, forward)

	// Backward page walks the index reversed and is flipped back.
	backward := PaginateRecords(false, false, false, append([]string{}, items...), 4, "DESC")
	assert.Equal(t, []string{"d", "c", "b", "a"}, backward)
}

func TestCalculateCursor(t *testing.T) {
	pagination, err := CalculateCursor(true, true, true, "first", "last")
	require.NoError(t, err)

	assert.NotEmpty(t, pagination.Next)
	assert.Empty(t, pagination.Prev)

	next, err := DecodeCursor(pagination.Next)
	require.NoError(t, err)
	assert.Equal(t, "last", next.ID)
	assert.True(t, next.PointsNext)

	middle, err := CalculateCursor(false, true, true, "first", "last")
	require.NoError(t, err)
	assert.NotEmpty(t, middle.Next)
	assert.NotEmpty(t, middle.Prev)
}
