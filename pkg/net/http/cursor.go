package http

import (
	"encoding/base64"
	"encoding/json"

	"github.com/Masterminds/squirrel"
)

// Cursor is the opaque pagination token exchanged with clients. PointsNext tells
// whether the cursor walks forward or backward relative to the sort order.
type Cursor struct {
	ID         string `json:"id"`
	PointsNext bool   `json:"points_next"`
}

// CursorPagination carries the next/prev tokens of a page.
type CursorPagination struct {
	Next string `json:"next,omitempty"`
	Prev string `json:"prev,omitempty"`
}

// CreateCursor builds a cursor for the given boundary id.
func CreateCursor(id string, pointsNext bool) Cursor {
	return Cursor{
		ID:         id,
		PointsNext: pointsNext,
	}
}

// EncodeCursor serializes a cursor to its opaque base64 form.
func EncodeCursor(cursor Cursor) string {
	raw, _ := json.Marshal(cursor)
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeCursor parses an opaque cursor token.
func DecodeCursor(token string) (Cursor, error) {
	var cursor Cursor

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return cursor, err
	}

	if err := json.Unmarshal(raw, &cursor); err != nil {
		return cursor, err
	}

	return cursor, nil
}

// ApplyCursorPagination applies keyset pagination over the id column to the query.
// It returns the amended query and the effective order used to walk the index; the
// caller must reverse the page when the effective order differs from the requested
// one. The query fetches limit+1 rows so the caller can detect a further page.
func ApplyCursorPagination(query squirrel.SelectBuilder, cursor Cursor, orderDirection string, limit int) (squirrel.SelectBuilder, string) {
	effectiveOrder := orderDirection

	if cursor.ID != "" {
		comparator := "<"

		if (orderDirection == "ASC") == cursor.PointsNext {
			comparator = ">"
		}

		if !cursor.PointsNext {
			if orderDirection == "ASC" {
				effectiveOrder = "DESC"
				comparator = "<"
			} else {
				effectiveOrder = "ASC"
				comparator = ">"
			}
		}

		query = query.Where(squirrel.Expr("id "+comparator+" ?", cursor.ID))
	}

	query = query.OrderBy("id " + effectiveOrder).Limit(uint64(limit + 1))

	return query, effectiveOrder
}

// PaginateRecords trims the limit+1 page down to limit items and reverses it when the
// walk order differed from the requested order.
func PaginateRecords[T any](isFirstPage bool, hasPagination bool, pointsNext bool, items []T, limit int, orderDirection string) []T {
	if hasPagination {
		items = items[:limit]
	}

	if !pointsNext && !isFirstPage {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}

	_ = orderDirection

	return items
}

// CalculateCursor derives the next/prev tokens of the returned page.
func CalculateCursor(isFirstPage, hasPagination, pointsNext bool, firstID, lastID string) (CursorPagination, error) {
	pagination := CursorPagination{}

	if hasPagination || (!pointsNext && !isFirstPage) {
		pagination.Next = EncodeCursor(CreateCursor(lastID, true))
	}

	if !isFirstPage {
		pagination.Prev = EncodeCursor(CreateCursor(firstID, false))
	}

	if !pointsNext && !hasPagination {
		pagination.Prev = ""
	}

	return pagination, nil
}
