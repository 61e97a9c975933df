// Package pagination provides the envelope type wrapping list results
// with page metadata. It is a pure transformation layer: no I/O, no
// knowledge of the data source.
package pagination

// Meta carries pagination metadata for list responses.
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// Page wraps one page of rows with its metadata.
//
// Invariants: len(Data) <= PerPage, Total >= len(Data), and
// TotalPages == 0 exactly when Total == 0.
type Page[T any] struct {
	Data       []T  `json:"data"`
	Pagination Meta `json:"pagination"`
}

// New builds a Page from rows already fetched for (page, perPage) and the
// total row count matching the same predicate before pagination.
//
// A page beyond the last one is not an error: rows is empty while Total
// stays accurate. A nil rows slice is normalized to an empty one so the
// JSON "data" field is always an array.
func New[T any](rows []T, total int64, page, perPage int) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	if perPage < 1 {
		perPage = 1
	}
	if page < 1 {
		page = 1
	}
	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return Page[T]{
		Data: rows,
		Pagination: Meta{
			Page:       page,
			PerPage:    perPage,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
}

// Offset computes the LIMIT/OFFSET start position for a page.
func Offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
