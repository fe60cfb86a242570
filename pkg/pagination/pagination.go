// Package pagination provides page/per-page request handling and the
// paginated response envelope shared by list endpoints.
package pagination

// Bounds applied to requested page sizes.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Pagination holds the requested page window.
type Pagination struct {
	Page    int
	PerPage int
}

// New clamps the requested window into valid bounds.
func New(page, perPage int) Pagination {
	if page < 1 {
		page = 1
	}
	switch {
	case perPage < 1:
		perPage = DefaultPerPage
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}
	return Pagination{Page: page, PerPage: perPage}
}

// Offset returns the SQL offset of the window.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Limit returns the SQL limit of the window.
func (p Pagination) Limit() int {
	return p.PerPage
}

// Result is the paginated response envelope.
type Result[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
}

// NewResult wraps one page of data. Data is never nil so the JSON
// rendering of an empty page is [] rather than null.
func NewResult[T any](data []T, total int64, p Pagination) Result[T] {
	if data == nil {
		data = []T{}
	}
	return Result[T]{
		Data:       data,
		Total:      total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: int((total + int64(p.PerPage) - 1) / int64(p.PerPage)),
	}
}
