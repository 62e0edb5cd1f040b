package domain

// Page size bounds shared by the HTTP layer and repositories.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams holds offset-based pagination parameters for list queries.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Limit is PageSize clamped to [1, MaxPageSize]; zero means DefaultPageSize.
func (p PaginationParams) Limit() int {
	switch {
	case p.PageSize < 1:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	}
	return p.PageSize
}

// Offset is the number of rows before the current page.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}
