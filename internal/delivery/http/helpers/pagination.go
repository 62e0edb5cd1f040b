package helpers

import (
	"net/http"
	"strconv"

	"eventticketing/internal/domain"
)

// ParsePagination reads page and page_size from the query string. Missing or
// non-positive values fall back to page 1 and domain.DefaultPageSize; page_size
// is capped at domain.MaxPageSize.
func ParsePagination(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	params := domain.PaginationParams{
		Page:     positiveInt(q.Get("page"), 1),
		PageSize: positiveInt(q.Get("page_size"), domain.DefaultPageSize),
	}
	params.PageSize = params.Limit()
	return params
}

func positiveInt(s string, fallback int) int {
	if v, err := strconv.Atoi(s); err == nil && v >= 1 {
		return v
	}
	return fallback
}

// PaginationMeta is the pagination block of list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta builds PaginationMeta; TotalPages rounds up and is 0 when pageSize is 0.
func NewPaginationMeta(page, pageSize, total int) PaginationMeta {
	meta := PaginationMeta{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		meta.TotalPages = (total + pageSize - 1) / pageSize
	}
	return meta
}
