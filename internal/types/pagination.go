package types

import "strconv"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage bounds page numbers so offsets stay small
	MaxPage = 10000
)

// Pagination describes one page of a listing
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Offset returns the number of rows to skip
func (p Pagination) Offset() int {
	page, limit := min(max(p.Page, 1), MaxPage), min(max(p.Limit, 0), MaxPageSize)
	return (page - 1) * limit
}

// WithTotal fills Total and TotalPages
func (p Pagination) WithTotal(total int64) Pagination {
	p.Total = total
	if p.Limit > 0 {
		p.TotalPages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return p
}

// NewPagination clamps page and limit to sane values
func NewPagination(page, limit, defaultLimit int) Pagination {
	if defaultLimit <= 0 {
		defaultLimit = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Pagination{Page: page, Limit: limit}
}

// ParsePagination reads page and limit from query string values
func ParsePagination(page, limit string, defaultLimit int) Pagination {
	p, _ := strconv.Atoi(page)
	l, _ := strconv.Atoi(limit)
	return NewPagination(p, l, defaultLimit)
}

// Page is a paginated listing
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}
