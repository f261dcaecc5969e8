package pagination

import (
	"math"

	"gorm.io/gorm"
)

// MaxPageSize caps page_size for every list endpoint.
const MaxPageSize = 100

// PageRequest holds pagination parameters parsed from query strings.
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Defaults fills in default values when page or page_size are not provided.
func (p *PageRequest) Defaults() {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PageSize == 0 {
		p.PageSize = 20
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p *PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PageResponse wraps one page of items keyed by their identifier, with metadata.
type PageResponse[T any] struct {
	Data       map[string]T `json:"data"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalItems int64        `json:"total_items"`
	TotalPages int          `json:"total_pages"`
}

// NewPageResponse creates a PageResponse from the given items, keying each with key.
// Later items win when two share a key.
func NewPageResponse[T any](items []T, key func(T) string, page, pageSize int, totalItems int64) PageResponse[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(pageSize)))
	}
	return PageResponse[T]{
		Data:       KeyBy(items, key),
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// KeyBy indexes items by key. The result is never nil.
func KeyBy[T any](items []T, key func(T) string) map[string]T {
	out := make(map[string]T, len(items))
	for _, item := range items {
		out[key(item)] = item
	}
	return out
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for the given page request.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Offset()).Limit(req.PageSize)
	}
}
