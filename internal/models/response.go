package models

import "math"

// APIResponse is the envelope every endpoint responds with.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// SuccessResponse wraps data in a successful envelope.
func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{Success: true, Message: message, Data: data}
}

// ErrorResponse builds a failed envelope; errs may be nil.
func ErrorResponse(message string, errs interface{}) APIResponse {
	return APIResponse{Success: false, Message: message, Errors: errs}
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes pages = ceil(total/limit).
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	}
}

// Offset is the number of rows skipped before this page. It saturates rather
// than overflowing, leaving room for Offset()+Limit, so an absurd page number
// reads as a page past the end.
func (p Pagination) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > (math.MaxInt-p.Limit)/p.Limit {
		return math.MaxInt - p.Limit
	}
	return (p.Page - 1) * p.Limit
}

// PriceRange is the min and max base price of a set of products: price, or
// startingBid for auctions, before any discount. It shares its basis with the
// minPrice and maxPrice filters.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FilterOptions are the values UI filter widgets are populated from. They are
// computed over the whole active variant partition. PriceRange is undiscounted.
type FilterOptions struct {
	Categories []Category  `json:"categories"`
	Conditions []Condition `json:"conditions"`
	Brands     []string    `json:"brands"`
	PriceRange PriceRange  `json:"priceRange"`
}
