package domain

import (
	"fmt"
	"math"
)

// PageRequest selects a zero-based page of a fixed size.
type PageRequest struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// PageOf builds a page request.
func PageOf(page, size int) PageRequest {
	return PageRequest{Page: page, Size: size}
}

// Offset is the index of the first element on the page. It saturates at
// math.MaxInt64 instead of overflowing.
func (r PageRequest) Offset() int64 {
	if r.Page <= 0 || r.Size <= 0 {
		return 0
	}
	if int64(r.Page) > math.MaxInt64/int64(r.Size) {
		return math.MaxInt64
	}
	return int64(r.Page) * int64(r.Size)
}

// Validate rejects negative pages and non-positive sizes.
func (r PageRequest) Validate() error {
	if r.Page < 0 {
		return fmt.Errorf("%w: page %d is negative", ErrInvalidPage, r.Page)
	}
	if r.Size <= 0 {
		return fmt.Errorf("%w: size %d must be positive", ErrInvalidPage, r.Size)
	}
	return nil
}

// Page is one slice of a larger result together with the request that
// produced it and the total element count.
type Page[T any] struct {
	Content []*T        `json:"content"`
	Request PageRequest `json:"request"`
	Total   int64       `json:"total"`
}

// TotalPages is the number of pages of Request.Size needed to cover Total.
func (p Page[T]) TotalPages() int {
	if p.Request.Size <= 0 {
		return 0
	}
	size := int64(p.Request.Size)
	return int(p.Total/size + min(p.Total%size, 1))
}

// HasNext reports whether a page follows this one.
func (p Page[T]) HasNext() bool {
	if p.Request.Page < 0 || p.Request.Size <= 0 {
		return false
	}
	seen := p.Request.Offset()
	if seen >= p.Total {
		return false
	}
	return p.Total-seen > int64(p.Request.Size)
}

// SlicePage cuts the page described by req out of all. An offset past the end
// yields empty content rather than an error.
func SlicePage[T any](all []*T, req PageRequest) Page[T] {
	total := int64(len(all))
	if req.Page < 0 || req.Size <= 0 {
		return Page[T]{Content: []*T{}, Request: req, Total: total}
	}
	start := min(req.Offset(), total)
	end := start + min(int64(req.Size), total-start)
	content := make([]*T, 0, end-start)
	content = append(content, all[start:end]...)
	return Page[T]{Content: content, Request: req, Total: total}
}

// Direction orders a sort key.
type Direction string

// Sort directions.
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Order is one sort key.
type Order struct {
	Property  string
	Direction Direction
}

// Sort lists sort keys in priority order.
type Sort struct {
	Orders []Order
}

// Example is a probe entity for query-by-example. No backend evaluates it.
type Example[T any] struct {
	Probe        *T
	IgnoredPaths []string
}
