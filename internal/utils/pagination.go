// Package utils provides small, generic helper functions used across
// different layers of the application.
package utils

import "strconv"

// Pagination bounds shared by list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AtoiDefault converts s to an int, returning def when s is empty or not an
// integer.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Page is a normalized 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// TotalPages returns how many pages total rows span (at least 1).
func (p Page) TotalPages(total int64) int {
	if total <= 0 {
		return 1
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

// ParsePage reads raw page and page_size values, falling back to page 1 and
// DefaultPageSize and capping the size at MaxPageSize.
func ParsePage(page, size string) Page {
	p := Page{Number: AtoiDefault(page, 1), Size: AtoiDefault(size, DefaultPageSize)}
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}
