// Package utils provides small helpers shared by the HTTP and service layers.
// They hold no domain logic.
package utils

import "strconv"

// Page size bounds for list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a normalized, 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage normalizes a page requested in code: numbers below 1 become 1,
// a non-positive size becomes DefaultPageSize and sizes above MaxPageSize
// are capped.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// ParsePage normalizes raw page and page_size query values. Missing or
// malformed values take the defaults; an explicit size below 1 means 1.
func ParsePage(rawNumber, rawSize string) Page {
	number := atoiDefault(rawNumber, 1)
	size := atoiDefault(rawSize, DefaultPageSize)
	if size < 1 {
		size = 1
	}
	return NewPage(number, size)
}

// Offset is the number of rows before the page.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// TotalPages is how many pages of p.Size hold total rows.
func (p Page) TotalPages(total int64) int {
	if total <= 0 || p.Size <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

// HasNext reports whether a page follows p.
func (p Page) HasNext(total int64) bool { return p.Number < p.TotalPages(total) }

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
