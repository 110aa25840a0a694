// Package models holds the kitchen records the costing engine reads:
// ingredients, recipes, recipe lines and unit conversions.
package models

import "fmt"

// Status marks whether a row takes part in costing.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) String() string {
	return string(s)
}

// ParseStatus accepts the spellings found in kitchen exports
// ("Active", "inactive", "") and normalizes them.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "", "active", "Active", "ACTIVE":
		return StatusActive, nil
	case "inactive", "Inactive", "INACTIVE":
		return StatusInactive, nil
	default:
		return "", fmt.Errorf("invalid status: %q", s)
	}
}

// Pagination holds pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

// DefaultPagination returns default pagination settings.
func DefaultPagination() Pagination {
	return Pagination{
		Page:     1,
		PageSize: 25,
	}
}

// Offset calculates the SQL offset for the current page.
func (p Pagination) Offset() int {
	if p.Page < 1 {
		p.Page = 1
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the page size as limit, clamped to [1, 500].
func (p Pagination) Limit() int {
	if p.PageSize < 1 {
		return 25
	}
	if p.PageSize > 500 {
		return 500
	}
	return p.PageSize
}

// TotalPages calculates the total number of pages.
func (p Pagination) TotalPages(total int) int {
	size := p.Limit()
	pages := (total + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}
