// internal/data/filters.go
package data

import "math"

// Filters holds the pagination parameters extracted from URL query strings.
// A Limit of zero (or less) means "no limit": every matching record is
// returned on a single page.
type Filters struct {
	Page  int // Current page number (1-indexed)
	Limit int // Number of records per page; <=0 disables pagination
}

// limited reports whether pagination is in effect.
func (f Filters) limited() bool { return f.Limit > 0 }

// offset returns the SQL OFFSET value derived from Page and Limit.
func (f Filters) offset() int { return (f.Page - 1) * f.Limit }

// Metadata contains pagination information returned alongside list responses.
type Metadata struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Total int `json:"total"`
}

// calculateMetadata computes page metadata from the total record count and
// the filters used for the query. With no limit there is always exactly one
// page; otherwise the page count is ceil(total/limit).
func calculateMetadata(total int, filters Filters) Metadata {
	pages := 1
	if filters.limited() {
		pages = int(math.Ceil(float64(total) / float64(filters.Limit)))
	}
	return Metadata{
		Page:  filters.Page,
		Pages: pages,
		Total: total,
	}
}
