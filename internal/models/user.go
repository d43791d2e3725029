package models

// User is the minimal projection of an externally-owned user record needed
// for report attribution.
type User struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
}

// UnknownUserName is the display-name placeholder when a createdBy id cannot
// be resolved. Attribution degrades gracefully instead of failing a report.
const UnknownUserName = "System"

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes page metadata for a list result.
func NewPagination(page, size, total int) *Pagination {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	pages := total / size
	if total%size != 0 {
		pages++
	}
	return &Pagination{Page: page, PageSize: size, TotalCount: total, TotalPages: pages}
}
