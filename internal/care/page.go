package care

// Page is one page of a larger result set. Page numbers are 1-based.
type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ClampPaging normalizes page/pageSize the way list endpoints expect:
// 1-based page, bounded page size.
func ClampPaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
