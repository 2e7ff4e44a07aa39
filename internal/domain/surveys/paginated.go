package surveys

// PaginatedResult represents a paginated response with data and metadata
type PaginatedResult struct {
	Data       []*ScanRecord `json:"data"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	Total      int64         `json:"totalItems"`
	TotalPages int           `json:"totalPages"`
}

// Normalize applies default paging values
func (f ListFilter) Normalize() ListFilter {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 50
	}
	if f.PageSize > 500 {
		f.PageSize = 500
	}
	return f
}

// Offset is the row offset of the current page
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
