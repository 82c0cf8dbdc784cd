package shared

import "math"

// DefaultPageSize applies when the caller leaves pageSize unset.
const DefaultPageSize = 10

// SortOrder enumerates sort directions.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// SortOption pairs a sortable field with its direction.
type SortOption struct {
	SortBy    string    `json:"sortBy"`
	SortOrder SortOrder `json:"sortOrder"`
}

// Paginated wraps a result page with its listing metadata.
type Paginated[T any] struct {
	Data            []T          `json:"data"`
	Page            int          `json:"page"`
	TotalPages      int          `json:"totalPages"`
	TotalCount      int          `json:"totalCount"`
	PageSize        int          `json:"pageSize"`
	HasNextPage     bool         `json:"hasNextPage"`
	HasPreviousPage bool         `json:"hasPreviousPage"`
	Sort            []SortOption `json:"sort"`
}

// Paginate slices data into one page and computes listing metadata.
// Sort options are carried through untouched; the caller is responsible
// for ordering data before pagination.
func Paginate[T any](data []T, page, pageSize int, sort []SortOption) Paginated[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	if sort == nil {
		sort = []SortOption{}
	}
	totalCount := len(data)
	totalPages := int(math.Ceil(float64(totalCount) / float64(pageSize)))

	start := (page - 1) * pageSize
	if start > totalCount {
		start = totalCount
	}
	end := start + pageSize
	if end > totalCount {
		end = totalCount
	}

	return Paginated[T]{
		Data:            data[start:end],
		Page:            page,
		TotalPages:      totalPages,
		TotalCount:      totalCount,
		PageSize:        pageSize,
		HasNextPage:     page*pageSize < totalCount,
		HasPreviousPage: page > 1,
		Sort:            sort,
	}
}
