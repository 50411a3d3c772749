package constants

// Pagination limits for list endpoints
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
