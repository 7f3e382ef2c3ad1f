package common

// PageSize is the number of items every listing returns per page.
const PageSize = 20

// FetchLimit is the row limit used by listing queries: one extra row tells
// whether another page exists.
const FetchLimit = PageSize + 1

// Page is the result of a paginated listing.
type Page[T any] struct {
	Items   []T  `json:"items"`
	AreMore bool `json:"areMore"`
}

// Paginate trims rows fetched with FetchLimit down to one page.
func Paginate[T any](rows []T) Page[T] {
	if rows == nil {
		rows = []T{}
	}

	if len(rows) > PageSize {
		return Page[T]{Items: rows[:PageSize], AreMore: true}
	}

	return Page[T]{Items: rows}
}

// NormalizeSkip clamps a client supplied offset.
func NormalizeSkip(skip int) int {
	if skip < 0 {
		return 0
	}
	return skip
}
