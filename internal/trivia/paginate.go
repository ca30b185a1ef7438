package trivia

// DefaultPageSize is the number of questions served per page.
const DefaultPageSize = 10

// Paginate returns the 1-indexed page of items. Pages are fixed-size except
// the last; a page past the end yields an empty slice, which is a valid
// outcome, not an error. Non-positive page and pageSize fall back to 1 and
// DefaultPageSize.
func Paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end:end]
}
