// Package domain provides the shared query contract consumed by every
// repository. It mirrors the record store's generic list capability:
// filter expressions, relation expansion, sorting and pagination.
package domain

import (
	"ventra/internal/domain/filter"
)

// ListFilter contains common filtering options for list operations.
// Filters listed here are pushed down to the store; they are never applied
// by fetching a full collection and filtering client-side.
type ListFilter struct {
	// Search performs substring search on the collection's searchable fields
	Search string

	// Items are structured predicates pushed down to the store
	Items []filter.Item

	// Expand lists relation fields to hydrate inline (e.g. "customer", "branch")
	Expand []string

	// OrderBy specifies sorting (e.g. "name", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "-created_at",
	}
}

// WithItems returns a copy with extra filter items appended.
func (f ListFilter) WithItems(items ...filter.Item) ListFilter {
	f.Items = append(append([]filter.Item{}, f.Items...), items...)
	return f
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// EmptyResult returns a well-formed empty page. Used when an access tier
// resolves to a provably empty scope and no store round-trip is needed.
func EmptyResult[T any](f ListFilter) ListResult[T] {
	return ListResult[T]{Items: []T{}, Limit: f.Limit, Offset: f.Offset}
}
