// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"strings"

	"ventra/internal/core/id"
	"ventra/internal/domain"
)

// --- List query ---

// ListQuery contains the list parameters shared by every collection
// endpoint: search, sorting and pagination.
type ListQuery struct {
	Search  string `form:"search"`
	Sort    string `form:"sort"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset  int    `form:"offset" binding:"omitempty,min=0"`
	Expand  string `form:"expand"`
	Page    int    `form:"page" binding:"omitempty,min=1"`
	PerPage int    `form:"perPage" binding:"omitempty,min=1,max=200"`
}

// ToFilter converts query parameters into the domain list filter.
// page/perPage take precedence over limit/offset when given.
func (q *ListQuery) ToFilter() domain.ListFilter {
	f := domain.ListFilter{
		Search:  strings.TrimSpace(q.Search),
		OrderBy: q.Sort,
		Limit:   q.Limit,
		Offset:  q.Offset,
	}
	if q.PerPage > 0 {
		f.Limit = q.PerPage
		if q.Page > 1 {
			f.Offset = (q.Page - 1) * q.PerPage
		}
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	if q.Expand != "" {
		for _, e := range strings.Split(q.Expand, ",") {
			if e = strings.TrimSpace(e); e != "" {
				f.Expand = append(f.Expand, e)
			}
		}
	}
	return f
}

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// FromListResult creates a ListResponse from a domain result.
func FromListResult[T any](res domain.ListResult[T]) ListResponse {
	items := res.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	}
}

// ScopedListResponse is a ListResponse with the missing-assignment marker
// query services attach for branch admins without an assigned branch.
type ScopedListResponse struct {
	ListResponse
	ScopeEmpty bool   `json:"scopeEmpty,omitempty"`
	ScopeCode  string `json:"scopeCode,omitempty"`
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
