package dto

import (
	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/domain/customers"
)

// CustomerListQuery extends the common list query with the explicit
// derived-branch selector.
type CustomerListQuery struct {
	ListQuery
	BranchID string `form:"branchId"`
	NoOrders bool   `form:"noOrders"`
	Stats    bool   `form:"stats"`
}

// Selector builds the branch selector, or nil when no explicit filter is set.
func (q *CustomerListQuery) Selector() (*customers.BranchSelector, error) {
	if q.NoOrders {
		return &customers.BranchSelector{NoOrders: true}, nil
	}
	if q.BranchID != "" {
		branchID, err := id.Parse(q.BranchID)
		if err != nil {
			return nil, apperror.NewValidation("invalid branchId")
		}
		return &customers.BranchSelector{BranchID: &branchID}, nil
	}
	return nil, nil
}
