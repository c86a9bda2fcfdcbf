package dto

import (
	"time"

	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/domain/analytics"
	"ventra/internal/domain/orders"
)

// SalesQuery describes one sales aggregation request.
type SalesQuery struct {
	Preset    string `form:"preset"`
	CustomDay string `form:"customDay"` // 2006-01-02, required for preset=custom
	BranchID  string `form:"branchId"`
	Status    string `form:"status"`
	Search    string `form:"search"`
}

// ToRequest converts query parameters into an analytics request.
func (q *SalesQuery) ToRequest() (analytics.Request, error) {
	req := analytics.Request{
		Preset:  analytics.Preset(q.Preset),
		Filters: analytics.Filters{Search: q.Search},
	}
	if q.Preset == "" {
		req.Preset = analytics.PresetToday
	}

	if q.CustomDay != "" {
		day, err := time.Parse("2006-01-02", q.CustomDay)
		if err != nil {
			return analytics.Request{}, apperror.NewValidation("invalid customDay, expected YYYY-MM-DD")
		}
		req.CustomDay = &day
	}

	if q.BranchID != "" {
		branchID, err := id.Parse(q.BranchID)
		if err != nil {
			return analytics.Request{}, apperror.NewValidation("invalid branchId")
		}
		req.Filters.BranchID = &branchID
	}

	if q.Status != "" {
		status := orders.OrderStatus(q.Status)
		if !orders.IsValidStatus(status) {
			return analytics.Request{}, apperror.NewValidation("unknown order status").WithDetail("status", q.Status)
		}
		req.Filters.Status = &status
	}

	return req, nil
}
