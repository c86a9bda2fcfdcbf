package dto

import (
	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/core/types"
	"ventra/internal/domain/filter"
	"ventra/internal/domain/orders"
)

// OrderListQuery extends the common list query with order filters.
type OrderListQuery struct {
	ListQuery
	Status   string `form:"status"`
	BranchID string `form:"branchId"`
	Payment  string `form:"payment"`
}

// ExtraItems translates the order-specific query filters into pushed-down
// predicate items.
func (q *OrderListQuery) ExtraItems() ([]filter.Item, error) {
	var items []filter.Item
	if q.Status != "" {
		if !orders.IsValidStatus(orders.OrderStatus(q.Status)) {
			return nil, apperror.NewValidation("unknown order status").WithDetail("status", q.Status)
		}
		items = append(items, filter.Eq("status", q.Status))
	}
	if q.BranchID != "" {
		branchID, err := id.Parse(q.BranchID)
		if err != nil {
			return nil, apperror.NewValidation("invalid branchId")
		}
		items = append(items, filter.Eq("branch_id", branchID))
	}
	if q.Payment != "" {
		items = append(items, filter.Eq("payment_mode", q.Payment))
	}
	return items, nil
}

// CreateOrderRequest for creating orders. Exactly one of customerId and
// guestName must be set.
type CreateOrderRequest struct {
	CustomerID  *string  `json:"customerId"`
	GuestName   string   `json:"guestName"`
	BranchID    string   `json:"branchId" binding:"required,uuid"`
	ProductIDs  []string `json:"productIds" binding:"required,min=1"`
	PaymentMode string   `json:"paymentMode" binding:"required,oneof=cod online"`
	DeliveryFee string   `json:"deliveryFee"`
	DistanceKm  *float64 `json:"distanceKm"`
}

// ToOrder converts the request into a domain order.
func (r *CreateOrderRequest) ToOrder() (*orders.Order, error) {
	o := &orders.Order{
		GuestName:   r.GuestName,
		PaymentMode: r.PaymentMode,
		DistanceKm:  r.DistanceKm,
		DeliveryFee: types.Zero(),
	}

	if r.CustomerID != nil && *r.CustomerID != "" {
		customerID, err := id.Parse(*r.CustomerID)
		if err != nil {
			return nil, apperror.NewValidation("invalid customerId")
		}
		o.CustomerID = &customerID
	}

	branchID, err := id.Parse(r.BranchID)
	if err != nil {
		return nil, apperror.NewValidation("invalid branchId")
	}
	o.BranchID = branchID

	for _, raw := range r.ProductIDs {
		productID, err := id.Parse(raw)
		if err != nil {
			return nil, apperror.NewValidation("invalid product id").WithDetail("product_id", raw)
		}
		o.ProductIDs = append(o.ProductIDs, productID)
	}

	if r.DeliveryFee != "" {
		fee, err := types.NewMoneyFromString(r.DeliveryFee)
		if err != nil {
			return nil, apperror.NewValidation("invalid deliveryFee")
		}
		o.DeliveryFee = fee
	}

	return o, nil
}

// TransitionOrderRequest for status transitions.
type TransitionOrderRequest struct {
	Status string `json:"status" binding:"required"`
}

// AssignTechnicianRequest for technician assignment.
type AssignTechnicianRequest struct {
	TechnicianID string `json:"technicianId" binding:"required,uuid"`
}

// BulkDeleteOrdersRequest for batch deletion.
type BulkDeleteOrdersRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// ParseIDs converts the raw id strings.
func (r *BulkDeleteOrdersRequest) ParseIDs() ([]id.ID, error) {
	out := make([]id.ID, 0, len(r.IDs))
	for _, raw := range r.IDs {
		parsed, err := id.Parse(raw)
		if err != nil {
			return nil, apperror.NewValidation("invalid order id").WithDetail("order_id", raw)
		}
		out = append(out, parsed)
	}
	return out, nil
}
