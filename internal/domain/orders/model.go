// Package orders provides the sales order model and role-scoped query service.
package orders

import (
	"time"

	"ventra/internal/core/id"
	"ventra/internal/core/types"
)

// OrderStatus is the closed order state enum. Values keep the exact casing
// the store uses; they are wire values, not display strings.
type OrderStatus string

const (
	StatusPending          OrderStatus = "Pending"
	StatusApproved         OrderStatus = "Approved"
	StatusPacking          OrderStatus = "packing"
	StatusReadyForDelivery OrderStatus = "ready_for_delivery"
	StatusOnTheWay         OrderStatus = "on_the_way"
	StatusReadyForPickup   OrderStatus = "ready_for_pickup"
	StatusCompleted        OrderStatus = "completed"
	StatusCancelled        OrderStatus = "cancelled"
	StatusDeclined         OrderStatus = "Declined"
)

// StatusGroup buckets statuses for customer statistics and dashboards.
type StatusGroup string

const (
	GroupCompleted   StatusGroup = "completed"
	GroupPendingLike StatusGroup = "pending"
	GroupCancelled   StatusGroup = "cancelled"
)

// GroupOf maps a status into its statistics group. Unknown statuses fall into
// the pending-like group so they are never silently dropped from totals.
func GroupOf(s OrderStatus) StatusGroup {
	switch s {
	case StatusCompleted:
		return GroupCompleted
	case StatusCancelled, StatusDeclined:
		return GroupCancelled
	default:
		return GroupPendingLike
	}
}

// IsValidStatus reports whether s is a member of the closed enum.
func IsValidStatus(s OrderStatus) bool {
	switch s {
	case StatusPending, StatusApproved, StatusPacking, StatusReadyForDelivery,
		StatusOnTheWay, StatusReadyForPickup, StatusCompleted, StatusCancelled,
		StatusDeclined:
		return true
	}
	return false
}

// transitions lists the allowed next statuses per current status.
// Terminal states have no successors.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:          {StatusApproved, StatusDeclined, StatusCancelled},
	StatusApproved:         {StatusPacking, StatusCancelled},
	StatusPacking:          {StatusReadyForDelivery, StatusReadyForPickup, StatusCancelled},
	StatusReadyForDelivery: {StatusOnTheWay, StatusCancelled},
	StatusOnTheWay:         {StatusCompleted, StatusCancelled},
	StatusReadyForPickup:   {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentMode values the checkout flows produce.
const (
	PaymentCashOnDelivery = "cod"
	PaymentOnline         = "online"
)

// Order is a sales order. Exactly one of CustomerID/GuestName is populated:
// guest checkout creates no user record.
type Order struct {
	ID         id.ID  `db:"id" json:"id"`
	CustomerID *id.ID `db:"customer_id" json:"customerId,omitempty"`
	GuestName  string `db:"guest_name" json:"guestName,omitempty"`

	BranchID    id.ID       `db:"branch_id" json:"branchId"`
	Status      OrderStatus `db:"status" json:"status"`
	PaymentMode string      `db:"payment_mode" json:"paymentMode"`

	ProductIDs []id.ID `db:"product_ids" json:"productIds"`

	DeliveryFee types.Money `db:"delivery_fee" json:"deliveryFee"`
	DistanceKm  *float64    `db:"distance_km" json:"distanceKm,omitempty"`

	TechnicianID *id.ID `db:"technician_id" json:"technicianId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Expand holds relation fields hydrated by the store when requested.
	// Denormalized display fields only; authoritative data lives in the
	// referenced collections.
	Expand OrderExpand `db:"-" json:"expand,omitempty"`
}

// OrderExpand carries hydrated relation data for list/detail views.
type OrderExpand struct {
	CustomerName   string        `json:"customerName,omitempty"`
	CustomerEmail  string        `json:"customerEmail,omitempty"`
	BranchName     string        `json:"branchName,omitempty"`
	TechnicianName string        `json:"technicianName,omitempty"`
	Products       []ProductLine `json:"products,omitempty"`
}

// ProductLine is one hydrated product reference with its effective price.
type ProductLine struct {
	ProductID  id.ID       `json:"productId"`
	Name       string      `json:"name"`
	FinalPrice types.Money `json:"finalPrice"`
}

// CustomerDisplayName returns the customer name for lists: the expanded user
// name for registered customers, the captured guest name otherwise.
func (o *Order) CustomerDisplayName() string {
	if o.CustomerID != nil && o.Expand.CustomerName != "" {
		return o.Expand.CustomerName
	}
	return o.GuestName
}
