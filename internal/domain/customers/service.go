// Package customers provides the role-scoped customer query service.
//
// Customers carry no stored branch field. Their affiliation is derived from
// the most recent order, so listing always resolves branches first and only
// then applies the tier filter: the filter predicate depends on the derived
// field, not a raw stored one.
package customers

import (
	"context"
	"fmt"
	"time"

	"ventra/internal/core/apperror"
	appctx "ventra/internal/core/context"
	"ventra/internal/core/id"
	"ventra/internal/core/types"
	"ventra/internal/domain"
	"ventra/internal/domain/access"
	"ventra/internal/domain/branch"
	"ventra/internal/domain/orders"
)

// Customer is a user with the customer role.
type Customer struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	// DerivedBranchID is the branch of the most recent order; nil for
	// customers with no orders. Computed per query, never stored.
	DerivedBranchID *id.ID `db:"-" json:"derivedBranchId,omitempty"`
}

// Repository lists users by role. The role filter is pushed down.
type Repository interface {
	ListByRole(ctx context.Context, role access.Role, f domain.ListFilter) (domain.ListResult[Customer], error)
	GetByID(ctx context.Context, userID id.ID) (*Customer, error)
}

// BranchSelector is an optional explicit customer-list filter on derived
// branch. NoOrders selects customers with no derived branch at all.
type BranchSelector struct {
	BranchID *id.ID
	NoOrders bool
}

// Service composes access policy, branch resolution and the user repository.
type Service struct {
	users  Repository
	orders orders.Repository
}

// NewService creates the customer query service.
func NewService(users Repository, orderRepo orders.Repository) *Service {
	return &Service{users: users, orders: orderRepo}
}

// ListPage is a role-scoped customer page, with the same missing-assignment
// marker the order service uses.
type ListPage struct {
	domain.ListResult[Customer]
	ScopeEmpty bool   `json:"scopeEmpty,omitempty"`
	ScopeCode  string `json:"scopeCode,omitempty"`
}

// ListForActor returns customers visible to the actor.
//
// Order of operations is load-bearing:
//  1. fetch customers (role filter pushed down)
//  2. fetch all orders once
//  3. resolve every derived branch from the one order set (bulk form)
//  4. apply the tier filter over the derived branch
func (s *Service) ListForActor(ctx context.Context, actor *appctx.ActorContext, f domain.ListFilter, sel *BranchSelector) (ListPage, error) {
	tier := access.Classify(actor)

	if tier.MissingAssignment() {
		return ListPage{
			ListResult: domain.EmptyResult[Customer](f),
			ScopeEmpty: true,
			ScopeCode:  apperror.CodeMissingBranchAssignment,
		}, nil
	}

	// Derived-branch filtering happens here, so pagination cannot be pushed
	// down; fetch the full role-filtered set and page after filtering.
	fetch := f
	fetch.Limit, fetch.Offset = 0, 0
	users, err := s.users.ListByRole(ctx, access.RoleCustomer, fetch)
	if err != nil {
		return ListPage{}, fmt.Errorf("list customers: %w", err)
	}

	allOrders, err := s.fetchAllOrders(ctx)
	if err != nil {
		return ListPage{}, err
	}

	derived := branch.LastOrderIndex(allOrders)
	allowed := tier.CustomerPredicate(actorIDOf(actor), derived)

	visible := make([]Customer, 0, len(users.Items))
	for _, c := range users.Items {
		if !allowed(c.ID) {
			continue
		}
		if b, ok := derived[c.ID]; ok {
			bc := b
			c.DerivedBranchID = &bc
		}
		if sel != nil && !matchSelector(c, *sel) {
			continue
		}
		visible = append(visible, c)
	}

	return ListPage{ListResult: paginate(visible, f)}, nil
}

// CustomerStats is the per-customer order statistics block.
type CustomerStats struct {
	TotalOrders     int `json:"totalOrders"`
	CompletedOrders int `json:"completedOrders"`
	PendingOrders   int `json:"pendingOrders"`
	CancelledOrders int `json:"cancelledOrders"`

	// TotalSpent follows LifetimeValueDeliveryFeeOnly: the sum of delivery
	// fees over completed orders, excluding product revenue.
	TotalSpent types.Money `json:"totalSpent"`
}

// LifetimeValueDeliveryFeeOnly names the lifetime-value policy in force:
// per-customer totalSpent counts deliveryFee only, not product revenue.
// Inherited behavior, preserved deliberately; see DESIGN.md before "fixing".
const LifetimeValueDeliveryFeeOnly = true

// CustomerWithStats pairs a customer with their order statistics.
type CustomerWithStats struct {
	Customer
	Stats CustomerStats `json:"stats"`
}

// WithOrderStatistics computes order statistics for each customer from an
// already-fetched order set. Pure; operates entirely in memory.
func WithOrderStatistics(custs []Customer, allOrders []orders.Order) []CustomerWithStats {
	byCustomer := make(map[id.ID]*CustomerStats, len(custs))
	out := make([]CustomerWithStats, len(custs))
	for i, c := range custs {
		out[i] = CustomerWithStats{Customer: c, Stats: CustomerStats{TotalSpent: types.Zero()}}
		byCustomer[c.ID] = &out[i].Stats
	}

	for _, o := range allOrders {
		if o.CustomerID == nil {
			continue
		}
		stats, ok := byCustomer[*o.CustomerID]
		if !ok {
			continue
		}
		stats.TotalOrders++
		switch orders.GroupOf(o.Status) {
		case orders.GroupCompleted:
			stats.CompletedOrders++
			stats.TotalSpent = stats.TotalSpent.Add(o.DeliveryFee)
		case orders.GroupCancelled:
			stats.CancelledOrders++
		default:
			stats.PendingOrders++
		}
	}

	return out
}

// ListForActorWithStats is the dashboard list: scoped customers enriched
// with statistics, computed over the same order snapshot used for branch
// resolution.
func (s *Service) ListForActorWithStats(ctx context.Context, actor *appctx.ActorContext, f domain.ListFilter, sel *BranchSelector) ([]CustomerWithStats, bool, error) {
	page, err := s.ListForActor(ctx, actor, f, sel)
	if err != nil {
		return nil, false, err
	}
	if page.ScopeEmpty {
		return []CustomerWithStats{}, true, nil
	}

	allOrders, err := s.fetchAllOrders(ctx)
	if err != nil {
		return nil, false, err
	}
	return WithOrderStatistics(page.Items, allOrders), false, nil
}

func (s *Service) fetchAllOrders(ctx context.Context) ([]orders.Order, error) {
	res, err := s.orders.List(ctx, domain.ListFilter{OrderBy: "-created_at"})
	if err != nil {
		return nil, fmt.Errorf("fetch orders for branch resolution: %w", err)
	}
	return res.Items, nil
}

func matchSelector(c Customer, sel BranchSelector) bool {
	if sel.NoOrders {
		return c.DerivedBranchID == nil
	}
	if sel.BranchID != nil {
		return c.DerivedBranchID != nil && *c.DerivedBranchID == *sel.BranchID
	}
	return true
}

func paginate(items []Customer, f domain.ListFilter) domain.ListResult[Customer] {
	res := domain.ListResult[Customer]{
		TotalCount: int64(len(items)),
		Limit:      f.Limit,
		Offset:     f.Offset,
	}
	start := f.Offset
	if start > len(items) {
		start = len(items)
	}
	end := len(items)
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}
	res.Items = items[start:end]
	return res
}

func actorIDOf(actor *appctx.ActorContext) id.ID {
	if actor == nil {
		return id.Nil()
	}
	return actor.UserID
}
