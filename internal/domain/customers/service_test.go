package customers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ventra/internal/core/apperror"
	appctx "ventra/internal/core/context"
	"ventra/internal/core/id"
	"ventra/internal/core/types"
	"ventra/internal/domain"
	"ventra/internal/domain/access"
	"ventra/internal/domain/orders"
)

type fakeUserRepo struct {
	customers []Customer
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role access.Role, f domain.ListFilter) (domain.ListResult[Customer], error) {
	out := append([]Customer{}, r.customers...)
	return domain.ListResult[Customer]{Items: out, TotalCount: int64(len(out)), Limit: f.Limit, Offset: f.Offset}, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, userID id.ID) (*Customer, error) {
	for _, c := range r.customers {
		if c.ID == userID {
			cp := c
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("customer", userID.String())
}

type fakeOrderRepo struct {
	orders []orders.Order
}

func (r *fakeOrderRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[orders.Order], error) {
	out := append([]orders.Order{}, r.orders...)
	return domain.ListResult[orders.Order]{Items: out, TotalCount: int64(len(out))}, nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, orderID id.ID, expand []string) (*orders.Order, error) {
	return nil, apperror.NewNotFound("order", orderID.String())
}
func (r *fakeOrderRepo) Create(ctx context.Context, o *orders.Order) error { return nil }
func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, orderID id.ID, status orders.OrderStatus) error {
	return nil
}
func (r *fakeOrderRepo) AssignTechnician(ctx context.Context, orderID id.ID, technicianID id.ID) error {
	return nil
}
func (r *fakeOrderRepo) Delete(ctx context.Context, orderID id.ID) error { return nil }

func customerOrder(customerID id.ID, branchID id.ID, status orders.OrderStatus, fee string, at time.Time) orders.Order {
	return orders.Order{
		ID:          id.New(),
		CustomerID:  &customerID,
		BranchID:    branchID,
		Status:      status,
		DeliveryFee: types.MustMoney(fee),
		CreatedAt:   at,
	}
}

func TestListForActorDerivedBranchScoping(t *testing.T) {
	ctx := context.Background()
	branchA, branchB := id.New(), id.New()
	inA := Customer{ID: id.New(), Name: "In A"}
	movedToB := Customer{ID: id.New(), Name: "Moved"}
	noOrders := Customer{ID: id.New(), Name: "No Orders"}

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	users := &fakeUserRepo{customers: []Customer{inA, movedToB, noOrders}}
	orderRepo := &fakeOrderRepo{orders: []orders.Order{
		customerOrder(inA.ID, branchA, orders.StatusCompleted, "10", base),
		// This customer ordered in A first, then in B: derived branch is B.
		customerOrder(movedToB.ID, branchA, orders.StatusCompleted, "10", base),
		customerOrder(movedToB.ID, branchB, orders.StatusPending, "10", base.Add(time.Hour)),
	}}
	svc := NewService(users, orderRepo)

	adminA := &appctx.ActorContext{UserID: id.New(), Role: "admin", BranchID: &branchA}
	page, err := svc.ListForActor(ctx, adminA, domain.ListFilter{}, nil)
	assert.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, inA.ID, page.Items[0].ID)
	assert.NotNil(t, page.Items[0].DerivedBranchID)
	assert.Equal(t, branchA, *page.Items[0].DerivedBranchID)
}

func TestListForActorBranchSelector(t *testing.T) {
	ctx := context.Background()
	branchA := id.New()
	withOrders := Customer{ID: id.New(), Name: "Has Orders"}
	noOrders := Customer{ID: id.New(), Name: "No Orders"}

	users := &fakeUserRepo{customers: []Customer{withOrders, noOrders}}
	orderRepo := &fakeOrderRepo{orders: []orders.Order{
		customerOrder(withOrders.ID, branchA, orders.StatusCompleted, "10", time.Now()),
	}}
	svc := NewService(users, orderRepo)
	admin := &appctx.ActorContext{UserID: id.New(), Role: "super-admin"}

	t.Run("noOrders selector", func(t *testing.T) {
		page, err := svc.ListForActor(ctx, admin, domain.ListFilter{}, &BranchSelector{NoOrders: true})
		assert.NoError(t, err)
		assert.Len(t, page.Items, 1)
		assert.Equal(t, noOrders.ID, page.Items[0].ID)
	})

	t.Run("branch selector", func(t *testing.T) {
		page, err := svc.ListForActor(ctx, admin, domain.ListFilter{}, &BranchSelector{BranchID: &branchA})
		assert.NoError(t, err)
		assert.Len(t, page.Items, 1)
		assert.Equal(t, withOrders.ID, page.Items[0].ID)
	})
}

func TestListForActorMissingAssignment(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&fakeUserRepo{}, &fakeOrderRepo{})

	admin := &appctx.ActorContext{UserID: id.New(), Role: "admin"} // no branch
	page, err := svc.ListForActor(ctx, admin, domain.ListFilter{}, nil)
	assert.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.True(t, page.ScopeEmpty)
	assert.Equal(t, apperror.CodeMissingBranchAssignment, page.ScopeCode)
}

func TestWithOrderStatistics(t *testing.T) {
	branchID := id.New()
	c := Customer{ID: id.New(), Name: "Stats"}
	other := Customer{ID: id.New(), Name: "Other"}
	base := time.Now().UTC()

	all := []orders.Order{
		customerOrder(c.ID, branchID, orders.StatusCompleted, "10.50", base),
		customerOrder(c.ID, branchID, orders.StatusCompleted, "4.50", base),
		customerOrder(c.ID, branchID, orders.StatusPending, "99.00", base),
		customerOrder(c.ID, branchID, orders.StatusCancelled, "5.00", base),
		customerOrder(c.ID, branchID, orders.StatusDeclined, "5.00", base),
		customerOrder(other.ID, branchID, orders.StatusCompleted, "100.00", base),
		{ID: id.New(), BranchID: branchID, GuestName: "guest", Status: orders.StatusCompleted, DeliveryFee: types.MustMoney("7.00"), CreatedAt: base},
	}

	out := WithOrderStatistics([]Customer{c}, all)
	assert.Len(t, out, 1)

	stats := out[0].Stats
	assert.Equal(t, 5, stats.TotalOrders)
	assert.Equal(t, 2, stats.CompletedOrders)
	assert.Equal(t, 1, stats.PendingOrders)
	assert.Equal(t, 2, stats.CancelledOrders)

	// totalSpent sums delivery fees of completed orders only.
	assert.True(t, stats.TotalSpent.Equal(types.MustMoney("15.00")),
		"want 15.00, got %s", stats.TotalSpent)
}

func TestWithOrderStatisticsZeroOrders(t *testing.T) {
	c := Customer{ID: id.New()}
	out := WithOrderStatistics([]Customer{c}, nil)
	assert.Len(t, out, 1)
	assert.Equal(t, 0, out[0].Stats.TotalOrders)
	assert.True(t, out[0].Stats.TotalSpent.IsZero())
}
