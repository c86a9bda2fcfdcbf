package orders

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
	"ventra/internal/domain/filter"
)

// fakeOrderRepo is an in-memory orders.Repository with filter push-down
// limited to what the service actually emits.
type fakeOrderRepo struct {
	orders map[id.ID]*Order
}

func newFakeOrderRepo(items ...*Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: make(map[id.ID]*Order)}
	for _, o := range items {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[Order], error) {
	var out []Order
	for _, o := range r.orders {
		if matchesItems(o, f.Items) {
			out = append(out, *o)
		}
	}
	return domain.ListResult[Order]{Items: out, TotalCount: int64(len(out)), Limit: f.Limit, Offset: f.Offset}, nil
}

func matchesItems(o *Order, items []filter.Item) bool {
	for _, it := range items {
		switch it.Field {
		case "branch_id":
			ids, ok := it.Value.([]id.ID)
			if !ok {
				return false
			}
			found := false
			for _, b := range ids {
				if b == o.BranchID {
					found = true
				}
			}
			if !found {
				return false
			}
		case "customer_id":
			want, ok := it.Value.(id.ID)
			if !ok || o.CustomerID == nil || *o.CustomerID != want {
				return false
			}
		}
	}
	return true
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, orderID id.ID, expand []string) (*Order, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) Create(ctx context.Context, o *Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, orderID id.ID, status OrderStatus) error {
	o, ok := r.orders[orderID]
	if !ok {
		return apperror.NewNotFound("order", orderID.String())
	}
	o.Status = status
	return nil
}

func (r *fakeOrderRepo) AssignTechnician(ctx context.Context, orderID id.ID, technicianID id.ID) error {
	o, ok := r.orders[orderID]
	if !ok {
		return apperror.NewNotFound("order", orderID.String())
	}
	o.TechnicianID = &technicianID
	return nil
}

func (r *fakeOrderRepo) Delete(ctx context.Context, orderID id.ID) error {
	if _, ok := r.orders[orderID]; !ok {
		return apperror.NewNotFound("order", orderID.String())
	}
	delete(r.orders, orderID)
	return nil
}

func testOrder(branchID id.ID, customerID *id.ID, status OrderStatus) *Order {
	return &Order{
		ID:          id.New(),
		CustomerID:  customerID,
		BranchID:    branchID,
		Status:      status,
		PaymentMode: PaymentCashOnDelivery,
		ProductIDs:  []id.ID{id.New()},
		DeliveryFee: types.MustMoney("10.00"),
		CreatedAt:   time.Now().UTC(),
	}
}

func superAdmin() *appctx.ActorContext {
	return &appctx.ActorContext{UserID: id.New(), Role: "super-admin"}
}

func branchAdmin(branchID id.ID) *appctx.ActorContext {
	return &appctx.ActorContext{UserID: id.New(), Role: "admin", BranchID: &branchID}
}

func TestListForActorScoping(t *testing.T) {
	ctx := context.Background()
	branchA, branchB := id.New(), id.New()
	customerID := id.New()

	repo := newFakeOrderRepo(
		testOrder(branchA, &customerID, StatusPending),
		testOrder(branchA, nil, StatusCompleted),
		testOrder(branchB, &customerID, StatusApproved),
	)
	svc := NewService(repo, nil)

	t.Run("super admin sees all", func(t *testing.T) {
		page, err := svc.ListForActor(ctx, superAdmin(), domain.ListFilter{})
		assert.NoError(t, err)
		assert.Len(t, page.Items, 3)
		assert.False(t, page.ScopeEmpty)
	})

	t.Run("branch admin sees only their branch", func(t *testing.T) {
		page, err := svc.ListForActor(ctx, branchAdmin(branchA), domain.ListFilter{})
		assert.NoError(t, err)
		assert.Len(t, page.Items, 2)
	})

	t.Run("customer sees only own orders", func(t *testing.T) {
		actor := &appctx.ActorContext{UserID: customerID, Role: "customer"}
		page, err := svc.ListForActor(ctx, actor, domain.ListFilter{})
		assert.NoError(t, err)
		assert.Len(t, page.Items, 2)
	})

	t.Run("admin without branch gets marked empty page", func(t *testing.T) {
		actor := &appctx.ActorContext{UserID: id.New(), Role: "admin"}
		page, err := svc.ListForActor(ctx, actor, domain.ListFilter{})
		assert.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.True(t, page.ScopeEmpty)
		assert.Equal(t, apperror.CodeMissingBranchAssignment, page.ScopeCode)
	})
}

func TestGetForActorOutOfScopeReportsNotFound(t *testing.T) {
	ctx := context.Background()
	branchA, branchB := id.New(), id.New()

	o := testOrder(branchB, nil, StatusPending)
	svc := NewService(newFakeOrderRepo(o), nil)

	got, err := svc.GetForActor(ctx, branchAdmin(branchA), o.ID)
	assert.Nil(t, got)
	assert.True(t, apperror.IsNotFound(err), "out-of-scope must not be distinguishable from missing")
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeOrderRepo(), nil)
	customerID := id.New()

	tests := []struct {
		name  string
		order *Order
	}{
		{"both customer and guest", &Order{CustomerID: &customerID, GuestName: "G", BranchID: id.New(), ProductIDs: []id.ID{id.New()}}},
		{"neither customer nor guest", &Order{BranchID: id.New(), ProductIDs: []id.ID{id.New()}}},
		{"missing branch", &Order{GuestName: "G", ProductIDs: []id.ID{id.New()}}},
		{"no products", &Order{GuestName: "G", BranchID: id.New()}},
		{"negative delivery fee", &Order{GuestName: "G", BranchID: id.New(), ProductIDs: []id.ID{id.New()}, DeliveryFee: types.MustMoney("-1")}},
		{"unknown status", &Order{GuestName: "G", BranchID: id.New(), ProductIDs: []id.ID{id.New()}, Status: "shipped"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Create(ctx, tt.order)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "want validation error, got %v", err)
		})
	}
}

func TestCreateDefaultsStatusAndID(t *testing.T) {
	ctx := context.Background()
	repo := newFakeOrderRepo()
	svc := NewService(repo, nil)

	o := &Order{GuestName: "Walk-in", BranchID: id.New(), ProductIDs: []id.ID{id.New()}, DeliveryFee: types.Zero(), PaymentMode: PaymentCashOnDelivery}
	assert.NoError(t, svc.Create(ctx, o))
	assert.False(t, id.IsNil(o.ID))
	assert.Equal(t, StatusPending, o.Status)
}

func TestTransition(t *testing.T) {
	ctx := context.Background()
	branchID := id.New()

	t.Run("valid transition", func(t *testing.T) {
		o := testOrder(branchID, nil, StatusPending)
		svc := NewService(newFakeOrderRepo(o), nil)

		got, err := svc.Transition(ctx, superAdmin(), o.ID, StatusApproved)
		assert.NoError(t, err)
		assert.Equal(t, StatusApproved, got.Status)
	})

	t.Run("invalid transition", func(t *testing.T) {
		o := testOrder(branchID, nil, StatusPending)
		svc := NewService(newFakeOrderRepo(o), nil)

		_, err := svc.Transition(ctx, superAdmin(), o.ID, StatusCompleted)
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	})

	t.Run("terminal state has no successors", func(t *testing.T) {
		o := testOrder(branchID, nil, StatusCompleted)
		svc := NewService(newFakeOrderRepo(o), nil)

		_, err := svc.Transition(ctx, superAdmin(), o.ID, StatusPending)
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	})
}

func TestBulkDeleteAllOrNothing(t *testing.T) {
	ctx := context.Background()
	branchA, branchB := id.New(), id.New()

	inScope := testOrder(branchA, nil, StatusPending)
	outOfScope := testOrder(branchB, nil, StatusPending)
	repo := newFakeOrderRepo(inScope, outOfScope)
	svc := NewService(repo, nil)

	err := svc.BulkDelete(ctx, branchAdmin(branchA), []id.ID{inScope.ID, outOfScope.ID})
	assert.True(t, apperror.IsNotFound(err))

	// Nothing was deleted: the batch is validated before the first delete.
	assert.Len(t, repo.orders, 2)
}

func TestBulkDeleteForbiddenForOwnRecordsTier(t *testing.T) {
	ctx := context.Background()
	o := testOrder(id.New(), nil, StatusPending)
	svc := NewService(newFakeOrderRepo(o), nil)

	actor := &appctx.ActorContext{UserID: id.New(), Role: "customer"}
	err := svc.BulkDelete(ctx, actor, []id.ID{o.ID})
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
}

func TestStatusMachine(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusApproved))
	assert.True(t, CanTransition(StatusPacking, StatusReadyForPickup))
	assert.True(t, CanTransition(StatusOnTheWay, StatusCompleted))
	assert.False(t, CanTransition(StatusCompleted, StatusPending))
	assert.False(t, CanTransition(StatusCancelled, StatusApproved))
	assert.False(t, CanTransition(StatusPending, StatusOnTheWay))
}

func TestGroupOf(t *testing.T) {
	assert.Equal(t, GroupCompleted, GroupOf(StatusCompleted))
	assert.Equal(t, GroupCancelled, GroupOf(StatusCancelled))
	assert.Equal(t, GroupCancelled, GroupOf(StatusDeclined))
	assert.Equal(t, GroupPendingLike, GroupOf(StatusPacking))
	assert.Equal(t, GroupPendingLike, GroupOf(OrderStatus("unknown")), "unknown statuses never drop from totals")
}
