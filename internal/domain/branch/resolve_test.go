package branch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ventra/internal/core/id"
	"ventra/internal/domain/orders"
)

func order(customerID *id.ID, branchID id.ID, createdAt time.Time) orders.Order {
	return orders.Order{
		ID:         id.New(),
		CustomerID: customerID,
		BranchID:   branchID,
		CreatedAt:  createdAt,
	}
}

func TestResolveLastOrder(t *testing.T) {
	customerID := id.New()
	otherCustomer := id.New()
	branchA := id.New()
	branchB := id.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	all := []orders.Order{
		order(&customerID, branchA, base),
		order(&customerID, branchB, base.Add(time.Hour)), // most recent
		order(&otherCustomer, branchA, base.Add(2*time.Hour)),
		order(nil, branchA, base.Add(3*time.Hour)), // guest order, no customer
	}

	got, ok := ResolveLastOrder(customerID, all)
	assert.True(t, ok)
	assert.Equal(t, branchB, got)
}

func TestResolveLastOrderNoOrders(t *testing.T) {
	customerID := id.New()
	otherCustomer := id.New()

	all := []orders.Order{
		order(&otherCustomer, id.New(), time.Now()),
	}

	_, ok := ResolveLastOrder(customerID, all)
	assert.False(t, ok, "customer without orders has no derived branch")

	_, ok = ResolveLastOrder(customerID, nil)
	assert.False(t, ok)
}

func TestResolveLastOrderTieBreak(t *testing.T) {
	customerID := id.New()
	branchA := id.New()
	branchB := id.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := order(&customerID, branchA, at)
	b := order(&customerID, branchB, at)

	// Same instant: the larger order id wins, regardless of input order.
	fwd, ok := ResolveLastOrder(customerID, []orders.Order{a, b})
	assert.True(t, ok)
	rev, ok2 := ResolveLastOrder(customerID, []orders.Order{b, a})
	assert.True(t, ok2)
	assert.Equal(t, fwd, rev, "resolution must not depend on input order")
}

func TestLastOrderIndexAgreesWithPerCustomerResolution(t *testing.T) {
	branches := []id.ID{id.New(), id.New(), id.New()}
	customers := []id.ID{id.New(), id.New(), id.New(), id.New()}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var all []orders.Order
	for i := 0; i < 40; i++ {
		c := customers[i%len(customers)]
		all = append(all, order(&c, branches[i%len(branches)], base.Add(time.Duration(i*7)*time.Hour)))
	}
	// A guest order must not appear in the index.
	all = append(all, order(nil, branches[0], base.Add(1000*time.Hour)))

	idx := LastOrderIndex(all)

	for _, c := range customers {
		want, ok := ResolveLastOrder(c, all)
		assert.True(t, ok)
		got, found := idx[c]
		assert.True(t, found)
		assert.Equal(t, want, got, "bulk index must agree with per-customer resolution")
	}
	assert.Len(t, idx, len(customers))
}
