package branch

import (
	"bytes"

	"ventra/internal/core/id"
	"ventra/internal/domain/orders"
)

// Customers are not assigned to a branch directly; their affiliation is
// derived from order history. The resolver is a pure function so both the
// per-customer form and the bulk form below are testable against each other.
//
// Tie-break on equal createdAt: the order with the larger id wins. Relevant
// only for same-instant writes, but it keeps resolution deterministic instead
// of depending on input order.

// ResolveLastOrder returns the branch of the customer's most recent order.
// The second return value is false for customers with no orders: they have
// no derived branch and must be excluded from branch-scoped filters.
func ResolveLastOrder(customerID id.ID, all []orders.Order) (id.ID, bool) {
	var (
		found bool
		best  orders.Order
	)
	for _, o := range all {
		if o.CustomerID == nil || *o.CustomerID != customerID {
			continue
		}
		if !found || moreRecent(o, best) {
			best = o
			found = true
		}
	}
	if !found {
		return id.Nil(), false
	}
	return best.BranchID, true
}

// LastOrderIndex resolves derived branches for every customer that appears in
// the order set, in a single pass. Guaranteed to agree with ResolveLastOrder
// for every customer.
func LastOrderIndex(all []orders.Order) map[id.ID]id.ID {
	latest := make(map[id.ID]orders.Order)
	for _, o := range all {
		if o.CustomerID == nil {
			continue
		}
		cur, ok := latest[*o.CustomerID]
		if !ok || moreRecent(o, cur) {
			latest[*o.CustomerID] = o
		}
	}

	idx := make(map[id.ID]id.ID, len(latest))
	for customerID, o := range latest {
		idx[customerID] = o.BranchID
	}
	return idx
}

// moreRecent reports whether a should be preferred over b as "most recent".
func moreRecent(a, b orders.Order) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	aID, bID := a.ID, b.ID
	return bytes.Compare(aID[:], bID[:]) > 0
}
