// Package access implements role-based data visibility.
//
// Every role decision in the service goes through Classify; no other package
// compares role strings. Classification is total and fails closed: an actor
// that cannot be positively identified as privileged is scoped to their own
// records, and a branch admin without an assigned branch sees nothing rather
// than everything.
package access

import (
	appctx "ventra/internal/core/context"
	"ventra/internal/core/id"
	"ventra/internal/domain/filter"
)

// Role enumerates the access roles known to the platform.
type Role string

const (
	RoleSuperAdmin Role = "super-admin"
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
	RoleCustomer   Role = "customer"
)

// TierKind classifies the visibility scope of an actor.
type TierKind int

const (
	// TierOwnRecords limits the actor to records referencing them directly.
	// This is the most restrictive tier and the fail-closed default.
	TierOwnRecords TierKind = iota

	// TierBranchScoped limits the actor to records of specific branches.
	// An empty branch set is a valid tier meaning "no records".
	TierBranchScoped

	// TierUnrestricted grants access to all records.
	TierUnrestricted
)

// Tier is the resolved visibility scope for one actor.
type Tier struct {
	Kind      TierKind
	BranchIDs []id.ID

	// Role is the classified role, retained for record types whose
	// "own records" semantics depend on which side the actor is on
	// (customer vs. assigned technician).
	Role Role
}

// Classify resolves an actor into a visibility tier.
//
// Priority order, first match wins:
//  1. super-admin: unrestricted
//  2. admin: scoped to the assigned branch; no assignment yields an empty
//     branch scope, not an error and not unrestricted
//  3. anything else (technician, customer, unknown): own records only
//
// Classify never fails; a nil actor degrades to own-records with no owner,
// which matches nothing.
func Classify(actor *appctx.ActorContext) Tier {
	if actor == nil {
		return Tier{Kind: TierOwnRecords}
	}

	switch Role(actor.Role) {
	case RoleSuperAdmin:
		return Tier{Kind: TierUnrestricted, Role: RoleSuperAdmin}
	case RoleAdmin:
		t := Tier{Kind: TierBranchScoped, Role: RoleAdmin}
		if actor.BranchID != nil && !id.IsNil(*actor.BranchID) {
			t.BranchIDs = []id.ID{*actor.BranchID}
		}
		return t
	case RoleTechnician:
		return Tier{Kind: TierOwnRecords, Role: RoleTechnician}
	case RoleCustomer:
		return Tier{Kind: TierOwnRecords, Role: RoleCustomer}
	default:
		return Tier{Kind: TierOwnRecords, Role: Role(actor.Role)}
	}
}

// MissingAssignment reports whether the tier is a branch scope with no
// branches, i.e. an admin without an assignment. Query services surface this
// to the UI as a distinguishable "no data due to missing assignment" state.
func (t Tier) MissingAssignment() bool {
	return t.Kind == TierBranchScoped && len(t.BranchIDs) == 0
}

// AllowsBranch reports whether records of the given branch are visible.
func (t Tier) AllowsBranch(branchID id.ID) bool {
	switch t.Kind {
	case TierUnrestricted:
		return true
	case TierBranchScoped:
		for _, b := range t.BranchIDs {
			if b == branchID {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// OrderPredicate builds the in-memory order filter for this tier.
// The predicate receives the order's branch reference and its customer
// reference (nil for guest orders).
func (t Tier) OrderPredicate(actorID id.ID) func(branchID id.ID, customerID *id.ID) bool {
	switch t.Kind {
	case TierUnrestricted:
		return func(id.ID, *id.ID) bool { return true }
	case TierBranchScoped:
		return func(branchID id.ID, _ *id.ID) bool { return t.AllowsBranch(branchID) }
	default:
		return func(_ id.ID, customerID *id.ID) bool {
			return customerID != nil && *customerID == actorID && !id.IsNil(actorID)
		}
	}
}

// OrderFilterItems translates the tier into store-level filter items for the
// orders collection. The second return value is false when the scope is
// provably empty and the query should be skipped entirely.
func (t Tier) OrderFilterItems(actorID id.ID) ([]filter.Item, bool) {
	switch t.Kind {
	case TierUnrestricted:
		return nil, true
	case TierBranchScoped:
		if len(t.BranchIDs) == 0 {
			return nil, false
		}
		return []filter.Item{filter.In("branch_id", t.BranchIDs)}, true
	default:
		if id.IsNil(actorID) {
			return nil, false
		}
		return []filter.Item{filter.Eq("customer_id", actorID)}, true
	}
}

// CustomerPredicate builds the customer filter for this tier. The filter
// operates over the derived branch (most recent order), so branch resolution
// must run before it is applied. Customers with no orders have no derived
// branch and are excluded from any branch scope.
func (t Tier) CustomerPredicate(actorID id.ID, derivedBranch map[id.ID]id.ID) func(customerID id.ID) bool {
	switch t.Kind {
	case TierUnrestricted:
		return func(id.ID) bool { return true }
	case TierBranchScoped:
		return func(customerID id.ID) bool {
			b, ok := derivedBranch[customerID]
			return ok && t.AllowsBranch(b)
		}
	default:
		return func(customerID id.ID) bool {
			return customerID == actorID && !id.IsNil(actorID)
		}
	}
}

// ServiceRequestPredicate builds the service-request filter for this tier.
// Own-records semantics depend on role: customers see requests they opened,
// technicians see requests assigned to them.
func (t Tier) ServiceRequestPredicate(actorID id.ID, customerDerivedBranch map[id.ID]id.ID) func(customerID id.ID, technicianID *id.ID) bool {
	switch t.Kind {
	case TierUnrestricted:
		return func(id.ID, *id.ID) bool { return true }
	case TierBranchScoped:
		return func(customerID id.ID, _ *id.ID) bool {
			b, ok := customerDerivedBranch[customerID]
			return ok && t.AllowsBranch(b)
		}
	default:
		if t.Role == RoleTechnician {
			return func(_ id.ID, technicianID *id.ID) bool {
				return technicianID != nil && *technicianID == actorID && !id.IsNil(actorID)
			}
		}
		return func(customerID id.ID, _ *id.ID) bool {
			return customerID == actorID && !id.IsNil(actorID)
		}
	}
}
