package orders

import (
	"context"
	"fmt"

	"ventra/internal/core/apperror"
	appctx "ventra/internal/core/context"
	"ventra/internal/core/id"
	"ventra/internal/domain"
	"ventra/internal/domain/access"
	"ventra/pkg/logger"
)

// Repository defines order persistence. Filter items in ListFilter are
// pushed down to the store; branch-scoped queries never fetch the full
// collection.
type Repository interface {
	List(ctx context.Context, f domain.ListFilter) (domain.ListResult[Order], error)
	GetByID(ctx context.Context, orderID id.ID, expand []string) (*Order, error)
	Create(ctx context.Context, o *Order) error
	UpdateStatus(ctx context.Context, orderID id.ID, status OrderStatus) error
	AssignTechnician(ctx context.Context, orderID id.ID, technicianID id.ID) error
	Delete(ctx context.Context, orderID id.ID) error
}

// ListExpand is the relation set the dashboard order table needs.
var ListExpand = []string{"customer", "branch", "technician", "products"}

// Service composes the access policy with the order repository.
type Service struct {
	repo    Repository
	auditor domain.Auditor
}

// NewService creates the order query service.
func NewService(repo Repository, auditor domain.Auditor) *Service {
	if auditor == nil {
		auditor = domain.NopAuditor{}
	}
	return &Service{repo: repo, auditor: auditor}
}

// ListPage is a role-scoped order page. ScopeEmpty distinguishes "no data
// because the actor has no branch assignment" from "no data exists".
type ListPage struct {
	domain.ListResult[Order]
	ScopeEmpty bool   `json:"scopeEmpty,omitempty"`
	ScopeCode  string `json:"scopeCode,omitempty"`
}

// ListForActor returns orders visible to the actor. The tier filter is
// applied as a store-level filter expression.
func (s *Service) ListForActor(ctx context.Context, actor *appctx.ActorContext, f domain.ListFilter) (ListPage, error) {
	tier := access.Classify(actor)

	items, ok := tier.OrderFilterItems(actorIDOf(actor))
	if !ok {
		page := ListPage{ListResult: domain.EmptyResult[Order](f)}
		if tier.MissingAssignment() {
			page.ScopeEmpty = true
			page.ScopeCode = apperror.CodeMissingBranchAssignment
		}
		return page, nil
	}

	if len(f.Expand) == 0 {
		f.Expand = ListExpand
	}
	res, err := s.repo.List(ctx, f.WithItems(items...))
	if err != nil {
		return ListPage{}, fmt.Errorf("list orders: %w", err)
	}
	return ListPage{ListResult: res}, nil
}

// GetForActor fetches one order and verifies it is inside the actor's scope.
// Out-of-scope orders report not-found rather than forbidden so the response
// does not leak record existence across branches.
func (s *Service) GetForActor(ctx context.Context, actor *appctx.ActorContext, orderID id.ID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID, ListExpand)
	if err != nil {
		return nil, err
	}

	tier := access.Classify(actor)
	allowed := tier.OrderPredicate(actorIDOf(actor))
	if !allowed(o.BranchID, o.CustomerID) {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	return o, nil
}

// Create validates and stores a new order.
func (s *Service) Create(ctx context.Context, o *Order) error {
	if (o.CustomerID == nil) == (o.GuestName == "") {
		return apperror.NewValidation("exactly one of customerId and guestName must be set")
	}
	if id.IsNil(o.BranchID) {
		return apperror.NewValidation("branchId is required")
	}
	if len(o.ProductIDs) == 0 {
		return apperror.NewValidation("order must reference at least one product")
	}
	if o.DeliveryFee.IsNegative() {
		return apperror.NewValidation("deliveryFee cannot be negative")
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	if !IsValidStatus(o.Status) {
		return apperror.NewValidation("unknown order status").WithDetail("status", string(o.Status))
	}
	if id.IsNil(o.ID) {
		o.ID = id.New()
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	if err := s.auditor.LogChange(ctx, "order", o.ID, domain.AuditActionCreate, map[string]any{
		"branch_id": o.BranchID.String(),
		"status":    string(o.Status),
	}); err != nil {
		logger.Warn(ctx, "audit write failed", "entity", "order", "error", err)
	}
	return nil
}

// Transition moves an order through the status machine on behalf of an actor.
func (s *Service) Transition(ctx context.Context, actor *appctx.ActorContext, orderID id.ID, to OrderStatus) (*Order, error) {
	if !IsValidStatus(to) {
		return nil, apperror.NewValidation("unknown order status").WithDetail("status", string(to))
	}

	o, err := s.GetForActor(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(o.Status, to) {
		return nil, apperror.NewBusinessRule(
			apperror.CodeInvalidTransition,
			fmt.Sprintf("cannot move order from %s to %s", o.Status, to),
		).WithDetail("from", string(o.Status)).WithDetail("to", string(to))
	}

	if err := s.repo.UpdateStatus(ctx, orderID, to); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	if err := s.auditor.LogChange(ctx, "order", orderID, domain.AuditActionUpdate, map[string]any{
		"status": map[string]any{"old": string(o.Status), "new": string(to)},
	}); err != nil {
		logger.Warn(ctx, "audit write failed", "entity", "order", "error", err)
	}

	o.Status = to
	return o, nil
}

// AssignTechnician sets the assigned technician on an order.
func (s *Service) AssignTechnician(ctx context.Context, actor *appctx.ActorContext, orderID, technicianID id.ID) error {
	if id.IsNil(technicianID) {
		return apperror.NewValidation("technicianId is required")
	}
	if _, err := s.GetForActor(ctx, actor, orderID); err != nil {
		return err
	}
	if err := s.repo.AssignTechnician(ctx, orderID, technicianID); err != nil {
		return fmt.Errorf("assign technician: %w", err)
	}
	return nil
}

// BulkDelete removes orders by id. Every order must be inside the actor's
// scope; the whole batch is rejected on the first out-of-scope id so a
// partial delete never happens silently.
func (s *Service) BulkDelete(ctx context.Context, actor *appctx.ActorContext, orderIDs []id.ID) error {
	if len(orderIDs) == 0 {
		return apperror.NewValidation("no order ids given")
	}

	tier := access.Classify(actor)
	if tier.Kind == access.TierOwnRecords {
		return apperror.NewForbidden("bulk delete requires an administrative role")
	}

	allowed := tier.OrderPredicate(actorIDOf(actor))
	for _, orderID := range orderIDs {
		o, err := s.repo.GetByID(ctx, orderID, nil)
		if err != nil {
			return err
		}
		if !allowed(o.BranchID, o.CustomerID) {
			return apperror.NewNotFound("order", orderID.String())
		}
	}

	for _, orderID := range orderIDs {
		if err := s.repo.Delete(ctx, orderID); err != nil {
			return fmt.Errorf("delete order %s: %w", orderID, err)
		}
		if err := s.auditor.LogChange(ctx, "order", orderID, domain.AuditActionDelete, nil); err != nil {
			logger.Warn(ctx, "audit write failed", "entity", "order", "error", err)
		}
	}

	logger.Info(ctx, "orders deleted", "count", len(orderIDs))
	return nil
}

func actorIDOf(actor *appctx.ActorContext) id.ID {
	if actor == nil {
		return id.Nil()
	}
	return actor.UserID
}
