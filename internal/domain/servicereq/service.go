package servicereq

import (
	"context"
	"fmt"

	"ventra/internal/core/apperror"
	appctx "ventra/internal/core/context"
	"ventra/internal/core/id"
	"ventra/internal/domain"
	"ventra/internal/domain/access"
	"ventra/internal/domain/branch"
	"ventra/internal/domain/inventory"
	"ventra/internal/domain/orders"
	"ventra/pkg/logger"
)

// Service composes access policy, branch resolution and the inventory ledger.
type Service struct {
	repo      Repository
	inventory *inventory.Service
	orders    orders.Repository
}

// NewService creates the service request service.
func NewService(repo Repository, inv *inventory.Service, orderRepo orders.Repository) *Service {
	return &Service{repo: repo, inventory: inv, orders: orderRepo}
}

// ListForActor returns service requests visible to the actor. Customers see
// requests they opened, technicians see requests assigned to them, branch
// admins see requests from customers whose derived branch is theirs.
func (s *Service) ListForActor(ctx context.Context, actor *appctx.ActorContext, f domain.ListFilter) (domain.ListResult[ServiceRequest], error) {
	tier := access.Classify(actor)
	if tier.MissingAssignment() {
		return domain.EmptyResult[ServiceRequest](f), nil
	}

	fetch := f
	fetch.Limit, fetch.Offset = 0, 0
	res, err := s.repo.List(ctx, fetch)
	if err != nil {
		return domain.ListResult[ServiceRequest]{}, fmt.Errorf("list service requests: %w", err)
	}

	// Branch admins are scoped through the customer's derived branch, which
	// needs the order set; other tiers filter on the request itself.
	var derived map[id.ID]id.ID
	if tier.Kind == access.TierBranchScoped {
		allOrders, err := s.orders.List(ctx, domain.ListFilter{})
		if err != nil {
			return domain.ListResult[ServiceRequest]{}, fmt.Errorf("fetch orders for branch resolution: %w", err)
		}
		derived = branch.LastOrderIndex(allOrders.Items)
	}

	allowed := tier.ServiceRequestPredicate(actorIDOf(actor), derived)
	visible := make([]ServiceRequest, 0, len(res.Items))
	for _, sr := range res.Items {
		if allowed(sr.CustomerID, sr.TechnicianID) {
			visible = append(visible, sr)
		}
	}

	out := domain.ListResult[ServiceRequest]{
		TotalCount: int64(len(visible)),
		Limit:      f.Limit,
		Offset:     f.Offset,
	}
	start := min(f.Offset, len(visible))
	end := len(visible)
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}
	out.Items = visible[start:end]
	return out, nil
}

// GetForActor fetches one request inside the actor's scope. Out-of-scope
// requests report not-found to avoid leaking existence.
func (s *Service) GetForActor(ctx context.Context, actor *appctx.ActorContext, requestID id.ID) (*ServiceRequest, error) {
	sr, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	tier := access.Classify(actor)
	var derived map[id.ID]id.ID
	if tier.Kind == access.TierBranchScoped {
		allOrders, err := s.orders.List(ctx, domain.ListFilter{})
		if err != nil {
			return nil, fmt.Errorf("fetch orders for branch resolution: %w", err)
		}
		derived = branch.LastOrderIndex(allOrders.Items)
	}
	if !tier.ServiceRequestPredicate(actorIDOf(actor), derived)(sr.CustomerID, sr.TechnicianID) {
		return nil, apperror.NewNotFound("service request", requestID.String())
	}
	return sr, nil
}

// Create validates and stores a new request.
func (s *Service) Create(ctx context.Context, sr *ServiceRequest) error {
	if id.IsNil(sr.CustomerID) {
		return apperror.NewValidation("customerId is required")
	}
	if sr.ProblemText == "" {
		return apperror.NewValidation("problemText is required")
	}
	if sr.Status == "" {
		sr.Status = StatusPending
	}
	if !IsValidStatus(sr.Status) {
		return apperror.NewValidation("unknown service request status").WithDetail("status", string(sr.Status))
	}
	if id.IsNil(sr.ID) {
		sr.ID = id.New()
	}
	return s.repo.Create(ctx, sr)
}

// Transition moves a request through the status machine.
func (s *Service) Transition(ctx context.Context, actor *appctx.ActorContext, requestID id.ID, to Status) (*ServiceRequest, error) {
	if !IsValidStatus(to) {
		return nil, apperror.NewValidation("unknown service request status").WithDetail("status", string(to))
	}
	sr, err := s.GetForActor(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(sr.Status, to) {
		return nil, apperror.NewBusinessRule(
			apperror.CodeInvalidTransition,
			fmt.Sprintf("cannot move request from %s to %s", sr.Status, to),
		).WithDetail("from", string(sr.Status)).WithDetail("to", string(to))
	}
	sr.Status = to
	if err := s.repo.Update(ctx, sr); err != nil {
		return nil, fmt.Errorf("update service request: %w", err)
	}
	return sr, nil
}

// AssignTechnician sets the assigned technician.
func (s *Service) AssignTechnician(ctx context.Context, actor *appctx.ActorContext, requestID, technicianID id.ID) (*ServiceRequest, error) {
	if id.IsNil(technicianID) {
		return nil, apperror.NewValidation("technicianId is required")
	}
	sr, err := s.GetForActor(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	sr.TechnicianID = &technicianID
	if sr.Status == StatusPending {
		sr.Status = StatusInProgress
	}
	if err := s.repo.Update(ctx, sr); err != nil {
		return nil, fmt.Errorf("update service request: %w", err)
	}
	return sr, nil
}

// SubmitDiagnosis records the diagnosed parts and notes on the request, then
// consumes the parts through the ledger. The request update commits first so
// the diagnosis record exists even if consumption fails partway; consumption
// errors carry the applied part ids for reconciliation.
func (s *Service) SubmitDiagnosis(ctx context.Context, actor *appctx.ActorContext, requestID id.ID, parts []DiagnosedPart, notes string) (*ServiceRequest, error) {
	sr, err := s.GetForActor(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, apperror.NewValidation("diagnosis must list at least one part")
	}

	sr.DiagnosedParts = parts
	sr.DiagnosisNotes = notes
	if err := s.repo.Update(ctx, sr); err != nil {
		return nil, fmt.Errorf("record diagnosis: %w", err)
	}

	usages := make([]inventory.PartUsage, len(parts))
	for i, p := range parts {
		usages[i] = inventory.PartUsage{PartID: p.PartID, Quantity: p.Quantity}
	}
	if err := s.inventory.ConsumeForDiagnosis(ctx, requestID, usages); err != nil {
		logger.Warn(ctx, "diagnosis stock consumption failed",
			"request_id", requestID,
			"error", err,
		)
		return nil, err
	}

	return sr, nil
}

func actorIDOf(actor *appctx.ActorContext) id.ID {
	if actor == nil {
		return id.Nil()
	}
	return actor.UserID
}
