package inventory

import (
	"context"
	"fmt"

	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/domain"
	"ventra/pkg/logger"
)

// Service provides ledger arithmetic over parts and the stock log.
type Service struct {
	repo    Repository
	auditor domain.Auditor
}

// NewService creates the inventory service.
func NewService(repo Repository, auditor domain.Auditor) *Service {
	if auditor == nil {
		auditor = domain.NopAuditor{}
	}
	return &Service{repo: repo, auditor: auditor}
}

// AdjustInput describes one stock adjustment.
type AdjustInput struct {
	PartID                  id.ID
	DeltaQuantity           int
	Type                    ChangeType
	Notes                   string
	RelatedServiceRequestID *id.ID
}

// AdjustStock applies one adjustment as an explicit two-phase write:
//
//  1. validate everything, including the non-negativity check, before any
//     write — a rejected adjustment leaves no log entry behind
//  2. append the immutable log entry
//  3. apply the counter delta through the store's guarded atomic update
//  4. if the counter write fails after the log append, compensate by
//     deleting the log entry; if compensation also fails, surface a
//     partial-write error distinct from total failure
func (s *Service) AdjustStock(ctx context.Context, in AdjustInput) (*Part, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	part, err := s.repo.GetPart(ctx, in.PartID)
	if err != nil {
		return nil, err
	}
	if part.StockCount+in.DeltaQuantity < 0 {
		return nil, apperror.NewNegativeStock(in.PartID.String(), part.StockCount, in.DeltaQuantity)
	}

	entry := &StockLogEntry{
		ID:                      id.New(),
		PartID:                  in.PartID,
		DeltaQuantity:           in.DeltaQuantity,
		Type:                    in.Type,
		RelatedServiceRequestID: in.RelatedServiceRequestID,
		Notes:                   in.Notes,
	}
	if err := s.repo.AppendLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("append stock log: %w", err)
	}

	updated, err := s.repo.ApplyDelta(ctx, in.PartID, in.DeltaQuantity)
	if err != nil {
		// The pre-check passed but the guarded update failed: either a
		// concurrent adjustment raced us, or the store is down. Either way
		// the log entry must not survive without its counter write.
		if delErr := s.repo.DeleteLogEntry(ctx, entry.ID); delErr != nil {
			logger.Error(ctx, "stock log compensation failed",
				"part_id", in.PartID,
				"entry_id", entry.ID,
				"apply_error", err,
				"delete_error", delErr,
			)
			return nil, apperror.NewPartialWrite("stock log entry committed but counter update failed").
				WithDetail("part_id", in.PartID.String()).
				WithDetail("entry_id", entry.ID.String()).
				WithCause(err)
		}
		return nil, err
	}

	if err := s.auditor.LogChange(ctx, "part", in.PartID, domain.AuditActionAdjust, map[string]any{
		"delta": in.DeltaQuantity,
		"type":  string(in.Type),
		"stock": updated.StockCount,
	}); err != nil {
		logger.Warn(ctx, "audit write failed", "entity", "part", "error", err)
	}

	logger.Info(ctx, "stock adjusted",
		"part_id", in.PartID,
		"delta", in.DeltaQuantity,
		"type", in.Type,
		"stock", updated.StockCount,
	)
	return updated, nil
}

func (s *Service) validate(in AdjustInput) error {
	if id.IsNil(in.PartID) {
		return apperror.NewValidation("partId is required")
	}
	if in.DeltaQuantity == 0 {
		return apperror.NewValidation("deltaQuantity cannot be zero")
	}
	if !IsValidChangeType(in.Type) {
		return apperror.NewValidation("unknown stock change type").WithDetail("type", string(in.Type))
	}
	if in.Type == ChangeUsage && in.RelatedServiceRequestID == nil {
		return apperror.NewValidation("usage entries require a related service request")
	}
	if in.Type != ChangeUsage && in.RelatedServiceRequestID != nil {
		return apperror.NewValidation("only usage entries may reference a service request")
	}
	return nil
}

// PartUsage is one line of a multi-part consumption.
type PartUsage struct {
	PartID   id.ID `json:"partId"`
	Quantity int   `json:"quantity"`
}

// ConsumeForDiagnosis decrements stock for every diagnosed part, one
// independent adjustment per part. There is no cross-part rollback: failure
// on part k leaves parts 1..k-1 decremented, and the returned error carries
// the applied part ids so the caller can present exactly what happened.
func (s *Service) ConsumeForDiagnosis(ctx context.Context, serviceRequestID id.ID, usages []PartUsage) error {
	if id.IsNil(serviceRequestID) {
		return apperror.NewValidation("serviceRequestId is required")
	}
	if len(usages) == 0 {
		return apperror.NewValidation("no parts to consume")
	}
	for _, u := range usages {
		if u.Quantity <= 0 {
			return apperror.NewValidation("part quantity must be positive").
				WithDetail("part_id", u.PartID.String())
		}
	}

	applied := make([]string, 0, len(usages))
	for _, u := range usages {
		srID := serviceRequestID
		_, err := s.AdjustStock(ctx, AdjustInput{
			PartID:                  u.PartID,
			DeltaQuantity:           -u.Quantity,
			Type:                    ChangeUsage,
			RelatedServiceRequestID: &srID,
		})
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return appErr.WithDetail("applied_part_ids", applied).
					WithDetail("failed_part_id", u.PartID.String())
			}
			return err
		}
		applied = append(applied, u.PartID.String())
	}
	return nil
}

// CreatePart stores a part and anchors the ledger with an InitialStock entry.
func (s *Service) CreatePart(ctx context.Context, p *Part) error {
	if p.Name == "" {
		return apperror.NewValidation("name is required")
	}
	if p.StockCount < 0 {
		return apperror.NewValidation("stockCount cannot be negative")
	}
	if id.IsNil(p.ID) {
		p.ID = id.New()
	}
	if err := s.repo.CreatePart(ctx, p); err != nil {
		return err
	}
	if p.StockCount != 0 {
		entry := &StockLogEntry{
			ID:            id.New(),
			PartID:        p.ID,
			DeltaQuantity: p.StockCount,
			Type:          ChangeInitialStock,
		}
		if err := s.repo.AppendLog(ctx, entry); err != nil {
			return fmt.Errorf("append initial stock entry: %w", err)
		}
	}
	return nil
}

// ListLowStock returns parts at or below their reorder threshold.
func (s *Service) ListLowStock(ctx context.Context) ([]Part, error) {
	res, err := s.repo.ListParts(ctx, domain.ListFilter{OrderBy: "name"})
	if err != nil {
		return nil, err
	}
	low := make([]Part, 0)
	for _, p := range res.Items {
		if p.LowStock() {
			low = append(low, p)
		}
	}
	return low, nil
}

// History returns the ledger entries for one part, newest first.
func (s *Service) History(ctx context.Context, partID id.ID, f domain.ListFilter) (domain.ListResult[StockLogEntry], error) {
	if f.OrderBy == "" {
		f.OrderBy = "-created_at"
	}
	return s.repo.ListLog(ctx, partID, f)
}

// Reconcile rebuilds a part's counter from its log and reports the drift.
func (s *Service) Reconcile(ctx context.Context, partID id.ID) (*Part, int, error) {
	before, err := s.repo.GetPart(ctx, partID)
	if err != nil {
		return nil, 0, err
	}
	after, err := s.repo.RecomputeStock(ctx, partID)
	if err != nil {
		return nil, 0, err
	}
	drift := after.StockCount - before.StockCount
	if drift != 0 {
		logger.Warn(ctx, "stock counter drift corrected",
			"part_id", partID,
			"was", before.StockCount,
			"now", after.StockCount,
		)
	}
	return after, drift, nil
}
