package memory

import (
	"context"
	"time"

	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/domain"
	"ventra/internal/domain/inventory"
)

// InventoryRepo is the in-memory inventory.Repository.
type InventoryRepo struct {
	store *Store
}

var _ inventory.Repository = (*InventoryRepo)(nil)

// Inventory returns the parts/stock-log repository view.
func (s *Store) Inventory() *InventoryRepo {
	return &InventoryRepo{store: s}
}

func partField(p inventory.Part, field string) (any, bool) {
	switch field {
	case "id":
		return p.ID, true
	case "name":
		return p.Name, true
	case "stock_count":
		return p.StockCount, true
	case "reorder_threshold":
		return p.ReorderThreshold, true
	case "created_at":
		return p.CreatedAt, true
	case "updated_at":
		return p.UpdatedAt, true
	}
	return nil, false
}

func logField(e inventory.StockLogEntry, field string) (any, bool) {
	switch field {
	case "id":
		return e.ID, true
	case "part_id":
		return e.PartID, true
	case "delta_quantity":
		return e.DeltaQuantity, true
	case "type":
		return string(e.Type), true
	case "related_service_request_id":
		if e.RelatedServiceRequestID == nil {
			return nil, true
		}
		return *e.RelatedServiceRequestID, true
	case "created_at":
		return e.CreatedAt, true
	}
	return nil, false
}

// GetPart fetches one part.
func (r *InventoryRepo) GetPart(ctx context.Context, partID id.ID) (*inventory.Part, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.parts[partID]
	if !ok {
		return nil, apperror.NewNotFound("part", partID.String())
	}
	return &p, nil
}

// ListParts retrieves parts.
func (r *InventoryRepo) ListParts(ctx context.Context, f domain.ListFilter) (domain.ListResult[inventory.Part], error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := make([]inventory.Part, 0, len(r.store.parts))
	for _, p := range r.store.parts {
		if f.Search != "" && !containsFold(p.Name, f.Search) {
			continue
		}
		ok, err := matchItems(p, f.Items, partField)
		if err != nil {
			return domain.ListResult[inventory.Part]{}, err
		}
		if ok {
			matched = append(matched, p)
		}
	}

	if err := sortRecords(matched, f.OrderBy, "name", partField); err != nil {
		return domain.ListResult[inventory.Part]{}, err
	}

	return page(matched, f), nil
}

// CreatePart inserts a part.
func (r *InventoryRepo) CreatePart(ctx context.Context, p *inventory.Part) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.store.parts[p.ID] = *p
	return nil
}

// UpdatePart modifies part metadata. The stock counter only moves through
// ApplyDelta, matching the SQL implementation.
func (r *InventoryRepo) UpdatePart(ctx context.Context, p *inventory.Part) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.parts[p.ID]
	if !ok {
		return apperror.NewNotFound("part", p.ID.String())
	}
	existing.Name = p.Name
	existing.ReorderThreshold = p.ReorderThreshold
	existing.UnitPrice = p.UnitPrice
	existing.UpdatedAt = time.Now().UTC()
	r.store.parts[p.ID] = existing
	return nil
}

// ApplyDelta applies a guarded atomic counter change. The check and the write
// happen under one lock, mirroring the SQL conditional update.
func (r *InventoryRepo) ApplyDelta(ctx context.Context, partID id.ID, delta int) (*inventory.Part, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.parts[partID]
	if !ok {
		return nil, apperror.NewNotFound("part", partID.String())
	}
	if p.StockCount+delta < 0 {
		return nil, apperror.NewNegativeStock(partID.String(), p.StockCount, delta)
	}
	p.StockCount += delta
	p.UpdatedAt = time.Now().UTC()
	r.store.parts[partID] = p
	return &p, nil
}

// AppendLog appends one ledger entry.
func (r *InventoryRepo) AppendLog(ctx context.Context, e *inventory.StockLogEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	r.store.stockLog = append(r.store.stockLog, *e)
	return nil
}

// DeleteLogEntry removes a ledger entry. Compensation path only.
func (r *InventoryRepo) DeleteLogEntry(ctx context.Context, entryID id.ID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i, e := range r.store.stockLog {
		if e.ID == entryID {
			r.store.stockLog = append(r.store.stockLog[:i], r.store.stockLog[i+1:]...)
			return nil
		}
	}
	return apperror.NewNotFound("stock log entry", entryID.String())
}

// ListLog retrieves the ledger for one part.
func (r *InventoryRepo) ListLog(ctx context.Context, partID id.ID, f domain.ListFilter) (domain.ListResult[inventory.StockLogEntry], error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := make([]inventory.StockLogEntry, 0)
	for _, e := range r.store.stockLog {
		if e.PartID != partID {
			continue
		}
		ok, err := matchItems(e, f.Items, logField)
		if err != nil {
			return domain.ListResult[inventory.StockLogEntry]{}, err
		}
		if ok {
			matched = append(matched, e)
		}
	}

	if err := sortRecords(matched, f.OrderBy, "-created_at", logField); err != nil {
		return domain.ListResult[inventory.StockLogEntry]{}, err
	}

	return page(matched, f), nil
}

// RecomputeStock rebuilds the counter from the ledger.
func (r *InventoryRepo) RecomputeStock(ctx context.Context, partID id.ID) (*inventory.Part, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.parts[partID]
	if !ok {
		return nil, apperror.NewNotFound("part", partID.String())
	}

	sum := 0
	for _, e := range r.store.stockLog {
		if e.PartID == partID {
			sum += e.DeltaQuantity
		}
	}
	p.StockCount = sum
	p.UpdatedAt = time.Now().UTC()
	r.store.parts[partID] = p
	return &p, nil
}
