// Package inventory provides the spare-part stock ledger.
//
// Part.StockCount is a denormalized counter; the authoritative history is the
// append-only stock log. Counter changes are applied as guarded store-level
// deltas, never as read-modify-write, so concurrent adjustments cannot race
// the counter below zero or lose updates.
package inventory

import (
	"context"
	"time"

	"ventra/internal/core/id"
	"ventra/internal/core/types"
	"ventra/internal/domain"
)

// ChangeType classifies a stock log entry.
type ChangeType string

const (
	ChangeUsage            ChangeType = "Usage"
	ChangeReplenishment    ChangeType = "Replenishment"
	ChangeInitialStock     ChangeType = "InitialStock"
	ChangeManualAdjustment ChangeType = "ManualAdjustment"
	ChangeCorrection       ChangeType = "Correction"
)

// IsValidChangeType reports membership in the closed enum.
func IsValidChangeType(t ChangeType) bool {
	switch t {
	case ChangeUsage, ChangeReplenishment, ChangeInitialStock,
		ChangeManualAdjustment, ChangeCorrection:
		return true
	}
	return false
}

// Part is a spare part tracked in inventory.
type Part struct {
	ID               id.ID       `db:"id" json:"id"`
	Name             string      `db:"name" json:"name"`
	StockCount       int         `db:"stock_count" json:"stockCount"`
	ReorderThreshold int         `db:"reorder_threshold" json:"reorderThreshold"`
	UnitPrice        types.Money `db:"unit_price" json:"unitPrice"`
	CreatedAt        time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updatedAt"`
}

// LowStock reports whether the part is at or below its reorder threshold.
func (p *Part) LowStock() bool {
	return p.StockCount <= p.ReorderThreshold
}

// StockLogEntry is one immutable ledger row. Entries are append-only; a
// mistaken entry is compensated by a Correction entry, never edited.
type StockLogEntry struct {
	ID                      id.ID      `db:"id" json:"id"`
	PartID                  id.ID      `db:"part_id" json:"partId"`
	DeltaQuantity           int        `db:"delta_quantity" json:"deltaQuantity"`
	Type                    ChangeType `db:"type" json:"type"`
	RelatedServiceRequestID *id.ID     `db:"related_service_request_id" json:"relatedServiceRequestId,omitempty"`
	Notes                   string     `db:"notes" json:"notes,omitempty"`
	CreatedAt               time.Time  `db:"created_at" json:"createdAt"`
}

// Repository defines part and stock-log persistence.
type Repository interface {
	GetPart(ctx context.Context, partID id.ID) (*Part, error)
	ListParts(ctx context.Context, f domain.ListFilter) (domain.ListResult[Part], error)
	CreatePart(ctx context.Context, p *Part) error
	UpdatePart(ctx context.Context, p *Part) error

	// ApplyDelta atomically applies a counter change with a non-negativity
	// guard at the store level (conditional update, not read-then-write).
	// Returns the updated part, or a negative-stock error without applying.
	ApplyDelta(ctx context.Context, partID id.ID, delta int) (*Part, error)

	AppendLog(ctx context.Context, e *StockLogEntry) error

	// DeleteLogEntry exists solely for compensation when the counter write
	// of a two-step adjustment fails. Not exposed through any API surface.
	DeleteLogEntry(ctx context.Context, entryID id.ID) error

	ListLog(ctx context.Context, partID id.ID, f domain.ListFilter) (domain.ListResult[StockLogEntry], error)

	// RecomputeStock rebuilds the denormalized counter from the log.
	// Maintenance operation for reconciling counter divergence.
	RecomputeStock(ctx context.Context, partID id.ID) (*Part, error)
}
