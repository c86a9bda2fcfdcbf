// Package branch provides the Branch catalog and derived-branch resolution.
// Branches are the unit of data partitioning for branch admins.
package branch

import (
	"context"
	"time"

	"ventra/internal/core/id"
	"ventra/internal/domain"
)

// Branch represents a physical sales/service location.
type Branch struct {
	ID           id.ID     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	ContactEmail string    `db:"contact_email" json:"contactEmail"`
	Latitude     *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude    *float64  `db:"longitude" json:"longitude,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Repository defines branch catalog persistence.
type Repository interface {
	GetByID(ctx context.Context, branchID id.ID) (*Branch, error)
	List(ctx context.Context, f domain.ListFilter) (domain.ListResult[Branch], error)
	Create(ctx context.Context, b *Branch) error
	Update(ctx context.Context, b *Branch) error
}

// NameIndex builds a branch-id to display-name map for aggregation output.
func NameIndex(branches []Branch) map[id.ID]string {
	idx := make(map[id.ID]string, len(branches))
	for _, b := range branches {
		idx[b.ID] = b.Name
	}
	return idx
}
