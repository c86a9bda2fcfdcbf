package memory

import (
	"context"
	"sync"
	"time"

	"ventra/internal/core/id"
	"ventra/internal/domain"
)

// AuditEntry is one recorded change.
type AuditEntry struct {
	EntityType string
	EntityID   id.ID
	Action     string
	Changes    map[string]any
	CreatedAt  time.Time
}

// Auditor records audit entries in memory. Tests use it to assert that
// mutations leave a trail.
type Auditor struct {
	mu      sync.Mutex
	entries []AuditEntry
}

var _ domain.Auditor = (*Auditor)(nil)

// NewAuditor creates an empty in-memory auditor.
func NewAuditor() *Auditor {
	return &Auditor{}
}

// LogChange implements domain.Auditor.
func (a *Auditor) LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, AuditEntry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    changes,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

// Entries returns a copy of all recorded entries.
func (a *Auditor) Entries() []AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]AuditEntry, len(a.entries))
	copy(out, a.entries)
	return out
}
