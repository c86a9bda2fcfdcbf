package domain

import (
	"context"

	"ventra/internal/core/id"
)

// Audit actions recorded for administrative mutations.
const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
	AuditActionAdjust = "adjust"
)

// Auditor records administrative mutations. Implementations must be
// best-effort from the caller's perspective: services log a warning on
// audit failure and do not fail the underlying operation.
type Auditor interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// NopAuditor discards audit entries. Used in tests and when auditing is
// disabled by configuration.
type NopAuditor struct{}

func (NopAuditor) LogChange(context.Context, string, id.ID, string, map[string]any) error {
	return nil
}
