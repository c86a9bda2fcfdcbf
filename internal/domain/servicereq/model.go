// Package servicereq provides repair/service request handling, including the
// diagnosis flow that consumes spare parts through the inventory ledger.
package servicereq

import (
	"context"
	"time"

	"ventra/internal/core/id"
	"ventra/internal/core/types"
	"ventra/internal/domain"
)

// Status is the service request state enum.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusScheduled  Status = "scheduled"
	StatusCompleted  Status = "completed"
)

// IsValidStatus reports membership in the closed enum.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusScheduled, StatusCompleted:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress},
	StatusInProgress: {StatusScheduled, StatusCompleted},
	StatusScheduled:  {StatusCompleted},
}

// CanTransition reports whether a request may move between two statuses.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DiagnosedPart is one part the technician identified as needed.
type DiagnosedPart struct {
	PartID   id.ID       `db:"part_id" json:"partId"`
	Quantity int         `db:"quantity" json:"quantity"`
	Price    types.Money `db:"price" json:"price"`
}

// ServiceRequest is a customer repair request.
type ServiceRequest struct {
	ID          id.ID  `db:"id" json:"id"`
	CustomerID  id.ID  `db:"customer_id" json:"customerId"`
	Product     string `db:"product" json:"product"`
	ProblemText string `db:"problem_text" json:"problemText"`
	Status      Status `db:"status" json:"status"`

	TechnicianID *id.ID `db:"technician_id" json:"technicianId,omitempty"`

	DiagnosedParts []DiagnosedPart `db:"diagnosed_parts" json:"diagnosedParts,omitempty"`
	DiagnosisNotes string          `db:"diagnosis_notes" json:"diagnosisNotes,omitempty"`

	AttachmentRef string `db:"attachment_ref" json:"attachmentRef,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Repository defines service request persistence.
type Repository interface {
	List(ctx context.Context, f domain.ListFilter) (domain.ListResult[ServiceRequest], error)
	GetByID(ctx context.Context, requestID id.ID) (*ServiceRequest, error)
	Create(ctx context.Context, sr *ServiceRequest) error
	Update(ctx context.Context, sr *ServiceRequest) error
}
