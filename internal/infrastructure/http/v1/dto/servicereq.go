package dto

import (
	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/core/types"
	"ventra/internal/domain/servicereq"
)

// CreateServiceRequestRequest for opening a repair request.
type CreateServiceRequestRequest struct {
	CustomerID    string `json:"customerId" binding:"required,uuid"`
	Product       string `json:"product"`
	ProblemText   string `json:"problemText" binding:"required"`
	AttachmentRef string `json:"attachmentRef"`
}

// ToServiceRequest converts the request into a domain service request.
func (r *CreateServiceRequestRequest) ToServiceRequest() (*servicereq.ServiceRequest, error) {
	customerID, err := id.Parse(r.CustomerID)
	if err != nil {
		return nil, apperror.NewValidation("invalid customerId")
	}
	return &servicereq.ServiceRequest{
		CustomerID:    customerID,
		Product:       r.Product,
		ProblemText:   r.ProblemText,
		AttachmentRef: r.AttachmentRef,
	}, nil
}

// TransitionServiceRequestRequest for status transitions.
type TransitionServiceRequestRequest struct {
	Status string `json:"status" binding:"required"`
}

// DiagnosedPartRequest is one part line of a diagnosis.
type DiagnosedPartRequest struct {
	PartID   string `json:"partId" binding:"required,uuid"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Price    string `json:"price"`
}

// SubmitDiagnosisRequest records the technician's diagnosis.
type SubmitDiagnosisRequest struct {
	Parts []DiagnosedPartRequest `json:"parts" binding:"required,min=1"`
	Notes string                 `json:"notes"`
}

// ToParts converts the diagnosis lines.
func (r *SubmitDiagnosisRequest) ToParts() ([]servicereq.DiagnosedPart, error) {
	parts := make([]servicereq.DiagnosedPart, 0, len(r.Parts))
	for _, p := range r.Parts {
		partID, err := id.Parse(p.PartID)
		if err != nil {
			return nil, apperror.NewValidation("invalid partId").WithDetail("part_id", p.PartID)
		}
		price := types.Zero()
		if p.Price != "" {
			price, err = types.NewMoneyFromString(p.Price)
			if err != nil {
				return nil, apperror.NewValidation("invalid price").WithDetail("part_id", p.PartID)
			}
		}
		parts = append(parts, servicereq.DiagnosedPart{PartID: partID, Quantity: p.Quantity, Price: price})
	}
	return parts, nil
}
