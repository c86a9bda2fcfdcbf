package dto

import (
	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/core/types"
	"ventra/internal/domain/inventory"
)

// CreatePartRequest for creating spare parts.
type CreatePartRequest struct {
	Name             string `json:"name" binding:"required"`
	StockCount       int    `json:"stockCount" binding:"omitempty,min=0"`
	ReorderThreshold int    `json:"reorderThreshold" binding:"omitempty,min=0"`
	UnitPrice        string `json:"unitPrice"`
}

// ToPart converts the request into a domain part.
func (r *CreatePartRequest) ToPart() (*inventory.Part, error) {
	p := &inventory.Part{
		Name:             r.Name,
		StockCount:       r.StockCount,
		ReorderThreshold: r.ReorderThreshold,
		UnitPrice:        types.Zero(),
	}
	if r.UnitPrice != "" {
		price, err := types.NewMoneyFromString(r.UnitPrice)
		if err != nil {
			return nil, apperror.NewValidation("invalid unitPrice")
		}
		p.UnitPrice = price
	}
	return p, nil
}

// UpdatePartRequest for updating part attributes. The stock counter is not
// updatable here; it only moves through adjustments.
type UpdatePartRequest struct {
	Name             string `json:"name" binding:"required"`
	ReorderThreshold int    `json:"reorderThreshold" binding:"omitempty,min=0"`
	UnitPrice        string `json:"unitPrice"`
}

// AdjustStockRequest for one stock adjustment.
type AdjustStockRequest struct {
	DeltaQuantity           int     `json:"deltaQuantity" binding:"required"`
	Type                    string  `json:"type" binding:"required"`
	Notes                   string  `json:"notes"`
	RelatedServiceRequestID *string `json:"relatedServiceRequestId"`
}

// ToInput converts the request into an adjustment input for the given part.
func (r *AdjustStockRequest) ToInput(partID id.ID) (inventory.AdjustInput, error) {
	in := inventory.AdjustInput{
		PartID:        partID,
		DeltaQuantity: r.DeltaQuantity,
		Type:          inventory.ChangeType(r.Type),
		Notes:         r.Notes,
	}
	if r.RelatedServiceRequestID != nil && *r.RelatedServiceRequestID != "" {
		srID, err := id.Parse(*r.RelatedServiceRequestID)
		if err != nil {
			return inventory.AdjustInput{}, apperror.NewValidation("invalid relatedServiceRequestId")
		}
		in.RelatedServiceRequestID = &srID
	}
	return in, nil
}

// PartUsageRequest is one line of a multi-part consumption.
type PartUsageRequest struct {
	PartID   string `json:"partId" binding:"required,uuid"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// ConsumePartsRequest for consuming parts against a service request.
type ConsumePartsRequest struct {
	ServiceRequestID string             `json:"serviceRequestId" binding:"required,uuid"`
	Parts            []PartUsageRequest `json:"parts" binding:"required,min=1"`
}

// ToUsages converts the request lines.
func (r *ConsumePartsRequest) ToUsages() (id.ID, []inventory.PartUsage, error) {
	srID, err := id.Parse(r.ServiceRequestID)
	if err != nil {
		return id.Nil(), nil, apperror.NewValidation("invalid serviceRequestId")
	}
	usages := make([]inventory.PartUsage, 0, len(r.Parts))
	for _, p := range r.Parts {
		partID, err := id.Parse(p.PartID)
		if err != nil {
			return id.Nil(), nil, apperror.NewValidation("invalid partId").WithDetail("part_id", p.PartID)
		}
		usages = append(usages, inventory.PartUsage{PartID: partID, Quantity: p.Quantity})
	}
	return srID, usages, nil
}

// ReconcileResponse reports the result of a counter rebuild.
type ReconcileResponse struct {
	Part  *inventory.Part `json:"part"`
	Drift int             `json:"drift"`
}
