package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ventra/internal/core/apperror"
	"ventra/internal/core/types"
	"ventra/internal/domain/inventory"
	"ventra/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles spare-part and stock ledger endpoints.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
	repo    inventory.Repository
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service, repo inventory.Repository) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, service: service, repo: repo}
}

// ListParts handles GET /inventory/parts
func (h *InventoryHandler) ListParts(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f := q.ToFilter()
	if f.OrderBy == "" {
		f.OrderBy = "name"
	}

	res, err := h.repo.ListParts(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromListResult(res))
}

// GetPart handles GET /inventory/parts/:id
func (h *InventoryHandler) GetPart(c *gin.Context) {
	partID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	p, err := h.repo.GetPart(c.Request.Context(), partID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreatePart handles POST /inventory/parts
func (h *InventoryHandler) CreatePart(c *gin.Context) {
	var req dto.CreatePartRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := req.ToPart()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.CreatePart(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p.ID.String())
}

// UpdatePart handles PUT /inventory/parts/:id
// The stock counter is not touched here; it only moves through adjustments.
func (h *InventoryHandler) UpdatePart(c *gin.Context) {
	partID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePartRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.repo.GetPart(c.Request.Context(), partID)
	if err != nil {
		h.Error(c, err)
		return
	}
	p.Name = req.Name
	p.ReorderThreshold = req.ReorderThreshold
	if req.UnitPrice != "" {
		price, err := types.NewMoneyFromString(req.UnitPrice)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid unitPrice"))
			return
		}
		p.UnitPrice = price
	}

	if err := h.repo.UpdatePart(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// AdjustStock handles POST /inventory/parts/:id/adjust
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	partID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(partID)
	if err != nil {
		h.Error(c, err)
		return
	}

	p, err := h.service.AdjustStock(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// ConsumeParts handles POST /inventory/consume
// Decrements stock for every listed part against one service request.
func (h *InventoryHandler) ConsumeParts(c *gin.Context) {
	var req dto.ConsumePartsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	srID, usages, err := req.ToUsages()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.ConsumeForDiagnosis(c.Request.Context(), srID, usages); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "parts consumed")
}

// LowStock handles GET /inventory/low-stock
func (h *InventoryHandler) LowStock(c *gin.Context) {
	parts, err := h.service.ListLowStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": parts, "count": len(parts)})
}

// History handles GET /inventory/parts/:id/history
func (h *InventoryHandler) History(c *gin.Context) {
	partID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	res, err := h.service.History(c.Request.Context(), partID, q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromListResult(res))
}

// Reconcile handles POST /inventory/parts/:id/reconcile
// Rebuilds the denormalized counter from the ledger and reports the drift.
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	partID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	p, drift, err := h.service.Reconcile(c.Request.Context(), partID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ReconcileResponse{Part: p, Drift: drift})
}
