package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ventra/internal/domain/orders"
	"ventra/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles sales order endpoints.
type OrderHandler struct {
	*BaseHandler
	service *orders.Service
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *orders.Service) *OrderHandler {
	return &OrderHandler{BaseHandler: base, service: service}
}

// List handles GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	var q dto.OrderListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	f := q.ToFilter()
	extra, err := q.ExtraItems()
	if err != nil {
		h.Error(c, err)
		return
	}
	f.Items = append(f.Items, extra...)

	page, err := h.service.ListForActor(c.Request.Context(), h.Actor(c), f)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ScopedListResponse{
		ListResponse: dto.FromListResult(page.ListResult),
		ScopeEmpty:   page.ScopeEmpty,
		ScopeCode:    page.ScopeCode,
	})
}

// Get handles GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	o, err := h.service.GetForActor(c.Request.Context(), h.Actor(c), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// Create handles POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := req.ToOrder()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), o); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, o.ID.String())
}

// Transition handles POST /orders/:id/status
func (h *OrderHandler) Transition(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.TransitionOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.Transition(c.Request.Context(), h.Actor(c), orderID, orders.OrderStatus(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// AssignTechnician handles POST /orders/:id/technician
func (h *OrderHandler) AssignTechnician(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.AssignTechnicianRequest
	if !h.BindJSON(c, &req) {
		return
	}
	technicianID, err := parseUUIDField(req.TechnicianID, "technicianId")
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.AssignTechnician(c.Request.Context(), h.Actor(c), orderID, technicianID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "technician assigned")
}

// BulkDelete handles POST /orders/bulk-delete
func (h *OrderHandler) BulkDelete(c *gin.Context) {
	var req dto.BulkDeleteOrdersRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ids, err := req.ParseIDs()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.BulkDelete(c.Request.Context(), h.Actor(c), ids); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
