package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ventra/internal/domain/servicereq"
	"ventra/internal/infrastructure/http/v1/dto"
)

// ServiceRequestHandler handles repair request endpoints.
type ServiceRequestHandler struct {
	*BaseHandler
	service *servicereq.Service
}

// NewServiceRequestHandler creates a new service request handler.
func NewServiceRequestHandler(base *BaseHandler, service *servicereq.Service) *ServiceRequestHandler {
	return &ServiceRequestHandler{BaseHandler: base, service: service}
}

// List handles GET /service-requests
func (h *ServiceRequestHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	res, err := h.service.ListForActor(c.Request.Context(), h.Actor(c), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromListResult(res))
}

// Get handles GET /service-requests/:id
func (h *ServiceRequestHandler) Get(c *gin.Context) {
	requestID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	sr, err := h.service.GetForActor(c.Request.Context(), h.Actor(c), requestID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, sr)
}

// Create handles POST /service-requests
func (h *ServiceRequestHandler) Create(c *gin.Context) {
	var req dto.CreateServiceRequestRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sr, err := req.ToServiceRequest()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Create(c.Request.Context(), sr); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, sr.ID.String())
}

// Transition handles POST /service-requests/:id/status
func (h *ServiceRequestHandler) Transition(c *gin.Context) {
	requestID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.TransitionServiceRequestRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sr, err := h.service.Transition(c.Request.Context(), h.Actor(c), requestID, servicereq.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sr)
}

// AssignTechnician handles POST /service-requests/:id/technician
func (h *ServiceRequestHandler) AssignTechnician(c *gin.Context) {
	requestID, ok := h.PathID(c, "id")
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

	sr, err := h.service.AssignTechnician(c.Request.Context(), h.Actor(c), requestID, technicianID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sr)
}

// SubmitDiagnosis handles POST /service-requests/:id/diagnosis
// Records the diagnosis and consumes the listed parts through the ledger.
func (h *ServiceRequestHandler) SubmitDiagnosis(c *gin.Context) {
	requestID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.SubmitDiagnosisRequest
	if !h.BindJSON(c, &req) {
		return
	}
	parts, err := req.ToParts()
	if err != nil {
		h.Error(c, err)
		return
	}

	sr, err := h.service.SubmitDiagnosis(c.Request.Context(), h.Actor(c), requestID, parts, req.Notes)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sr)
}
