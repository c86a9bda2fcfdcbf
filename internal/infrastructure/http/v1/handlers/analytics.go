package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ventra/internal/domain/analytics"
	"ventra/internal/infrastructure/http/v1/dto"
)

// AnalyticsHandler handles sales aggregation endpoints.
type AnalyticsHandler struct {
	*BaseHandler
	service *analytics.Service
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(base *BaseHandler, service *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{BaseHandler: base, service: service}
}

// Sales handles GET /analytics/sales
func (h *AnalyticsHandler) Sales(c *gin.Context) {
	var q dto.SalesQuery
	if !h.BindQuery(c, &q) {
		return
	}

	req, err := q.ToRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	agg, err := h.service.SalesForActor(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, agg)
}
