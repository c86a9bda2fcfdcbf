package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ventra/internal/core/apperror"
	"ventra/internal/domain/customers"
	"ventra/internal/infrastructure/http/v1/dto"
)

// CustomerHandler handles customer query endpoints.
type CustomerHandler struct {
	*BaseHandler
	service *customers.Service
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(base *BaseHandler, service *customers.Service) *CustomerHandler {
	return &CustomerHandler{BaseHandler: base, service: service}
}

// List handles GET /customers
// ?stats=true returns each customer with the order statistics block.
func (h *CustomerHandler) List(c *gin.Context) {
	var q dto.CustomerListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	sel, err := q.Selector()
	if err != nil {
		h.Error(c, err)
		return
	}
	f := q.ToFilter()

	if q.Stats {
		items, scopeEmpty, err := h.service.ListForActorWithStats(c.Request.Context(), h.Actor(c), f, sel)
		if err != nil {
			h.Error(c, err)
			return
		}
		resp := dto.ScopedListResponse{
			ListResponse: dto.ListResponse{
				Items:      items,
				TotalCount: int64(len(items)),
				Limit:      f.Limit,
				Offset:     f.Offset,
			},
		}
		if scopeEmpty {
			resp.ScopeEmpty = true
			resp.ScopeCode = apperror.CodeMissingBranchAssignment
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	page, err := h.service.ListForActor(c.Request.Context(), h.Actor(c), f, sel)
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
