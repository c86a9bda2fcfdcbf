package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ventra/internal/core/id"
	"ventra/internal/domain/branch"
	"ventra/internal/domain/catalog"
	"ventra/internal/infrastructure/http/v1/dto"
)

// CatalogHandler handles product catalog and pricing endpoints.
type CatalogHandler struct {
	*BaseHandler
	service *catalog.Service
	repo    catalog.Repository
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(base *BaseHandler, service *catalog.Service, repo catalog.Repository) *CatalogHandler {
	return &CatalogHandler{BaseHandler: base, service: service, repo: repo}
}

// ListProducts handles GET /catalog/products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f := q.ToFilter()
	if f.OrderBy == "" {
		f.OrderBy = "name"
	}

	res, err := h.repo.ListProducts(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromListResult(res))
}

// GetProduct handles GET /catalog/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	p, err := h.repo.GetProduct(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreateProduct handles POST /catalog/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p := req.ToProduct()
	if err := h.service.CreateProduct(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p.ID.String())
}

// GetPricing handles GET /catalog/products/:id/pricing
func (h *CatalogHandler) GetPricing(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	pr, err := h.repo.GetPricing(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, pr)
}

// SetPricing handles PUT /catalog/products/:id/pricing
func (h *CatalogHandler) SetPricing(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.SetPricingRequest
	if !h.BindJSON(c, &req) {
		return
	}
	pricing, err := req.ToPricing()
	if err != nil {
		h.Error(c, err)
		return
	}
	pricing.ProductID = productID

	saved, err := h.service.SetPricing(c.Request.Context(), pricing)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, saved)
}

// BranchHandler handles branch catalog endpoints.
type BranchHandler struct {
	*BaseHandler
	repo branch.Repository
}

// NewBranchHandler creates a new branch handler.
func NewBranchHandler(base *BaseHandler, repo branch.Repository) *BranchHandler {
	return &BranchHandler{BaseHandler: base, repo: repo}
}

// List handles GET /branches
func (h *BranchHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	res, err := h.repo.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromListResult(res))
}

// Get handles GET /branches/:id
func (h *BranchHandler) Get(c *gin.Context) {
	branchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	b, err := h.repo.GetByID(c.Request.Context(), branchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Create handles POST /branches
func (h *BranchHandler) Create(c *gin.Context) {
	var req dto.CreateBranchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	b := req.ToBranch()
	b.ID = id.New()

	if err := h.repo.Create(c.Request.Context(), b); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, b.ID.String())
}
