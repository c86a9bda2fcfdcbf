package dto

import (
	"ventra/internal/core/apperror"
	"ventra/internal/core/types"
	"ventra/internal/domain/branch"
	"ventra/internal/domain/catalog"
)

// --- Products ---

// CreateProductRequest for creating catalog products.
type CreateProductRequest struct {
	Name  string `json:"name" binding:"required"`
	Model string `json:"model"`
	Brand string `json:"brand"`
}

// ToProduct converts the request into a domain product.
func (r *CreateProductRequest) ToProduct() *catalog.Product {
	return &catalog.Product{Name: r.Name, Model: r.Model, Brand: r.Brand}
}

// SetPricingRequest sets base price and discount for a product.
// finalPrice is never accepted from the client; it is recomputed on write.
type SetPricingRequest struct {
	BasePrice   string `json:"basePrice" binding:"required"`
	DiscountPct string `json:"discountPct"`
}

// ToPricing converts the request into a pricing record.
func (r *SetPricingRequest) ToPricing() (*catalog.Pricing, error) {
	base, err := types.NewMoneyFromString(r.BasePrice)
	if err != nil {
		return nil, apperror.NewValidation("invalid basePrice")
	}
	discount := types.Zero()
	if r.DiscountPct != "" {
		discount, err = types.NewMoneyFromString(r.DiscountPct)
		if err != nil {
			return nil, apperror.NewValidation("invalid discountPct")
		}
	}
	return &catalog.Pricing{BasePrice: base, DiscountPct: discount}, nil
}

// --- Branches ---

// CreateBranchRequest for creating branches.
type CreateBranchRequest struct {
	Name         string   `json:"name" binding:"required"`
	ContactEmail string   `json:"contactEmail" binding:"omitempty,email"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

// ToBranch converts the request into a domain branch.
func (r *CreateBranchRequest) ToBranch() *branch.Branch {
	return &branch.Branch{
		Name:         r.Name,
		ContactEmail: r.ContactEmail,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
	}
}
