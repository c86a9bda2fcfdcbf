// Package catalog provides the Product catalog and its pricing records.
// Product and Pricing are joined 1:1; finalPrice is always recomputed from
// basePrice and discountPct on write, never trusted from input.
package catalog

import (
	"context"
	"time"

	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/core/types"
	"ventra/internal/domain"

	"github.com/shopspring/decimal"
)

// Product describes a sellable HVAC unit.
type Product struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Model     string    `db:"model" json:"model"`
	Brand     string    `db:"brand" json:"brand"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Pricing is the price record for one product.
type Pricing struct {
	ProductID   id.ID       `db:"product_id" json:"productId"`
	BasePrice   types.Money `db:"base_price" json:"basePrice"`
	DiscountPct types.Money `db:"discount_pct" json:"discountPct"`
	FinalPrice  types.Money `db:"final_price" json:"finalPrice"`
}

// Recalculate restores the pricing invariant:
// finalPrice = basePrice * (1 - discountPct/100), in exact decimal.
func (p *Pricing) Recalculate() {
	hundred := decimal.NewFromInt(100)
	p.FinalPrice = p.BasePrice.Mul(hundred.Sub(p.DiscountPct)).Div(hundred)
}

// Validate checks pricing inputs.
func (p *Pricing) Validate() error {
	if id.IsNil(p.ProductID) {
		return apperror.NewValidation("productId is required")
	}
	if p.BasePrice.IsNegative() {
		return apperror.NewValidation("basePrice cannot be negative")
	}
	hundred := decimal.NewFromInt(100)
	if p.DiscountPct.IsNegative() || p.DiscountPct.GreaterThan(hundred) {
		return apperror.NewValidation("discountPct must be between 0 and 100")
	}
	return nil
}

// Repository defines product and pricing persistence.
type Repository interface {
	ListProducts(ctx context.Context, f domain.ListFilter) (domain.ListResult[Product], error)
	GetProduct(ctx context.Context, productID id.ID) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error

	GetPricing(ctx context.Context, productID id.ID) (*Pricing, error)
	ListPricing(ctx context.Context) ([]Pricing, error)
	SavePricing(ctx context.Context, p *Pricing) error
}

// PriceIndex maps product id to display name and effective price, the shape
// the aggregation engine consumes.
type PriceIndex map[id.ID]PriceEntry

// PriceEntry is one product's aggregation-relevant data.
type PriceEntry struct {
	Name       string
	FinalPrice types.Money
}

// Service provides catalog business operations.
type Service struct {
	repo Repository
}

// NewService creates the catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateProduct stores a product with zeroed pricing.
func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	if p.Name == "" {
		return apperror.NewValidation("name is required")
	}
	if id.IsNil(p.ID) {
		p.ID = id.New()
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return err
	}
	pricing := &Pricing{ProductID: p.ID, BasePrice: types.Zero(), DiscountPct: types.Zero()}
	pricing.Recalculate()
	return s.repo.SavePricing(ctx, pricing)
}

// SetPricing validates, recomputes the final price and stores the record.
// Whatever finalPrice the caller sent is discarded.
func (s *Service) SetPricing(ctx context.Context, p *Pricing) (*Pricing, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetProduct(ctx, p.ProductID); err != nil {
		return nil, err
	}
	p.Recalculate()
	if err := s.repo.SavePricing(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// BuildPriceIndex loads products and pricing and joins them for aggregation.
// Products with no pricing record price at zero rather than being dropped.
func (s *Service) BuildPriceIndex(ctx context.Context) (PriceIndex, error) {
	products, err := s.repo.ListProducts(ctx, domain.ListFilter{})
	if err != nil {
		return nil, err
	}
	pricing, err := s.repo.ListPricing(ctx)
	if err != nil {
		return nil, err
	}

	prices := make(map[id.ID]types.Money, len(pricing))
	for _, p := range pricing {
		prices[p.ProductID] = p.FinalPrice
	}

	idx := make(PriceIndex, len(products.Items))
	for _, p := range products.Items {
		entry := PriceEntry{Name: p.Name, FinalPrice: types.Zero()}
		if fp, ok := prices[p.ID]; ok {
			entry.FinalPrice = fp
		}
		idx[p.ID] = entry
	}
	return idx, nil
}
