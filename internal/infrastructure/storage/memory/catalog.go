package memory

import (
	"context"
	"time"

	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/domain"
	"ventra/internal/domain/catalog"
)

// CatalogRepo is the in-memory catalog.Repository.
type CatalogRepo struct {
	store *Store
}

var _ catalog.Repository = (*CatalogRepo)(nil)

// Catalog returns the product catalog repository view.
func (s *Store) Catalog() *CatalogRepo {
	return &CatalogRepo{store: s}
}

func productField(p catalog.Product, field string) (any, bool) {
	switch field {
	case "id":
		return p.ID, true
	case "name":
		return p.Name, true
	case "model":
		return p.Model, true
	case "brand":
		return p.Brand, true
	case "created_at":
		return p.CreatedAt, true
	}
	return nil, false
}

// ListProducts retrieves products.
func (r *CatalogRepo) ListProducts(ctx context.Context, f domain.ListFilter) (domain.ListResult[catalog.Product], error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := make([]catalog.Product, 0, len(r.store.products))
	for _, p := range r.store.products {
		if f.Search != "" && !containsFold(p.Name, f.Search) && !containsFold(p.Model, f.Search) && !containsFold(p.Brand, f.Search) {
			continue
		}
		ok, err := matchItems(p, f.Items, productField)
		if err != nil {
			return domain.ListResult[catalog.Product]{}, err
		}
		if ok {
			matched = append(matched, p)
		}
	}

	if err := sortRecords(matched, f.OrderBy, "name", productField); err != nil {
		return domain.ListResult[catalog.Product]{}, err
	}

	return page(matched, f), nil
}

// GetProduct fetches one product.
func (r *CatalogRepo) GetProduct(ctx context.Context, productID id.ID) (*catalog.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return &p, nil
}

// CreateProduct inserts a product.
func (r *CatalogRepo) CreateProduct(ctx context.Context, p *catalog.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	r.store.products[p.ID] = *p
	return nil
}

// UpdateProduct modifies a product.
func (r *CatalogRepo) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.products[p.ID]; !ok {
		return apperror.NewNotFound("product", p.ID.String())
	}
	r.store.products[p.ID] = *p
	return nil
}

// GetPricing fetches the pricing record for one product.
func (r *CatalogRepo) GetPricing(ctx context.Context, productID id.ID) (*catalog.Pricing, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.pricing[productID]
	if !ok {
		return nil, apperror.NewNotFound("pricing", productID.String())
	}
	return &p, nil
}

// ListPricing retrieves all pricing records.
func (r *CatalogRepo) ListPricing(ctx context.Context) ([]catalog.Pricing, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]catalog.Pricing, 0, len(r.store.pricing))
	for _, p := range r.store.pricing {
		out = append(out, p)
	}
	return out, nil
}

// SavePricing upserts the pricing record for a product.
func (r *CatalogRepo) SavePricing(ctx context.Context, p *catalog.Pricing) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.pricing[p.ProductID] = *p
	return nil
}
