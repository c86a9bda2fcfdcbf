package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/domain"
	"ventra/internal/domain/catalog"
)

const (
	productsTable = "products"
	pricingTable  = "product_pricing"
)

var productColumns = ExtractDBColumns[catalog.Product]()
var pricingColumns = ExtractDBColumns[catalog.Pricing]()

// CatalogRepo implements catalog.Repository.
type CatalogRepo struct {
	txm *TxManager
}

var _ catalog.Repository = (*CatalogRepo)(nil)

// NewCatalogRepo creates the product catalog repository.
func NewCatalogRepo(txm *TxManager) *CatalogRepo {
	return &CatalogRepo{txm: txm}
}

// ListProducts retrieves products.
func (r *CatalogRepo) ListProducts(ctx context.Context, f domain.ListFilter) (domain.ListResult[catalog.Product], error) {
	result := domain.ListResult[catalog.Product]{
		Items:  []catalog.Product{},
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := builder().Select(productColumns...).From(productsTable)

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"model": pattern},
			squirrel.ILike{"brand": pattern},
		})
	}

	validCols := colSet(productColumns...)
	q, err := applyFilterItems(q, f.Items, validCols)
	if err != nil {
		return result, err
	}

	countQ := builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count products: %w", err)
	}

	orderBy, err := parseOrderBy(f.OrderBy, "name ASC", validCols)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list products: %w", err)
	}

	return result, nil
}

// GetProduct fetches one product.
func (r *CatalogRepo) GetProduct(ctx context.Context, productID id.ID) (*catalog.Product, error) {
	q := builder().Select(productColumns...).From(productsTable).
		Where(squirrel.Eq{"id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p catalog.Product
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// CreateProduct inserts a product.
func (r *CatalogRepo) CreateProduct(ctx context.Context, p *catalog.Product) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	q := builder().Insert(productsTable).
		Columns(productColumns...).
		Values(p.ID, p.Name, p.Model, p.Brand, p.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// UpdateProduct modifies a product.
func (r *CatalogRepo) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	q := builder().Update(productsTable).
		Set("name", p.Name).
		Set("model", p.Model).
		Set("brand", p.Brand).
		Where(squirrel.Eq{"id": p.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", p.ID.String())
	}
	return nil
}

// GetPricing fetches the pricing record for one product.
func (r *CatalogRepo) GetPricing(ctx context.Context, productID id.ID) (*catalog.Pricing, error) {
	q := builder().Select(pricingColumns...).From(pricingTable).
		Where(squirrel.Eq{"product_id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p catalog.Pricing
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("pricing", productID.String())
		}
		return nil, fmt.Errorf("get pricing: %w", err)
	}
	return &p, nil
}

// ListPricing retrieves all pricing records.
func (r *CatalogRepo) ListPricing(ctx context.Context) ([]catalog.Pricing, error) {
	q := builder().Select(pricingColumns...).From(pricingTable)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var pricing []catalog.Pricing
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &pricing, sql, args...); err != nil {
		return nil, fmt.Errorf("list pricing: %w", err)
	}
	return pricing, nil
}

// SavePricing upserts the pricing record for a product.
func (r *CatalogRepo) SavePricing(ctx context.Context, p *catalog.Pricing) error {
	sql := `
		INSERT INTO product_pricing (product_id, base_price, discount_pct, final_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id) DO UPDATE SET
			base_price = $2,
			discount_pct = $3,
			final_price = $4
	`

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, p.ProductID, p.BasePrice, p.DiscountPct, p.FinalPrice); err != nil {
		return fmt.Errorf("save pricing: %w", err)
	}
	return nil
}
