package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/core/types"
	"ventra/internal/domain"
)

type fakeCatalogRepo struct {
	products map[id.ID]*Product
	pricing  map[id.ID]*Pricing
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		products: make(map[id.ID]*Product),
		pricing:  make(map[id.ID]*Pricing),
	}
}

func (r *fakeCatalogRepo) ListProducts(_ context.Context, _ domain.ListFilter) (domain.ListResult[Product], error) {
	res := domain.ListResult[Product]{}
	for _, p := range r.products {
		res.Items = append(res.Items, *p)
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

func (r *fakeCatalogRepo) GetProduct(_ context.Context, productID id.ID) (*Product, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	cp := *p
	return &cp, nil
}

func (r *fakeCatalogRepo) CreateProduct(_ context.Context, p *Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeCatalogRepo) UpdateProduct(_ context.Context, p *Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeCatalogRepo) GetPricing(_ context.Context, productID id.ID) (*Pricing, error) {
	p, ok := r.pricing[productID]
	if !ok {
		return nil, apperror.NewNotFound("pricing", productID.String())
	}
	cp := *p
	return &cp, nil
}

func (r *fakeCatalogRepo) ListPricing(_ context.Context) ([]Pricing, error) {
	out := make([]Pricing, 0, len(r.pricing))
	for _, p := range r.pricing {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeCatalogRepo) SavePricing(_ context.Context, p *Pricing) error {
	cp := *p
	r.pricing[p.ProductID] = &cp
	return nil
}

func TestRecalculateExactDecimal(t *testing.T) {
	cases := []struct {
		base, pct, want string
	}{
		{"100", "0", "100"},
		{"100", "15", "85"},
		{"199.99", "10", "179.991"},
		{"0.03", "33.33", "0.020001"},
		{"50", "100", "0"},
	}
	for _, tc := range cases {
		p := Pricing{BasePrice: types.MustMoney(tc.base), DiscountPct: types.MustMoney(tc.pct)}
		p.Recalculate()
		assert.True(t, p.FinalPrice.Equal(types.MustMoney(tc.want)),
			"base %s pct %s: got %s want %s", tc.base, tc.pct, p.FinalPrice, tc.want)
	}
}

func TestPricingValidate(t *testing.T) {
	valid := Pricing{ProductID: id.New(), BasePrice: types.MustMoney("10"), DiscountPct: types.MustMoney("5")}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name string
		mut  func(*Pricing)
	}{
		{"nil product id", func(p *Pricing) { p.ProductID = id.Nil() }},
		{"negative base price", func(p *Pricing) { p.BasePrice = types.MustMoney("-1") }},
		{"negative discount", func(p *Pricing) { p.DiscountPct = types.MustMoney("-0.01") }},
		{"discount over 100", func(p *Pricing) { p.DiscountPct = types.MustMoney("100.01") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mut(&p)
			err := p.Validate()
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "got %v", err)
		})
	}
}

func TestCreateProductWritesZeroPricing(t *testing.T) {
	repo := newFakeCatalogRepo()
	svc := NewService(repo)

	p := &Product{Name: "Arctic 9000", Model: "A-9000", Brand: "Frost"}
	require.NoError(t, svc.CreateProduct(context.Background(), p))
	assert.False(t, id.IsNil(p.ID))

	pricing, err := repo.GetPricing(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, pricing.BasePrice.IsZero())
	assert.True(t, pricing.FinalPrice.IsZero())
}

func TestCreateProductRequiresName(t *testing.T) {
	svc := NewService(newFakeCatalogRepo())
	err := svc.CreateProduct(context.Background(), &Product{})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestSetPricingDiscardsCallerFinalPrice(t *testing.T) {
	repo := newFakeCatalogRepo()
	svc := NewService(repo)
	p := &Product{Name: "Arctic 9000"}
	require.NoError(t, svc.CreateProduct(context.Background(), p))

	in := &Pricing{
		ProductID:   p.ID,
		BasePrice:   types.MustMoney("200"),
		DiscountPct: types.MustMoney("25"),
		FinalPrice:  types.MustMoney("1.00"), // must be ignored
	}
	got, err := svc.SetPricing(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, got.FinalPrice.Equal(types.MustMoney("150")), "got %s", got.FinalPrice)

	stored, err := repo.GetPricing(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, stored.FinalPrice.Equal(types.MustMoney("150")))
}

func TestSetPricingUnknownProduct(t *testing.T) {
	svc := NewService(newFakeCatalogRepo())
	_, err := svc.SetPricing(context.Background(), &Pricing{
		ProductID: id.New(),
		BasePrice: types.MustMoney("10"),
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestBuildPriceIndexMissingPricingFallsBackToZero(t *testing.T) {
	repo := newFakeCatalogRepo()
	svc := NewService(repo)

	priced := &Product{Name: "Priced"}
	require.NoError(t, svc.CreateProduct(context.Background(), priced))
	_, err := svc.SetPricing(context.Background(), &Pricing{
		ProductID: priced.ID,
		BasePrice: types.MustMoney("80"),
	})
	require.NoError(t, err)

	// Product row without any pricing record at all.
	orphan := &Product{ID: id.New(), Name: "Orphan"}
	require.NoError(t, repo.CreateProduct(context.Background(), orphan))

	idx, err := svc.BuildPriceIndex(context.Background())
	require.NoError(t, err)
	require.Len(t, idx, 2)
	assert.Equal(t, "Priced", idx[priced.ID].Name)
	assert.True(t, idx[priced.ID].FinalPrice.Equal(types.MustMoney("80")))
	assert.Equal(t, "Orphan", idx[orphan.ID].Name)
	assert.True(t, idx[orphan.ID].FinalPrice.IsZero())
}
