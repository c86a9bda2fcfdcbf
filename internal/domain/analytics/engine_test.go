package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ventra/internal/core/id"
	"ventra/internal/core/types"
	"ventra/internal/domain/access"
	"ventra/internal/domain/catalog"
	"ventra/internal/domain/orders"
)

var wideWindow = Window{
	From: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	To:   time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
}

func unrestricted() access.Tier {
	return access.Tier{Kind: access.TierUnrestricted}
}

func aggOrder(branchID id.ID, productIDs []id.ID, status orders.OrderStatus, fee string, at time.Time) orders.Order {
	return orders.Order{
		ID:          id.New(),
		GuestName:   "Guest",
		BranchID:    branchID,
		Status:      status,
		ProductIDs:  productIDs,
		DeliveryFee: types.MustMoney(fee),
		CreatedAt:   at,
	}
}

func TestComputeTotalsAndAOV(t *testing.T) {
	branchID := id.New()
	productID := id.New()
	prices := catalog.PriceIndex{
		productID: {Name: "Split AC", FinalPrice: types.MustMoney("100.00")},
	}
	at := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	agg := Compute(Input{
		Orders: []orders.Order{
			aggOrder(branchID, []id.ID{productID}, orders.StatusCompleted, "10.00", at),
			aggOrder(branchID, []id.ID{productID, productID}, orders.StatusPending, "5.00", at),
		},
		Prices:  prices,
		Window:  wideWindow,
		Tier:    unrestricted(),
		ActorID: id.New(),
	})

	assert.Equal(t, 2, agg.TotalOrders)
	assert.True(t, agg.TotalRevenue.Equal(types.MustMoney("315.00")), "got %s", agg.TotalRevenue)
	assert.True(t, agg.AverageOrderValue.Equal(types.MustMoney("157.50")), "got %s", agg.AverageOrderValue)
	assert.Equal(t, 1, agg.ByStatus["completed"])
	assert.Equal(t, 1, agg.ByStatus["Pending"])
}

func TestComputeEmptySetAOVIsZero(t *testing.T) {
	agg := Compute(Input{Window: wideWindow, Tier: unrestricted(), ActorID: id.New()})

	assert.Equal(t, 0, agg.TotalOrders)
	assert.True(t, agg.TotalRevenue.IsZero())
	assert.True(t, agg.AverageOrderValue.IsZero(), "empty set must not divide by zero")
	assert.Empty(t, agg.Daily)
}

func TestComputeDailyBucketsSumToTotal(t *testing.T) {
	branchID := id.New()
	productID := id.New()
	prices := catalog.PriceIndex{productID: {Name: "Unit", FinalPrice: types.MustMoney("33.33")}}

	var all []orders.Order
	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 9; i++ {
		all = append(all, aggOrder(branchID, []id.ID{productID}, orders.StatusCompleted, "1.11", base.AddDate(0, 0, i%3)))
	}

	agg := Compute(Input{Orders: all, Prices: prices, Window: wideWindow, Tier: unrestricted(), ActorID: id.New()})

	sum := types.Zero()
	for _, d := range agg.Daily {
		sum = sum.Add(d.Revenue)
	}
	assert.True(t, sum.Equal(agg.TotalRevenue), "daily buckets %s must sum exactly to total %s", sum, agg.TotalRevenue)
	assert.Len(t, agg.Daily, 3)
	// Ascending by day.
	assert.Equal(t, "2026-06-01", agg.Daily[0].Day)
	assert.Equal(t, "2026-06-03", agg.Daily[2].Day)
}

func TestComputeTopProductsRanking(t *testing.T) {
	branchID := id.New()
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	prices := catalog.PriceIndex{}
	var all []orders.Order
	// 12 products; product k appears k+1 times at price 10. Top-10 cutoff
	// must drop the two least sold.
	for k := 0; k < 12; k++ {
		pid := id.New()
		prices[pid] = catalog.PriceEntry{Name: fmt.Sprintf("Product %02d", k), FinalPrice: types.MustMoney("10")}
		for n := 0; n <= k; n++ {
			all = append(all, aggOrder(branchID, []id.ID{pid}, orders.StatusCompleted, "0", at))
		}
	}

	agg := Compute(Input{Orders: all, Prices: prices, Window: wideWindow, Tier: unrestricted(), ActorID: id.New()})

	assert.Len(t, agg.TopProducts, TopProductsLimit)
	assert.Equal(t, "Product 11", agg.TopProducts[0].Name)
	assert.Equal(t, 12, agg.TopProducts[0].Quantity)
	// Descending revenue throughout.
	for i := 1; i < len(agg.TopProducts); i++ {
		assert.False(t, agg.TopProducts[i].Revenue.GreaterThan(agg.TopProducts[i-1].Revenue))
	}
}

func TestComputeWindowFilter(t *testing.T) {
	branchID := id.New()
	productID := id.New()
	prices := catalog.PriceIndex{productID: {Name: "Unit", FinalPrice: types.MustMoney("50")}}
	window := Window{
		From: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 6, 1, 23, 59, 59, 0, time.UTC),
	}

	agg := Compute(Input{
		Orders: []orders.Order{
			aggOrder(branchID, []id.ID{productID}, orders.StatusCompleted, "0", time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)),
			aggOrder(branchID, []id.ID{productID}, orders.StatusCompleted, "0", time.Date(2026, 6, 2, 0, 0, 1, 0, time.UTC)),
		},
		Prices:  prices,
		Window:  window,
		Tier:    unrestricted(),
		ActorID: id.New(),
	})

	assert.Equal(t, 1, agg.TotalOrders)
}

func TestComputeReappliesTierScope(t *testing.T) {
	branchA, branchB := id.New(), id.New()
	productID := id.New()
	prices := catalog.PriceIndex{productID: {Name: "Unit", FinalPrice: types.MustMoney("100")}}
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	// The snapshot deliberately contains an out-of-scope order; the engine
	// must drop it even though the query layer should have filtered it.
	in := Input{
		Orders: []orders.Order{
			aggOrder(branchA, []id.ID{productID}, orders.StatusCompleted, "0", at),
			aggOrder(branchB, []id.ID{productID}, orders.StatusCompleted, "0", at),
		},
		Prices:  prices,
		Window:  wideWindow,
		Tier:    access.Tier{Kind: access.TierBranchScoped, BranchIDs: []id.ID{branchA}},
		ActorID: id.New(),
	}

	agg := Compute(in)
	assert.Equal(t, 1, agg.TotalOrders)
	assert.True(t, agg.TotalRevenue.Equal(types.MustMoney("100")))
}

func TestComputeExplicitFilters(t *testing.T) {
	branchA, branchB := id.New(), id.New()
	productID := id.New()
	prices := catalog.PriceIndex{productID: {Name: "Frost Inverter", FinalPrice: types.MustMoney("10")}}
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	all := []orders.Order{
		aggOrder(branchA, []id.ID{productID}, orders.StatusCompleted, "0", at),
		aggOrder(branchB, []id.ID{productID}, orders.StatusPending, "0", at),
	}

	t.Run("branch filter", func(t *testing.T) {
		agg := Compute(Input{Orders: all, Prices: prices, Window: wideWindow, Tier: unrestricted(), ActorID: id.New(),
			Filters: Filters{BranchID: &branchA}})
		assert.Equal(t, 1, agg.TotalOrders)
	})

	t.Run("status filter", func(t *testing.T) {
		status := orders.StatusPending
		agg := Compute(Input{Orders: all, Prices: prices, Window: wideWindow, Tier: unrestricted(), ActorID: id.New(),
			Filters: Filters{Status: &status}})
		assert.Equal(t, 1, agg.TotalOrders)
	})

	t.Run("search matches product name case-insensitively", func(t *testing.T) {
		agg := Compute(Input{Orders: all, Prices: prices, Window: wideWindow, Tier: unrestricted(), ActorID: id.New(),
			Filters: Filters{Search: "frost"}})
		assert.Equal(t, 2, agg.TotalOrders)

		agg = Compute(Input{Orders: all, Prices: prices, Window: wideWindow, Tier: unrestricted(), ActorID: id.New(),
			Filters: Filters{Search: "no-such-thing"}})
		assert.Equal(t, 0, agg.TotalOrders)
	})
}

func TestComputeUnknownProductPricesAtZero(t *testing.T) {
	branchID := id.New()
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	agg := Compute(Input{
		Orders:  []orders.Order{aggOrder(branchID, []id.ID{id.New()}, orders.StatusCompleted, "7.00", at)},
		Prices:  catalog.PriceIndex{},
		Window:  wideWindow,
		Tier:    unrestricted(),
		ActorID: id.New(),
	})

	assert.Equal(t, 1, agg.TotalOrders)
	assert.True(t, agg.TotalRevenue.Equal(types.MustMoney("7.00")), "unknown products contribute zero, not an error")
}
