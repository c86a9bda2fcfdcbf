package analytics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"ventra/internal/core/id"
	"ventra/internal/core/types"
	"ventra/internal/domain/access"
	"ventra/internal/domain/catalog"
	"ventra/internal/domain/orders"
)

// TopProductsLimit caps the top-product ranking.
const TopProductsLimit = 10

// Filters narrows the aggregate beyond the access tier and date window.
type Filters struct {
	BranchID *id.ID
	Status   *orders.OrderStatus

	// Search matches, case-insensitive, against the order's customer
	// display name and the names of its products.
	Search string
}

// Input is everything the engine needs; all reference data is pre-fetched.
type Input struct {
	Orders      []orders.Order
	Prices      catalog.PriceIndex
	BranchNames map[id.ID]string
	Window      Window
	Filters     Filters

	// Tier is applied inside the engine as well as at the query layer;
	// aggregation never bypasses the caller's visibility scope.
	Tier    access.Tier
	ActorID id.ID
}

// DailyBucket is revenue and order count for one calendar day.
type DailyBucket struct {
	Day     string      `json:"day"` // 2006-01-02
	Revenue types.Money `json:"revenue"`
	Orders  int         `json:"orders"`
}

// ProductBucket is revenue and unit count for one product.
type ProductBucket struct {
	Name     string      `json:"name"`
	Quantity int         `json:"quantity"`
	Revenue  types.Money `json:"revenue"`
}

// BranchBucket is revenue and order count for one branch.
type BranchBucket struct {
	Name    string      `json:"name"`
	Revenue types.Money `json:"revenue"`
	Orders  int         `json:"orders"`
}

// SalesAggregate is the computed dashboard roll-up.
type SalesAggregate struct {
	TotalRevenue      types.Money `json:"totalRevenue"`
	TotalOrders       int         `json:"totalOrders"`
	AverageOrderValue types.Money `json:"averageOrderValue"`

	Daily       []DailyBucket   `json:"daily"`
	TopProducts []ProductBucket `json:"topProducts"`
	Branches    []BranchBucket  `json:"branches"`
	ByStatus    map[string]int  `json:"byStatus"`
}

// Compute rolls up the order set. Pure: no I/O, no mutation of input.
//
// Bucket sums are computed from the same per-order totals as the flat sum,
// so totalRevenue always equals the sum over daily buckets exactly.
func Compute(in Input) SalesAggregate {
	allowed := in.Tier.OrderPredicate(in.ActorID)
	search := strings.ToLower(strings.TrimSpace(in.Filters.Search))

	agg := SalesAggregate{
		TotalRevenue:      types.Zero(),
		AverageOrderValue: types.Zero(),
		ByStatus:          make(map[string]int),
	}

	type dayAcc struct {
		revenue types.Money
		orders  int
	}
	type groupAcc struct {
		revenue  types.Money
		quantity int
	}
	days := make(map[string]*dayAcc)
	products := make(map[string]*groupAcc)
	prodOrder := []string{} // insertion order for stable equal-revenue ties
	branches := make(map[string]*groupAcc)
	branchOrder := []string{}

	for _, o := range in.Orders {
		if !allowed(o.BranchID, o.CustomerID) {
			continue
		}
		if !in.Window.Contains(o.CreatedAt) {
			continue
		}
		if in.Filters.BranchID != nil && o.BranchID != *in.Filters.BranchID {
			continue
		}
		if in.Filters.Status != nil && o.Status != *in.Filters.Status {
			continue
		}
		if search != "" && !matchesSearch(o, in.Prices, search) {
			continue
		}

		total := orderTotal(o, in.Prices)

		agg.TotalOrders++
		agg.TotalRevenue = agg.TotalRevenue.Add(total)
		agg.ByStatus[string(o.Status)]++

		day := o.CreatedAt.Format("2006-01-02")
		if d, ok := days[day]; ok {
			d.revenue = d.revenue.Add(total)
			d.orders++
		} else {
			days[day] = &dayAcc{revenue: total, orders: 1}
		}

		for _, pid := range o.ProductIDs {
			entry, ok := in.Prices[pid]
			name := entry.Name
			if !ok || name == "" {
				name = pid.String()
			}
			price := entry.FinalPrice
			if p, ok := products[name]; ok {
				p.revenue = p.revenue.Add(price)
				p.quantity++
			} else {
				products[name] = &groupAcc{revenue: price, quantity: 1}
				prodOrder = append(prodOrder, name)
			}
		}

		bname := in.BranchNames[o.BranchID]
		if bname == "" {
			bname = o.BranchID.String()
		}
		if b, ok := branches[bname]; ok {
			b.revenue = b.revenue.Add(total)
			b.quantity++
		} else {
			branches[bname] = &groupAcc{revenue: total, quantity: 1}
			branchOrder = append(branchOrder, bname)
		}
	}

	// Daily buckets ascending by calendar day.
	dayKeys := make([]string, 0, len(days))
	for k := range days {
		dayKeys = append(dayKeys, k)
	}
	sort.Strings(dayKeys)
	agg.Daily = make([]DailyBucket, 0, len(dayKeys))
	for _, k := range dayKeys {
		agg.Daily = append(agg.Daily, DailyBucket{Day: k, Revenue: days[k].revenue, Orders: days[k].orders})
	}

	// Product buckets descending by revenue, insertion order on ties,
	// truncated to the top-N ranking.
	prods := make([]ProductBucket, 0, len(prodOrder))
	for _, name := range prodOrder {
		prods = append(prods, ProductBucket{Name: name, Quantity: products[name].quantity, Revenue: products[name].revenue})
	}
	sort.SliceStable(prods, func(i, j int) bool {
		return prods[i].Revenue.GreaterThan(prods[j].Revenue)
	})
	if len(prods) > TopProductsLimit {
		prods = prods[:TopProductsLimit]
	}
	agg.TopProducts = prods

	// Branch buckets descending by revenue.
	brs := make([]BranchBucket, 0, len(branchOrder))
	for _, name := range branchOrder {
		brs = append(brs, BranchBucket{Name: name, Revenue: branches[name].revenue, Orders: branches[name].quantity})
	}
	sort.SliceStable(brs, func(i, j int) bool {
		return brs[i].Revenue.GreaterThan(brs[j].Revenue)
	})
	agg.Branches = brs

	if agg.TotalOrders > 0 {
		agg.AverageOrderValue = agg.TotalRevenue.Div(decimal.NewFromInt(int64(agg.TotalOrders)))
	}

	return agg
}

// orderTotal sums the final prices of the order's products plus delivery fee.
// Unknown product references price at zero instead of failing the roll-up.
func orderTotal(o orders.Order, prices catalog.PriceIndex) types.Money {
	total := o.DeliveryFee
	for _, pid := range o.ProductIDs {
		total = total.Add(prices[pid].FinalPrice)
	}
	return total
}

func matchesSearch(o orders.Order, prices catalog.PriceIndex, search string) bool {
	if strings.Contains(strings.ToLower(o.CustomerDisplayName()), search) {
		return true
	}
	for _, pid := range o.ProductIDs {
		if strings.Contains(strings.ToLower(prices[pid].Name), search) {
			return true
		}
	}
	return false
}
