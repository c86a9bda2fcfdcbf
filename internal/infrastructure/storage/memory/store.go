// Package memory provides in-memory repository implementations backed by a
// single mutex-protected store. Used for tests and the memory store driver;
// semantics mirror the PostgreSQL implementations, including the guarded
// stock counter update.
package memory

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"ventra/internal/core/id"
	"ventra/internal/domain"
	"ventra/internal/domain/auth"
	"ventra/internal/domain/branch"
	"ventra/internal/domain/catalog"
	"ventra/internal/domain/filter"
	"ventra/internal/domain/inventory"
	"ventra/internal/domain/orders"
	"ventra/internal/domain/servicereq"
)

// Store is the shared backing state for all memory repositories.
type Store struct {
	mu sync.RWMutex

	users    map[id.ID]auth.UserRecord
	branches map[id.ID]branch.Branch
	products map[id.ID]catalog.Product
	pricing  map[id.ID]catalog.Pricing
	orders   map[id.ID]orders.Order
	parts    map[id.ID]inventory.Part
	stockLog []inventory.StockLogEntry
	requests map[id.ID]servicereq.ServiceRequest
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:    make(map[id.ID]auth.UserRecord),
		branches: make(map[id.ID]branch.Branch),
		products: make(map[id.ID]catalog.Product),
		pricing:  make(map[id.ID]catalog.Pricing),
		orders:   make(map[id.ID]orders.Order),
		parts:    make(map[id.ID]inventory.Part),
		requests: make(map[id.ID]servicereq.ServiceRequest),
	}
}

// PutUser seeds or replaces an account record.
func (s *Store) PutUser(u auth.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = u
}

// --- filter evaluation ---

// fieldFn reads a named field from a record. Pointer fields are dereferenced;
// nil pointers read as nil so null checks work.
type fieldFn[T any] func(rec T, field string) (any, bool)

func matchItems[T any](rec T, items []filter.Item, get fieldFn[T]) (bool, error) {
	for _, it := range items {
		v, ok := get(rec, it.Field)
		if !ok {
			return false, fmt.Errorf("invalid filter column: %s", it.Field)
		}
		if !matchItem(v, it) {
			return false, nil
		}
	}
	return true, nil
}

func matchItem(v any, it filter.Item) bool {
	switch it.Operator {
	case filter.Equal:
		return equalAny(v, it.Value)
	case filter.NotEqual:
		return !equalAny(v, it.Value)
	case filter.LessOrEqual:
		c, ok := compareAny(v, it.Value)
		return ok && c <= 0
	case filter.GreaterOrEqual:
		c, ok := compareAny(v, it.Value)
		return ok && c >= 0
	case filter.InList:
		return inList(v, it.Value)
	case filter.NotInList:
		return !inList(v, it.Value)
	case filter.IsNull:
		return v == nil
	case filter.IsNotNull:
		return v != nil
	case filter.Contains:
		s, ok := v.(string)
		return ok && strings.Contains(strings.ToLower(s), strings.ToLower(fmt.Sprintf("%v", it.Value)))
	}
	return false
}

func equalAny(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func compareAny(a, b any) (int, bool) {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return at.Compare(bt), true
	}
	av, aok := toFloat(a)
	bv, bok := toFloat(b)
	if aok && bok {
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b)), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func inList(v, list any) bool {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return equalAny(v, list)
	}
	for i := 0; i < rv.Len(); i++ {
		if equalAny(v, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

// --- ordering and pagination ---

func sortRecords[T any](items []T, orderBy, fallback string, get fieldFn[T]) error {
	expr := orderBy
	if expr == "" {
		expr = fallback
	}
	desc := strings.HasPrefix(expr, "-")
	field := strings.TrimPrefix(strings.TrimPrefix(expr, "-"), "+")

	if len(items) == 0 {
		return nil
	}
	if _, ok := get(items[0], field); !ok {
		return fmt.Errorf("invalid orderBy field: %s", field)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, _ := get(items[i], field)
		b, _ := get(items[j], field)
		c, _ := compareAny(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
	return nil
}

func page[T any](items []T, f domain.ListFilter) domain.ListResult[T] {
	res := domain.ListResult[T]{
		TotalCount: int64(len(items)),
		Limit:      f.Limit,
		Offset:     f.Offset,
	}
	start := min(f.Offset, len(items))
	end := len(items)
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}
	res.Items = append([]T{}, items[start:end]...)
	return res
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
