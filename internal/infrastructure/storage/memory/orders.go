package memory

import (
	"context"
	"time"

	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/domain"
	"ventra/internal/domain/orders"
)

// OrderRepo is the in-memory orders.Repository.
type OrderRepo struct {
	store *Store
}

var _ orders.Repository = (*OrderRepo)(nil)

// Orders returns the order repository view over the store.
func (s *Store) Orders() *OrderRepo {
	return &OrderRepo{store: s}
}

func orderField(o orders.Order, field string) (any, bool) {
	switch field {
	case "id":
		return o.ID, true
	case "customer_id":
		if o.CustomerID == nil {
			return nil, true
		}
		return *o.CustomerID, true
	case "guest_name":
		return o.GuestName, true
	case "branch_id":
		return o.BranchID, true
	case "status":
		return string(o.Status), true
	case "payment_mode":
		return o.PaymentMode, true
	case "technician_id":
		if o.TechnicianID == nil {
			return nil, true
		}
		return *o.TechnicianID, true
	case "created_at":
		return o.CreatedAt, true
	case "updated_at":
		return o.UpdatedAt, true
	}
	return nil, false
}

// List retrieves orders with in-memory filter evaluation.
func (r *OrderRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[orders.Order], error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := make([]orders.Order, 0, len(r.store.orders))
	for _, o := range r.store.orders {
		if f.Search != "" && !containsFold(o.GuestName, f.Search) && !containsFold(string(o.Status), f.Search) {
			continue
		}
		ok, err := matchItems(o, f.Items, orderField)
		if err != nil {
			return domain.ListResult[orders.Order]{}, err
		}
		if ok {
			matched = append(matched, o)
		}
	}

	if err := sortRecords(matched, f.OrderBy, "-created_at", orderField); err != nil {
		return domain.ListResult[orders.Order]{}, err
	}

	res := page(matched, f)
	r.hydrateLocked(res.Items, f.Expand)
	return res, nil
}

// GetByID fetches one order.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID, expand []string) (*orders.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	o, ok := r.store.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	items := []orders.Order{o}
	r.hydrateLocked(items, expand)
	return &items[0], nil
}

// Create inserts a new order.
func (r *OrderRepo) Create(ctx context.Context, o *orders.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	r.store.orders[o.ID] = *o
	return nil
}

// UpdateStatus sets the order status.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID id.ID, status orders.OrderStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	o, ok := r.store.orders[orderID]
	if !ok {
		return apperror.NewNotFound("order", orderID.String())
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	r.store.orders[orderID] = o
	return nil
}

// AssignTechnician sets the assigned technician.
func (r *OrderRepo) AssignTechnician(ctx context.Context, orderID id.ID, technicianID id.ID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	o, ok := r.store.orders[orderID]
	if !ok {
		return apperror.NewNotFound("order", orderID.String())
	}
	tid := technicianID
	o.TechnicianID = &tid
	o.UpdatedAt = time.Now().UTC()
	r.store.orders[orderID] = o
	return nil
}

// Delete removes an order.
func (r *OrderRepo) Delete(ctx context.Context, orderID id.ID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.orders[orderID]; !ok {
		return apperror.NewNotFound("order", orderID.String())
	}
	delete(r.store.orders, orderID)
	return nil
}

// hydrateLocked fills expand fields. Caller holds at least the read lock.
func (r *OrderRepo) hydrateLocked(items []orders.Order, expand []string) {
	if len(items) == 0 || len(expand) == 0 {
		return
	}
	want := make(map[string]bool, len(expand))
	for _, e := range expand {
		want[e] = true
	}

	for i := range items {
		o := &items[i]
		if want["customer"] && o.CustomerID != nil {
			if u, ok := r.store.users[*o.CustomerID]; ok {
				o.Expand.CustomerName = u.Name
				o.Expand.CustomerEmail = u.Email
			}
		}
		if want["technician"] && o.TechnicianID != nil {
			if u, ok := r.store.users[*o.TechnicianID]; ok {
				o.Expand.TechnicianName = u.Name
			}
		}
		if want["branch"] {
			if b, ok := r.store.branches[o.BranchID]; ok {
				o.Expand.BranchName = b.Name
			}
		}
		if want["products"] {
			for _, pid := range o.ProductIDs {
				p, ok := r.store.products[pid]
				if !ok {
					continue
				}
				line := orders.ProductLine{ProductID: pid, Name: p.Name}
				if pr, ok := r.store.pricing[pid]; ok {
					line.FinalPrice = pr.FinalPrice
				}
				o.Expand.Products = append(o.Expand.Products, line)
			}
		}
	}
}
