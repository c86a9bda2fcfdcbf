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
	"ventra/internal/domain/orders"
)

const ordersTable = "orders"

var orderColumns = ExtractDBColumns[orders.Order]()

// OrderRepo implements orders.Repository.
type OrderRepo struct {
	txm *TxManager
}

var _ orders.Repository = (*OrderRepo)(nil)

// NewOrderRepo creates the order repository.
func NewOrderRepo(txm *TxManager) *OrderRepo {
	return &OrderRepo{txm: txm}
}

// List retrieves orders with pushed-down filters and pagination.
func (r *OrderRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[orders.Order], error) {
	result := domain.ListResult[orders.Order]{
		Items:  []orders.Order{},
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := builder().Select(orderColumns...).From(ordersTable)

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"guest_name": pattern},
			squirrel.ILike{"status": pattern},
		})
	}

	validCols := colSet(orderColumns...)
	q, err := applyFilterItems(q, f.Items, validCols)
	if err != nil {
		return result, err
	}

	// Count total before pagination
	countQ := builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count orders: %w", err)
	}

	orderBy, err := parseOrderBy(f.OrderBy, "created_at DESC", validCols)
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
		return result, fmt.Errorf("list orders: %w", err)
	}

	if err := r.hydrate(ctx, result.Items, f.Expand); err != nil {
		return result, err
	}

	return result, nil
}

// GetByID retrieves one order, with relation expansion when requested.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID, expand []string) (*orders.Order, error) {
	q := builder().Select(orderColumns...).From(ordersTable).
		Where(squirrel.Eq{"id": orderID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var o orders.Order
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", orderID.String())
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items := []orders.Order{o}
	if err := r.hydrate(ctx, items, expand); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// Create inserts a new order.
func (r *OrderRepo) Create(ctx context.Context, o *orders.Order) error {
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	q := builder().Insert(ordersTable).
		Columns(orderColumns...).
		Values(
			o.ID, o.CustomerID, o.GuestName, o.BranchID, o.Status, o.PaymentMode,
			o.ProductIDs, o.DeliveryFee, o.DistanceKm, o.TechnicianID,
			o.CreatedAt, o.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// UpdateStatus sets the order status.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID id.ID, status orders.OrderStatus) error {
	return r.updateFields(ctx, orderID, map[string]any{"status": status})
}

// AssignTechnician sets the assigned technician.
func (r *OrderRepo) AssignTechnician(ctx context.Context, orderID id.ID, technicianID id.ID) error {
	return r.updateFields(ctx, orderID, map[string]any{"technician_id": technicianID})
}

func (r *OrderRepo) updateFields(ctx context.Context, orderID id.ID, fields map[string]any) error {
	q := builder().Update(ordersTable).
		SetMap(fields).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": orderID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("order", orderID.String())
	}
	return nil
}

// Delete removes an order.
func (r *OrderRepo) Delete(ctx context.Context, orderID id.ID) error {
	q := builder().Delete(ordersTable).Where(squirrel.Eq{"id": orderID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("order", orderID.String())
	}
	return nil
}

// hydrate fills Expand fields with denormalized display data in a constant
// number of round-trips regardless of page size.
func (r *OrderRepo) hydrate(ctx context.Context, items []orders.Order, expand []string) error {
	if len(items) == 0 || len(expand) == 0 {
		return nil
	}

	want := colSet(expand...)

	if want["customer"] || want["technician"] {
		userIDs := make([]id.ID, 0, len(items)*2)
		for _, o := range items {
			if want["customer"] && o.CustomerID != nil {
				userIDs = append(userIDs, *o.CustomerID)
			}
			if want["technician"] && o.TechnicianID != nil {
				userIDs = append(userIDs, *o.TechnicianID)
			}
		}
		names, emails, err := r.fetchUserNames(ctx, userIDs)
		if err != nil {
			return err
		}
		for i := range items {
			if want["customer"] && items[i].CustomerID != nil {
				items[i].Expand.CustomerName = names[*items[i].CustomerID]
				items[i].Expand.CustomerEmail = emails[*items[i].CustomerID]
			}
			if want["technician"] && items[i].TechnicianID != nil {
				items[i].Expand.TechnicianName = names[*items[i].TechnicianID]
			}
		}
	}

	if want["branch"] {
		branchIDs := make([]id.ID, 0, len(items))
		for _, o := range items {
			branchIDs = append(branchIDs, o.BranchID)
		}
		names, err := r.fetchBranchNames(ctx, branchIDs)
		if err != nil {
			return err
		}
		for i := range items {
			items[i].Expand.BranchName = names[items[i].BranchID]
		}
	}

	if want["products"] {
		productIDs := make([]id.ID, 0, len(items)*2)
		for _, o := range items {
			productIDs = append(productIDs, o.ProductIDs...)
		}
		lines, err := r.fetchProductLines(ctx, productIDs)
		if err != nil {
			return err
		}
		for i := range items {
			for _, pid := range items[i].ProductIDs {
				if line, ok := lines[pid]; ok {
					items[i].Expand.Products = append(items[i].Expand.Products, line)
				}
			}
		}
	}

	return nil
}

func (r *OrderRepo) fetchUserNames(ctx context.Context, ids []id.ID) (map[id.ID]string, map[id.ID]string, error) {
	names := make(map[id.ID]string)
	emails := make(map[id.ID]string)
	if len(ids) == 0 {
		return names, emails, nil
	}

	sql := `SELECT id, name, email FROM users WHERE id = ANY($1)`
	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch user names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID id.ID
		var name, email string
		if err := rows.Scan(&userID, &name, &email); err != nil {
			return nil, nil, fmt.Errorf("scan user name: %w", err)
		}
		names[userID] = name
		emails[userID] = email
	}
	return names, emails, rows.Err()
}

func (r *OrderRepo) fetchBranchNames(ctx context.Context, ids []id.ID) (map[id.ID]string, error) {
	names := make(map[id.ID]string)
	if len(ids) == 0 {
		return names, nil
	}

	sql := `SELECT id, name FROM branches WHERE id = ANY($1)`
	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch branch names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var branchID id.ID
		var name string
		if err := rows.Scan(&branchID, &name); err != nil {
			return nil, fmt.Errorf("scan branch name: %w", err)
		}
		names[branchID] = name
	}
	return names, rows.Err()
}

func (r *OrderRepo) fetchProductLines(ctx context.Context, ids []id.ID) (map[id.ID]orders.ProductLine, error) {
	lines := make(map[id.ID]orders.ProductLine)
	if len(ids) == 0 {
		return lines, nil
	}

	sql := `
		SELECT p.id, p.name, COALESCE(pr.final_price, 0)
		FROM products p
		LEFT JOIN product_pricing pr ON pr.product_id = p.id
		WHERE p.id = ANY($1)
	`
	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch product lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line orders.ProductLine
		if err := rows.Scan(&line.ProductID, &line.Name, &line.FinalPrice); err != nil {
			return nil, fmt.Errorf("scan product line: %w", err)
		}
		lines[line.ProductID] = line
	}
	return lines, rows.Err()
}
