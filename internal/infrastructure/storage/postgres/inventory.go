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
	"ventra/internal/domain/inventory"
)

const (
	partsTable    = "parts"
	stockLogTable = "stock_log"
)

var partColumns = ExtractDBColumns[inventory.Part]()

var stockLogColumns = ExtractDBColumns[inventory.StockLogEntry]()

// InventoryRepo implements inventory.Repository.
type InventoryRepo struct {
	txm *TxManager
}

var _ inventory.Repository = (*InventoryRepo)(nil)

// NewInventoryRepo creates the parts/stock-log repository.
func NewInventoryRepo(txm *TxManager) *InventoryRepo {
	return &InventoryRepo{txm: txm}
}

// GetPart fetches one part.
func (r *InventoryRepo) GetPart(ctx context.Context, partID id.ID) (*inventory.Part, error) {
	q := builder().Select(partColumns...).From(partsTable).
		Where(squirrel.Eq{"id": partID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p inventory.Part
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("part", partID.String())
		}
		return nil, fmt.Errorf("get part: %w", err)
	}
	return &p, nil
}

// ListParts retrieves parts.
func (r *InventoryRepo) ListParts(ctx context.Context, f domain.ListFilter) (domain.ListResult[inventory.Part], error) {
	result := domain.ListResult[inventory.Part]{
		Items:  []inventory.Part{},
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := builder().Select(partColumns...).From(partsTable)

	if f.Search != "" {
		q = q.Where(squirrel.ILike{"name": "%" + f.Search + "%"})
	}

	validCols := colSet(partColumns...)
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
		return result, fmt.Errorf("count parts: %w", err)
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
		return result, fmt.Errorf("list parts: %w", err)
	}

	return result, nil
}

// CreatePart inserts a part.
func (r *InventoryRepo) CreatePart(ctx context.Context, p *inventory.Part) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	q := builder().Insert(partsTable).
		Columns(partColumns...).
		Values(p.ID, p.Name, p.StockCount, p.ReorderThreshold, p.UnitPrice, p.CreatedAt, p.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert part: %w", err)
	}
	return nil
}

// UpdatePart modifies part metadata. The stock counter is excluded: counter
// changes go through ApplyDelta only.
func (r *InventoryRepo) UpdatePart(ctx context.Context, p *inventory.Part) error {
	q := builder().Update(partsTable).
		Set("name", p.Name).
		Set("reorder_threshold", p.ReorderThreshold).
		Set("unit_price", p.UnitPrice).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": p.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update part: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("part", p.ID.String())
	}
	return nil
}

// ApplyDelta atomically applies a counter change with a store-level
// non-negativity guard. The conditional update makes read-modify-write races
// impossible: two concurrent usages can never take the counter below zero.
func (r *InventoryRepo) ApplyDelta(ctx context.Context, partID id.ID, delta int) (*inventory.Part, error) {
	sql := `
		UPDATE parts
		SET stock_count = stock_count + $2,
		    updated_at = $3
		WHERE id = $1 AND stock_count + $2 >= 0
		RETURNING id, name, stock_count, reorder_threshold, unit_price, created_at, updated_at
	`

	var p inventory.Part
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, partID, delta, time.Now().UTC()); err != nil {
		if !pgxscan.NotFound(err) {
			return nil, fmt.Errorf("apply stock delta: %w", err)
		}

		// Guard rejected: distinguish missing part from insufficient stock.
		current, getErr := r.GetPart(ctx, partID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, apperror.NewNegativeStock(partID.String(), current.StockCount, delta)
	}

	return &p, nil
}

// AppendLog appends one immutable ledger entry.
func (r *InventoryRepo) AppendLog(ctx context.Context, e *inventory.StockLogEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	q := builder().Insert(stockLogTable).
		Columns(stockLogColumns...).
		Values(e.ID, e.PartID, e.DeltaQuantity, e.Type, e.RelatedServiceRequestID, e.Notes, e.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("append stock log: %w", err)
	}
	return nil
}

// DeleteLogEntry removes a ledger entry. Compensation path only.
func (r *InventoryRepo) DeleteLogEntry(ctx context.Context, entryID id.ID) error {
	q := builder().Delete(stockLogTable).Where(squirrel.Eq{"id": entryID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete stock log entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("stock log entry", entryID.String())
	}
	return nil
}

// ListLog retrieves the ledger for one part, newest first.
func (r *InventoryRepo) ListLog(ctx context.Context, partID id.ID, f domain.ListFilter) (domain.ListResult[inventory.StockLogEntry], error) {
	result := domain.ListResult[inventory.StockLogEntry]{
		Items:  []inventory.StockLogEntry{},
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := builder().Select(stockLogColumns...).From(stockLogTable).
		Where(squirrel.Eq{"part_id": partID})

	validCols := colSet(stockLogColumns...)
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
		return result, fmt.Errorf("count stock log: %w", err)
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
		return result, fmt.Errorf("list stock log: %w", err)
	}

	return result, nil
}

// RecomputeStock rebuilds the denormalized counter from the ledger.
func (r *InventoryRepo) RecomputeStock(ctx context.Context, partID id.ID) (*inventory.Part, error) {
	sql := `
		UPDATE parts
		SET stock_count = COALESCE(
			(SELECT SUM(delta_quantity) FROM stock_log WHERE part_id = $1), 0
		),
		    updated_at = $2
		WHERE id = $1
		RETURNING id, name, stock_count, reorder_threshold, unit_price, created_at, updated_at
	`

	var p inventory.Part
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, partID, time.Now().UTC()); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("part", partID.String())
		}
		return nil, fmt.Errorf("recompute stock: %w", err)
	}
	return &p, nil
}
