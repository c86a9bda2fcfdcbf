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
	"ventra/internal/domain/branch"
)

const branchesTable = "branches"

var branchColumns = ExtractDBColumns[branch.Branch]()

// BranchRepo implements branch.Repository.
type BranchRepo struct {
	txm *TxManager
}

var _ branch.Repository = (*BranchRepo)(nil)

// NewBranchRepo creates the branch repository.
func NewBranchRepo(txm *TxManager) *BranchRepo {
	return &BranchRepo{txm: txm}
}

// GetByID fetches one branch.
func (r *BranchRepo) GetByID(ctx context.Context, branchID id.ID) (*branch.Branch, error) {
	q := builder().Select(branchColumns...).From(branchesTable).
		Where(squirrel.Eq{"id": branchID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b branch.Branch
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("branch", branchID.String())
		}
		return nil, fmt.Errorf("get branch: %w", err)
	}
	return &b, nil
}

// List retrieves branches.
func (r *BranchRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[branch.Branch], error) {
	result := domain.ListResult[branch.Branch]{
		Items:  []branch.Branch{},
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := builder().Select(branchColumns...).From(branchesTable)

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"contact_email": pattern},
		})
	}

	validCols := colSet(branchColumns...)
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
		return result, fmt.Errorf("count branches: %w", err)
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
		return result, fmt.Errorf("list branches: %w", err)
	}

	return result, nil
}

// Create inserts a branch.
func (r *BranchRepo) Create(ctx context.Context, b *branch.Branch) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	q := builder().Insert(branchesTable).
		Columns(branchColumns...).
		Values(b.ID, b.Name, b.ContactEmail, b.Latitude, b.Longitude, b.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert branch: %w", err)
	}
	return nil
}

// Update modifies a branch.
func (r *BranchRepo) Update(ctx context.Context, b *branch.Branch) error {
	q := builder().Update(branchesTable).
		Set("name", b.Name).
		Set("contact_email", b.ContactEmail).
		Set("latitude", b.Latitude).
		Set("longitude", b.Longitude).
		Where(squirrel.Eq{"id": b.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update branch: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("branch", b.ID.String())
	}
	return nil
}
