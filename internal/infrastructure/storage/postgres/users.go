package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/domain"
	"ventra/internal/domain/access"
	"ventra/internal/domain/auth"
	"ventra/internal/domain/customers"
)

const usersTable = "users"

var customerColumns = ExtractDBColumns[customers.Customer]()

// UserRepo implements customers.Repository over the users collection.
type UserRepo struct {
	txm *TxManager
}

var _ customers.Repository = (*UserRepo)(nil)

// NewUserRepo creates the customer-facing user repository.
func NewUserRepo(txm *TxManager) *UserRepo {
	return &UserRepo{txm: txm}
}

// ListByRole lists users holding a role. The role filter is pushed down.
func (r *UserRepo) ListByRole(ctx context.Context, role access.Role, f domain.ListFilter) (domain.ListResult[customers.Customer], error) {
	result := domain.ListResult[customers.Customer]{
		Items:  []customers.Customer{},
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := builder().Select(customerColumns...).From(usersTable).
		Where(squirrel.Eq{"role": string(role)})

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"email": pattern},
			squirrel.ILike{"phone": pattern},
		})
	}

	validCols := colSet(customerColumns...)
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
		return result, fmt.Errorf("count users: %w", err)
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
		return result, fmt.Errorf("list users: %w", err)
	}

	return result, nil
}

// GetByID fetches one customer by user id.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*customers.Customer, error) {
	q := builder().Select(customerColumns...).From(usersTable).
		Where(squirrel.Eq{"id": userID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c customers.Customer
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("customer", userID.String())
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

var accountColumns = ExtractDBColumns[auth.UserRecord]()

// AccountRepo implements auth.Repository over the same users collection,
// exposing credential fields the customer repo deliberately does not select.
type AccountRepo struct {
	txm *TxManager
}

var _ auth.Repository = (*AccountRepo)(nil)

// NewAccountRepo creates the credential repository.
func NewAccountRepo(txm *TxManager) *AccountRepo {
	return &AccountRepo{txm: txm}
}

// GetByEmail fetches an account by email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*auth.UserRecord, error) {
	q := builder().Select(accountColumns...).From(usersTable).
		Where(squirrel.Eq{"email": email}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var u auth.UserRecord
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &u, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", email)
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, userID id.ID) (*auth.UserRecord, error) {
	q := builder().Select(accountColumns...).From(usersTable).
		Where(squirrel.Eq{"id": userID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var u auth.UserRecord
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &u, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", userID.String())
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
