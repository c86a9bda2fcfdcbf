package memory

import (
	"context"

	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/domain"
	"ventra/internal/domain/access"
	"ventra/internal/domain/auth"
	"ventra/internal/domain/customers"
)

// UserRepo is the in-memory customers.Repository.
type UserRepo struct {
	store *Store
}

var _ customers.Repository = (*UserRepo)(nil)

// Users returns the customer-facing user repository view.
func (s *Store) Users() *UserRepo {
	return &UserRepo{store: s}
}

func customerField(c customers.Customer, field string) (any, bool) {
	switch field {
	case "id":
		return c.ID, true
	case "name":
		return c.Name, true
	case "email":
		return c.Email, true
	case "phone":
		return c.Phone, true
	case "created_at":
		return c.CreatedAt, true
	}
	return nil, false
}

// ListByRole lists users holding a role.
func (r *UserRepo) ListByRole(ctx context.Context, role access.Role, f domain.ListFilter) (domain.ListResult[customers.Customer], error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := make([]customers.Customer, 0)
	for _, u := range r.store.users {
		if u.Role != string(role) {
			continue
		}
		c := customers.Customer{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			CreatedAt: u.CreatedAt,
		}
		if f.Search != "" && !containsFold(c.Name, f.Search) && !containsFold(c.Email, f.Search) {
			continue
		}
		ok, err := matchItems(c, f.Items, customerField)
		if err != nil {
			return domain.ListResult[customers.Customer]{}, err
		}
		if ok {
			matched = append(matched, c)
		}
	}

	if err := sortRecords(matched, f.OrderBy, "-created_at", customerField); err != nil {
		return domain.ListResult[customers.Customer]{}, err
	}

	return page(matched, f), nil
}

// GetByID fetches one customer.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*customers.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("customer", userID.String())
	}
	return &customers.Customer{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}, nil
}

// AccountRepo is the in-memory auth.Repository.
type AccountRepo struct {
	store *Store
}

var _ auth.Repository = (*AccountRepo)(nil)

// Accounts returns the credential repository view.
func (s *Store) Accounts() *AccountRepo {
	return &AccountRepo{store: s}
}

// GetByEmail fetches an account by email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*auth.UserRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if u.Email == email {
			rec := u
			return &rec, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, userID id.ID) (*auth.UserRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	rec := u
	return &rec, nil
}
