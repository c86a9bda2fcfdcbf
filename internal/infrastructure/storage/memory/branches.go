package memory

import (
	"context"
	"time"

	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/domain"
	"ventra/internal/domain/branch"
)

// BranchRepo is the in-memory branch.Repository.
type BranchRepo struct {
	store *Store
}

var _ branch.Repository = (*BranchRepo)(nil)

// Branches returns the branch repository view.
func (s *Store) Branches() *BranchRepo {
	return &BranchRepo{store: s}
}

func branchField(b branch.Branch, field string) (any, bool) {
	switch field {
	case "id":
		return b.ID, true
	case "name":
		return b.Name, true
	case "contact_email":
		return b.ContactEmail, true
	case "created_at":
		return b.CreatedAt, true
	}
	return nil, false
}

// GetByID fetches one branch.
func (r *BranchRepo) GetByID(ctx context.Context, branchID id.ID) (*branch.Branch, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	b, ok := r.store.branches[branchID]
	if !ok {
		return nil, apperror.NewNotFound("branch", branchID.String())
	}
	return &b, nil
}

// List retrieves branches.
func (r *BranchRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[branch.Branch], error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := make([]branch.Branch, 0, len(r.store.branches))
	for _, b := range r.store.branches {
		if f.Search != "" && !containsFold(b.Name, f.Search) && !containsFold(b.ContactEmail, f.Search) {
			continue
		}
		ok, err := matchItems(b, f.Items, branchField)
		if err != nil {
			return domain.ListResult[branch.Branch]{}, err
		}
		if ok {
			matched = append(matched, b)
		}
	}

	if err := sortRecords(matched, f.OrderBy, "name", branchField); err != nil {
		return domain.ListResult[branch.Branch]{}, err
	}

	return page(matched, f), nil
}

// Create inserts a branch.
func (r *BranchRepo) Create(ctx context.Context, b *branch.Branch) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	r.store.branches[b.ID] = *b
	return nil
}

// Update modifies a branch.
func (r *BranchRepo) Update(ctx context.Context, b *branch.Branch) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.branches[b.ID]; !ok {
		return apperror.NewNotFound("branch", b.ID.String())
	}
	r.store.branches[b.ID] = *b
	return nil
}
