package memory

import (
	"context"
	"time"

	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/domain"
	"ventra/internal/domain/servicereq"
)

// ServiceRequestRepo is the in-memory servicereq.Repository.
type ServiceRequestRepo struct {
	store *Store
}

var _ servicereq.Repository = (*ServiceRequestRepo)(nil)

// ServiceRequests returns the service request repository view.
func (s *Store) ServiceRequests() *ServiceRequestRepo {
	return &ServiceRequestRepo{store: s}
}

func requestField(sr servicereq.ServiceRequest, field string) (any, bool) {
	switch field {
	case "id":
		return sr.ID, true
	case "customer_id":
		return sr.CustomerID, true
	case "product":
		return sr.Product, true
	case "status":
		return string(sr.Status), true
	case "technician_id":
		if sr.TechnicianID == nil {
			return nil, true
		}
		return *sr.TechnicianID, true
	case "created_at":
		return sr.CreatedAt, true
	case "updated_at":
		return sr.UpdatedAt, true
	}
	return nil, false
}

// List retrieves service requests.
func (r *ServiceRequestRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[servicereq.ServiceRequest], error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := make([]servicereq.ServiceRequest, 0, len(r.store.requests))
	for _, sr := range r.store.requests {
		if f.Search != "" && !containsFold(sr.Product, f.Search) && !containsFold(sr.ProblemText, f.Search) {
			continue
		}
		ok, err := matchItems(sr, f.Items, requestField)
		if err != nil {
			return domain.ListResult[servicereq.ServiceRequest]{}, err
		}
		if ok {
			matched = append(matched, sr)
		}
	}

	if err := sortRecords(matched, f.OrderBy, "-created_at", requestField); err != nil {
		return domain.ListResult[servicereq.ServiceRequest]{}, err
	}

	return page(matched, f), nil
}

// GetByID fetches one service request.
func (r *ServiceRequestRepo) GetByID(ctx context.Context, requestID id.ID) (*servicereq.ServiceRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	sr, ok := r.store.requests[requestID]
	if !ok {
		return nil, apperror.NewNotFound("service request", requestID.String())
	}
	return &sr, nil
}

// Create inserts a service request.
func (r *ServiceRequestRepo) Create(ctx context.Context, sr *servicereq.ServiceRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	if sr.CreatedAt.IsZero() {
		sr.CreatedAt = now
	}
	sr.UpdatedAt = now
	r.store.requests[sr.ID] = *sr
	return nil
}

// Update rewrites a service request.
func (r *ServiceRequestRepo) Update(ctx context.Context, sr *servicereq.ServiceRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.requests[sr.ID]; !ok {
		return apperror.NewNotFound("service request", sr.ID.String())
	}
	sr.UpdatedAt = time.Now().UTC()
	r.store.requests[sr.ID] = *sr
	return nil
}
