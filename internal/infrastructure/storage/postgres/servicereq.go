package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/domain"
	"ventra/internal/domain/servicereq"
)

const serviceRequestsTable = "service_requests"

var serviceRequestColumns = ExtractDBColumns[serviceRequestRow]()

// serviceRequestRow is the scan target: diagnosed parts live in a JSONB column.
type serviceRequestRow struct {
	ID             id.ID             `db:"id"`
	CustomerID     id.ID             `db:"customer_id"`
	Product        string            `db:"product"`
	ProblemText    string            `db:"problem_text"`
	Status         servicereq.Status `db:"status"`
	TechnicianID   *id.ID            `db:"technician_id"`
	DiagnosedParts []byte            `db:"diagnosed_parts"`
	DiagnosisNotes string            `db:"diagnosis_notes"`
	AttachmentRef  string            `db:"attachment_ref"`
	CreatedAt      time.Time         `db:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at"`
}

func (row *serviceRequestRow) toDomain() (*servicereq.ServiceRequest, error) {
	sr := &servicereq.ServiceRequest{
		ID:             row.ID,
		CustomerID:     row.CustomerID,
		Product:        row.Product,
		ProblemText:    row.ProblemText,
		Status:         row.Status,
		TechnicianID:   row.TechnicianID,
		DiagnosisNotes: row.DiagnosisNotes,
		AttachmentRef:  row.AttachmentRef,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if len(row.DiagnosedParts) > 0 {
		if err := json.Unmarshal(row.DiagnosedParts, &sr.DiagnosedParts); err != nil {
			return nil, fmt.Errorf("unmarshal diagnosed parts: %w", err)
		}
	}
	return sr, nil
}

func marshalDiagnosedParts(parts []servicereq.DiagnosedPart) ([]byte, error) {
	if len(parts) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(parts)
	if err != nil {
		return nil, fmt.Errorf("marshal diagnosed parts: %w", err)
	}
	return b, nil
}

// ServiceRequestRepo implements servicereq.Repository.
type ServiceRequestRepo struct {
	txm *TxManager
}

var _ servicereq.Repository = (*ServiceRequestRepo)(nil)

// NewServiceRequestRepo creates the service request repository.
func NewServiceRequestRepo(txm *TxManager) *ServiceRequestRepo {
	return &ServiceRequestRepo{txm: txm}
}

// List retrieves service requests.
func (r *ServiceRequestRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[servicereq.ServiceRequest], error) {
	result := domain.ListResult[servicereq.ServiceRequest]{
		Items:  []servicereq.ServiceRequest{},
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := builder().Select(serviceRequestColumns...).From(serviceRequestsTable)

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"product": pattern},
			squirrel.ILike{"problem_text": pattern},
		})
	}

	validCols := colSet(serviceRequestColumns...)
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
		return result, fmt.Errorf("count service requests: %w", err)
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

	var rows []serviceRequestRow
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return result, fmt.Errorf("list service requests: %w", err)
	}

	for _, row := range rows {
		sr, err := row.toDomain()
		if err != nil {
			return result, err
		}
		result.Items = append(result.Items, *sr)
	}

	return result, nil
}

// GetByID fetches one service request.
func (r *ServiceRequestRepo) GetByID(ctx context.Context, requestID id.ID) (*servicereq.ServiceRequest, error) {
	q := builder().Select(serviceRequestColumns...).From(serviceRequestsTable).
		Where(squirrel.Eq{"id": requestID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row serviceRequestRow
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("service request", requestID.String())
		}
		return nil, fmt.Errorf("get service request: %w", err)
	}

	return row.toDomain()
}

// Create inserts a service request.
func (r *ServiceRequestRepo) Create(ctx context.Context, sr *servicereq.ServiceRequest) error {
	now := time.Now().UTC()
	if sr.CreatedAt.IsZero() {
		sr.CreatedAt = now
	}
	sr.UpdatedAt = now

	parts, err := marshalDiagnosedParts(sr.DiagnosedParts)
	if err != nil {
		return err
	}

	q := builder().Insert(serviceRequestsTable).
		Columns(serviceRequestColumns...).
		Values(
			sr.ID, sr.CustomerID, sr.Product, sr.ProblemText, sr.Status,
			sr.TechnicianID, parts, sr.DiagnosisNotes, sr.AttachmentRef,
			sr.CreatedAt, sr.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert service request: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a service request.
func (r *ServiceRequestRepo) Update(ctx context.Context, sr *servicereq.ServiceRequest) error {
	parts, err := marshalDiagnosedParts(sr.DiagnosedParts)
	if err != nil {
		return err
	}

	q := builder().Update(serviceRequestsTable).
		Set("status", sr.Status).
		Set("technician_id", sr.TechnicianID).
		Set("diagnosed_parts", parts).
		Set("diagnosis_notes", sr.DiagnosisNotes).
		Set("attachment_ref", sr.AttachmentRef).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": sr.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update service request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("service request", sr.ID.String())
	}
	return nil
}
