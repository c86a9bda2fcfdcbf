package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventra/internal/core/apperror"
	"ventra/internal/core/id"
	"ventra/internal/core/types"
	"ventra/internal/domain"
)

type fakePartRepo struct {
	parts map[id.ID]*Part
	log   []StockLogEntry

	failApplyDelta     error
	failDeleteLogEntry error
}

func newFakePartRepo() *fakePartRepo {
	return &fakePartRepo{parts: make(map[id.ID]*Part)}
}

func (r *fakePartRepo) addPart(name string, stock int) id.ID {
	p := &Part{ID: id.New(), Name: name, StockCount: stock, ReorderThreshold: 5, UnitPrice: types.MustMoney("9.99")}
	r.parts[p.ID] = p
	return p.ID
}

func (r *fakePartRepo) GetPart(_ context.Context, partID id.ID) (*Part, error) {
	p, ok := r.parts[partID]
	if !ok {
		return nil, apperror.NewNotFound("part", partID.String())
	}
	cp := *p
	return &cp, nil
}

func (r *fakePartRepo) ListParts(_ context.Context, _ domain.ListFilter) (domain.ListResult[Part], error) {
	res := domain.ListResult[Part]{}
	for _, p := range r.parts {
		res.Items = append(res.Items, *p)
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

func (r *fakePartRepo) CreatePart(_ context.Context, p *Part) error {
	cp := *p
	r.parts[p.ID] = &cp
	return nil
}

func (r *fakePartRepo) UpdatePart(_ context.Context, p *Part) error {
	cp := *p
	r.parts[p.ID] = &cp
	return nil
}

func (r *fakePartRepo) ApplyDelta(_ context.Context, partID id.ID, delta int) (*Part, error) {
	if r.failApplyDelta != nil {
		return nil, r.failApplyDelta
	}
	p, ok := r.parts[partID]
	if !ok {
		return nil, apperror.NewNotFound("part", partID.String())
	}
	if p.StockCount+delta < 0 {
		return nil, apperror.NewNegativeStock(partID.String(), p.StockCount, delta)
	}
	p.StockCount += delta
	cp := *p
	return &cp, nil
}

func (r *fakePartRepo) AppendLog(_ context.Context, e *StockLogEntry) error {
	r.log = append(r.log, *e)
	return nil
}

func (r *fakePartRepo) DeleteLogEntry(_ context.Context, entryID id.ID) error {
	if r.failDeleteLogEntry != nil {
		return r.failDeleteLogEntry
	}
	for i, e := range r.log {
		if e.ID == entryID {
			r.log = append(r.log[:i], r.log[i+1:]...)
			return nil
		}
	}
	return apperror.NewNotFound("stock_log_entry", entryID.String())
}

func (r *fakePartRepo) ListLog(_ context.Context, partID id.ID, _ domain.ListFilter) (domain.ListResult[StockLogEntry], error) {
	res := domain.ListResult[StockLogEntry]{}
	for _, e := range r.log {
		if e.PartID == partID {
			res.Items = append(res.Items, e)
		}
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

func (r *fakePartRepo) RecomputeStock(_ context.Context, partID id.ID) (*Part, error) {
	p, ok := r.parts[partID]
	if !ok {
		return nil, apperror.NewNotFound("part", partID.String())
	}
	sum := 0
	for _, e := range r.log {
		if e.PartID == partID {
			sum += e.DeltaQuantity
		}
	}
	p.StockCount = sum
	cp := *p
	return &cp, nil
}

func (r *fakePartRepo) logCountFor(partID id.ID) int {
	n := 0
	for _, e := range r.log {
		if e.PartID == partID {
			n++
		}
	}
	return n
}

func TestAdjustStockAppliesDeltaAndLogs(t *testing.T) {
	repo := newFakePartRepo()
	svc := NewService(repo, nil)
	partID := repo.addPart("Compressor", 10)

	updated, err := svc.AdjustStock(context.Background(), AdjustInput{
		PartID:        partID,
		DeltaQuantity: 5,
		Type:          ChangeReplenishment,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, updated.StockCount)
	require.Equal(t, 1, repo.logCountFor(partID))
	assert.Equal(t, 5, repo.log[0].DeltaQuantity)
	assert.Equal(t, ChangeReplenishment, repo.log[0].Type)
}

func TestAdjustStockValidationLeavesNoLogEntry(t *testing.T) {
	repo := newFakePartRepo()
	svc := NewService(repo, nil)
	partID := repo.addPart("Compressor", 3)
	srID := id.New()

	cases := []struct {
		name string
		in   AdjustInput
	}{
		{"zero delta", AdjustInput{PartID: partID, DeltaQuantity: 0, Type: ChangeManualAdjustment}},
		{"unknown type", AdjustInput{PartID: partID, DeltaQuantity: 1, Type: ChangeType("Restock")}},
		{"nil part id", AdjustInput{DeltaQuantity: 1, Type: ChangeManualAdjustment}},
		{"usage without service request", AdjustInput{PartID: partID, DeltaQuantity: -1, Type: ChangeUsage}},
		{"non-usage with service request", AdjustInput{PartID: partID, DeltaQuantity: 1, Type: ChangeReplenishment, RelatedServiceRequestID: &srID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AdjustStock(context.Background(), tc.in)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "got %v", err)
		})
	}
	assert.Empty(t, repo.log, "rejected adjustments must not touch the ledger")
}

func TestAdjustStockRejectsNegativeResultBeforeAnyWrite(t *testing.T) {
	repo := newFakePartRepo()
	svc := NewService(repo, nil)
	partID := repo.addPart("Compressor", 3)

	_, err := svc.AdjustStock(context.Background(), AdjustInput{
		PartID:        partID,
		DeltaQuantity: -4,
		Type:          ChangeManualAdjustment,
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeNegativeStock), "got %v", err)
	assert.Empty(t, repo.log)

	part, getErr := repo.GetPart(context.Background(), partID)
	require.NoError(t, getErr)
	assert.Equal(t, 3, part.StockCount)
}

func TestAdjustStockCompensatesLogOnCounterFailure(t *testing.T) {
	repo := newFakePartRepo()
	svc := NewService(repo, nil)
	partID := repo.addPart("Compressor", 10)
	repo.failApplyDelta = errors.New("connection reset")

	_, err := svc.AdjustStock(context.Background(), AdjustInput{
		PartID:        partID,
		DeltaQuantity: 2,
		Type:          ChangeReplenishment,
	})
	require.Error(t, err)
	assert.False(t, apperror.IsCode(err, apperror.CodePartialWrite), "compensated failure is not a partial write: %v", err)
	assert.Empty(t, repo.log, "the orphaned log entry must be deleted")
}

func TestAdjustStockPartialWriteWhenCompensationFails(t *testing.T) {
	repo := newFakePartRepo()
	svc := NewService(repo, nil)
	partID := repo.addPart("Compressor", 10)
	repo.failApplyDelta = errors.New("connection reset")
	repo.failDeleteLogEntry = errors.New("still down")

	_, err := svc.AdjustStock(context.Background(), AdjustInput{
		PartID:        partID,
		DeltaQuantity: 2,
		Type:          ChangeReplenishment,
	})
	assert.True(t, apperror.IsCode(err, apperror.CodePartialWrite), "got %v", err)
	assert.Equal(t, 1, repo.logCountFor(partID), "the stranded entry stays; reconcile cleans it up")

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, partID.String(), appErr.Details["part_id"])
}

func TestConsumeForDiagnosisNoCrossPartRollback(t *testing.T) {
	repo := newFakePartRepo()
	svc := NewService(repo, nil)
	partA := repo.addPart("Filter", 10)
	partB := repo.addPart("Capacitor", 1)
	partC := repo.addPart("Fan motor", 10)
	srID := id.New()

	err := svc.ConsumeForDiagnosis(context.Background(), srID, []PartUsage{
		{PartID: partA, Quantity: 2},
		{PartID: partB, Quantity: 5}, // only 1 in stock
		{PartID: partC, Quantity: 1},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNegativeStock), "got %v", err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, []string{partA.String()}, appErr.Details["applied_part_ids"])
	assert.Equal(t, partB.String(), appErr.Details["failed_part_id"])

	// Part A stays decremented, B and C untouched.
	a, _ := repo.GetPart(context.Background(), partA)
	b, _ := repo.GetPart(context.Background(), partB)
	c, _ := repo.GetPart(context.Background(), partC)
	assert.Equal(t, 8, a.StockCount)
	assert.Equal(t, 1, b.StockCount)
	assert.Equal(t, 10, c.StockCount)
}

func TestConsumeForDiagnosisWritesUsageEntries(t *testing.T) {
	repo := newFakePartRepo()
	svc := NewService(repo, nil)
	partID := repo.addPart("Filter", 10)
	srID := id.New()

	require.NoError(t, svc.ConsumeForDiagnosis(context.Background(), srID, []PartUsage{
		{PartID: partID, Quantity: 3},
	}))

	require.Equal(t, 1, repo.logCountFor(partID))
	entry := repo.log[0]
	assert.Equal(t, -3, entry.DeltaQuantity)
	assert.Equal(t, ChangeUsage, entry.Type)
	require.NotNil(t, entry.RelatedServiceRequestID)
	assert.Equal(t, srID, *entry.RelatedServiceRequestID)
}

func TestConsumeForDiagnosisValidation(t *testing.T) {
	repo := newFakePartRepo()
	svc := NewService(repo, nil)
	partID := repo.addPart("Filter", 10)

	err := svc.ConsumeForDiagnosis(context.Background(), id.Nil(), []PartUsage{{PartID: partID, Quantity: 1}})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	err = svc.ConsumeForDiagnosis(context.Background(), id.New(), nil)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	err = svc.ConsumeForDiagnosis(context.Background(), id.New(), []PartUsage{{PartID: partID, Quantity: 0}})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	assert.Empty(t, repo.log)
}

func TestCreatePartAnchorsLedger(t *testing.T) {
	repo := newFakePartRepo()
	svc := NewService(repo, nil)

	p := &Part{Name: "Thermostat", StockCount: 12, ReorderThreshold: 3, UnitPrice: types.MustMoney("24.50")}
	require.NoError(t, svc.CreatePart(context.Background(), p))
	require.Equal(t, 1, repo.logCountFor(p.ID))
	assert.Equal(t, ChangeInitialStock, repo.log[0].Type)
	assert.Equal(t, 12, repo.log[0].DeltaQuantity)

	zero := &Part{Name: "Gasket"}
	require.NoError(t, svc.CreatePart(context.Background(), zero))
	assert.Equal(t, 0, repo.logCountFor(zero.ID), "zero initial stock needs no anchor entry")
}

func TestCreatePartValidation(t *testing.T) {
	svc := NewService(newFakePartRepo(), nil)

	err := svc.CreatePart(context.Background(), &Part{StockCount: 1})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	err = svc.CreatePart(context.Background(), &Part{Name: "Filter", StockCount: -1})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestListLowStock(t *testing.T) {
	repo := newFakePartRepo()
	svc := NewService(repo, nil)
	low := repo.addPart("Filter", 5)      // at threshold
	repo.addPart("Compressor", 6)         // above
	empty := repo.addPart("Capacitor", 0) // below

	parts, err := svc.ListLowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, parts, 2)
	got := map[id.ID]bool{}
	for _, p := range parts {
		got[p.ID] = true
	}
	assert.True(t, got[low])
	assert.True(t, got[empty])
}

func TestReconcileReportsDrift(t *testing.T) {
	repo := newFakePartRepo()
	svc := NewService(repo, nil)
	partID := repo.addPart("Filter", 10)

	// Ledger says 7; counter drifted to 10.
	repo.log = append(repo.log,
		StockLogEntry{ID: id.New(), PartID: partID, DeltaQuantity: 10, Type: ChangeInitialStock},
		StockLogEntry{ID: id.New(), PartID: partID, DeltaQuantity: -3, Type: ChangeManualAdjustment},
	)

	after, drift, err := svc.Reconcile(context.Background(), partID)
	require.NoError(t, err)
	assert.Equal(t, 7, after.StockCount)
	assert.Equal(t, -3, drift)
}
