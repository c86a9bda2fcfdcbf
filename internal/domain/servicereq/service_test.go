package servicereq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventra/internal/core/apperror"
	appctx "ventra/internal/core/context"
	"ventra/internal/core/id"
	"ventra/internal/core/types"
	"ventra/internal/domain"
	"ventra/internal/domain/inventory"
	"ventra/internal/domain/orders"
)

type fakeRequestRepo struct {
	requests map[id.ID]*ServiceRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[id.ID]*ServiceRequest)}
}

func (r *fakeRequestRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[ServiceRequest], error) {
	res := domain.ListResult[ServiceRequest]{}
	for _, sr := range r.requests {
		res.Items = append(res.Items, *sr)
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, requestID id.ID) (*ServiceRequest, error) {
	sr, ok := r.requests[requestID]
	if !ok {
		return nil, apperror.NewNotFound("service request", requestID.String())
	}
	cp := *sr
	return &cp, nil
}

func (r *fakeRequestRepo) Create(_ context.Context, sr *ServiceRequest) error {
	cp := *sr
	r.requests[sr.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) Update(_ context.Context, sr *ServiceRequest) error {
	cp := *sr
	r.requests[sr.ID] = &cp
	return nil
}

type fakeOrderRepo struct {
	orders []orders.Order
}

func (r *fakeOrderRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[orders.Order], error) {
	return domain.ListResult[orders.Order]{Items: r.orders, TotalCount: int64(len(r.orders))}, nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, orderID id.ID, _ []string) (*orders.Order, error) {
	return nil, apperror.NewNotFound("order", orderID.String())
}

func (r *fakeOrderRepo) Create(_ context.Context, _ *orders.Order) error      { return nil }
func (r *fakeOrderRepo) UpdateStatus(_ context.Context, _ id.ID, _ orders.OrderStatus) error {
	return nil
}
func (r *fakeOrderRepo) AssignTechnician(_ context.Context, _, _ id.ID) error { return nil }
func (r *fakeOrderRepo) Delete(_ context.Context, _ id.ID) error              { return nil }

type fakePartRepo struct {
	parts map[id.ID]*inventory.Part
	log   []inventory.StockLogEntry
}

func newFakePartRepo() *fakePartRepo {
	return &fakePartRepo{parts: make(map[id.ID]*inventory.Part)}
}

func (r *fakePartRepo) addPart(stock int) id.ID {
	p := &inventory.Part{ID: id.New(), Name: "part", StockCount: stock, UnitPrice: types.MustMoney("1")}
	r.parts[p.ID] = p
	return p.ID
}

func (r *fakePartRepo) GetPart(_ context.Context, partID id.ID) (*inventory.Part, error) {
	p, ok := r.parts[partID]
	if !ok {
		return nil, apperror.NewNotFound("part", partID.String())
	}
	cp := *p
	return &cp, nil
}

func (r *fakePartRepo) ListParts(_ context.Context, _ domain.ListFilter) (domain.ListResult[inventory.Part], error) {
	return domain.ListResult[inventory.Part]{}, nil
}

func (r *fakePartRepo) CreatePart(_ context.Context, p *inventory.Part) error {
	cp := *p
	r.parts[p.ID] = &cp
	return nil
}

func (r *fakePartRepo) UpdatePart(_ context.Context, p *inventory.Part) error {
	cp := *p
	r.parts[p.ID] = &cp
	return nil
}

func (r *fakePartRepo) ApplyDelta(_ context.Context, partID id.ID, delta int) (*inventory.Part, error) {
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

func (r *fakePartRepo) AppendLog(_ context.Context, e *inventory.StockLogEntry) error {
	r.log = append(r.log, *e)
	return nil
}

func (r *fakePartRepo) DeleteLogEntry(_ context.Context, entryID id.ID) error {
	for i, e := range r.log {
		if e.ID == entryID {
			r.log = append(r.log[:i], r.log[i+1:]...)
			return nil
		}
	}
	return apperror.NewNotFound("stock_log_entry", entryID.String())
}

func (r *fakePartRepo) ListLog(_ context.Context, _ id.ID, _ domain.ListFilter) (domain.ListResult[inventory.StockLogEntry], error) {
	return domain.ListResult[inventory.StockLogEntry]{}, nil
}

func (r *fakePartRepo) RecomputeStock(_ context.Context, partID id.ID) (*inventory.Part, error) {
	return r.GetPart(context.Background(), partID)
}

func newTestService(requests *fakeRequestRepo, parts *fakePartRepo, orderRepo *fakeOrderRepo) *Service {
	if parts == nil {
		parts = newFakePartRepo()
	}
	if orderRepo == nil {
		orderRepo = &fakeOrderRepo{}
	}
	return NewService(requests, inventory.NewService(parts, nil), orderRepo)
}

func superAdmin() *appctx.ActorContext {
	return &appctx.ActorContext{UserID: id.New(), Role: "super-admin"}
}

func request(customerID id.ID, technicianID *id.ID, status Status) *ServiceRequest {
	return &ServiceRequest{
		ID:           id.New(),
		CustomerID:   customerID,
		Product:      "Split AC",
		ProblemText:  "not cooling",
		Status:       status,
		TechnicianID: technicianID,
	}
}

func TestListForActorScoping(t *testing.T) {
	repo := newFakeRequestRepo()
	customerID := id.New()
	techID := id.New()
	otherCustomer := id.New()

	mine := request(customerID, nil, StatusPending)
	assigned := request(otherCustomer, &techID, StatusInProgress)
	foreign := request(otherCustomer, nil, StatusPending)
	for _, sr := range []*ServiceRequest{mine, assigned, foreign} {
		require.NoError(t, repo.Create(context.Background(), sr))
	}

	svc := newTestService(repo, nil, nil)

	t.Run("super admin sees everything", func(t *testing.T) {
		res, err := svc.ListForActor(context.Background(), superAdmin(), domain.ListFilter{})
		require.NoError(t, err)
		assert.Len(t, res.Items, 3)
	})

	t.Run("customer sees only requests they opened", func(t *testing.T) {
		actor := &appctx.ActorContext{UserID: customerID, Role: "customer"}
		res, err := svc.ListForActor(context.Background(), actor, domain.ListFilter{})
		require.NoError(t, err)
		require.Len(t, res.Items, 1)
		assert.Equal(t, mine.ID, res.Items[0].ID)
	})

	t.Run("technician sees only assigned requests", func(t *testing.T) {
		actor := &appctx.ActorContext{UserID: techID, Role: "technician"}
		res, err := svc.ListForActor(context.Background(), actor, domain.ListFilter{})
		require.NoError(t, err)
		require.Len(t, res.Items, 1)
		assert.Equal(t, assigned.ID, res.Items[0].ID)
	})

	t.Run("admin without branch sees empty page", func(t *testing.T) {
		actor := &appctx.ActorContext{UserID: id.New(), Role: "admin"}
		res, err := svc.ListForActor(context.Background(), actor, domain.ListFilter{})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
	})
}

func TestListForActorBranchAdminUsesDerivedBranch(t *testing.T) {
	repo := newFakeRequestRepo()
	branchA, branchB := id.New(), id.New()
	customerA, customerB := id.New(), id.New()

	inA := request(customerA, nil, StatusPending)
	inB := request(customerB, nil, StatusPending)
	require.NoError(t, repo.Create(context.Background(), inA))
	require.NoError(t, repo.Create(context.Background(), inB))

	// Customer A last ordered from branch A, customer B from branch B.
	orderRepo := &fakeOrderRepo{orders: []orders.Order{
		{ID: id.New(), CustomerID: &customerA, BranchID: branchA, Status: orders.StatusCompleted, CreatedAt: time.Now()},
		{ID: id.New(), CustomerID: &customerB, BranchID: branchB, Status: orders.StatusCompleted, CreatedAt: time.Now()},
	}}
	svc := newTestService(repo, nil, orderRepo)

	actor := &appctx.ActorContext{UserID: id.New(), Role: "admin", BranchID: &branchA}
	res, err := svc.ListForActor(context.Background(), actor, domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, inA.ID, res.Items[0].ID)
}

func TestGetForActorOutOfScopeReportsNotFound(t *testing.T) {
	repo := newFakeRequestRepo()
	foreign := request(id.New(), nil, StatusPending)
	require.NoError(t, repo.Create(context.Background(), foreign))

	svc := newTestService(repo, nil, nil)
	actor := &appctx.ActorContext{UserID: id.New(), Role: "customer"}

	_, err := svc.GetForActor(context.Background(), actor, foreign.ID)
	assert.True(t, apperror.IsNotFound(err), "out-of-scope must look identical to missing")
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newFakeRequestRepo(), nil, nil)

	cases := []struct {
		name string
		sr   *ServiceRequest
	}{
		{"missing customer", &ServiceRequest{ProblemText: "broken"}},
		{"missing problem text", &ServiceRequest{CustomerID: id.New()}},
		{"unknown status", &ServiceRequest{CustomerID: id.New(), ProblemText: "broken", Status: Status("open")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Create(context.Background(), tc.sr)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "got %v", err)
		})
	}
}

func TestCreateDefaultsStatusAndID(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestService(repo, nil, nil)

	sr := &ServiceRequest{CustomerID: id.New(), ProblemText: "leaking"}
	require.NoError(t, svc.Create(context.Background(), sr))
	assert.Equal(t, StatusPending, sr.Status)
	assert.False(t, id.IsNil(sr.ID))
}

func TestTransition(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestService(repo, nil, nil)
	admin := superAdmin()

	sr := request(id.New(), nil, StatusPending)
	require.NoError(t, repo.Create(context.Background(), sr))

	got, err := svc.Transition(context.Background(), admin, sr.ID, StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status)

	// completed is terminal
	_, err = svc.Transition(context.Background(), admin, sr.ID, StatusCompleted)
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), admin, sr.ID, StatusPending)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition), "got %v", err)

	_, err = svc.Transition(context.Background(), admin, sr.ID, Status("bogus"))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestStatusMachine(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusInProgress))
	assert.True(t, CanTransition(StatusInProgress, StatusScheduled))
	assert.True(t, CanTransition(StatusInProgress, StatusCompleted))
	assert.True(t, CanTransition(StatusScheduled, StatusCompleted))

	assert.False(t, CanTransition(StatusPending, StatusCompleted))
	assert.False(t, CanTransition(StatusCompleted, StatusPending))
	assert.False(t, CanTransition(StatusScheduled, StatusInProgress))
}

func TestAssignTechnicianMovesPendingToInProgress(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestService(repo, nil, nil)
	admin := superAdmin()

	sr := request(id.New(), nil, StatusPending)
	require.NoError(t, repo.Create(context.Background(), sr))

	techID := id.New()
	got, err := svc.AssignTechnician(context.Background(), admin, sr.ID, techID)
	require.NoError(t, err)
	require.NotNil(t, got.TechnicianID)
	assert.Equal(t, techID, *got.TechnicianID)
	assert.Equal(t, StatusInProgress, got.Status)

	// Reassignment on an in-flight request keeps its status.
	otherTech := id.New()
	got, err = svc.AssignTechnician(context.Background(), admin, sr.ID, otherTech)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status)

	_, err = svc.AssignTechnician(context.Background(), admin, sr.ID, id.Nil())
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestSubmitDiagnosisRecordsThenConsumes(t *testing.T) {
	repo := newFakeRequestRepo()
	parts := newFakePartRepo()
	svc := newTestService(repo, parts, nil)
	admin := superAdmin()

	partID := parts.addPart(10)
	sr := request(id.New(), nil, StatusInProgress)
	require.NoError(t, repo.Create(context.Background(), sr))

	diagnosed := []DiagnosedPart{{PartID: partID, Quantity: 4, Price: types.MustMoney("12.00")}}
	got, err := svc.SubmitDiagnosis(context.Background(), admin, sr.ID, diagnosed, "fan motor worn")
	require.NoError(t, err)
	assert.Equal(t, diagnosed, got.DiagnosedParts)
	assert.Equal(t, "fan motor worn", got.DiagnosisNotes)

	part, err := parts.GetPart(context.Background(), partID)
	require.NoError(t, err)
	assert.Equal(t, 6, part.StockCount)
}

func TestSubmitDiagnosisKeepsRecordWhenConsumptionFails(t *testing.T) {
	repo := newFakeRequestRepo()
	parts := newFakePartRepo()
	svc := newTestService(repo, parts, nil)
	admin := superAdmin()

	partID := parts.addPart(1)
	sr := request(id.New(), nil, StatusInProgress)
	require.NoError(t, repo.Create(context.Background(), sr))

	_, err := svc.SubmitDiagnosis(context.Background(), admin, sr.ID, []DiagnosedPart{
		{PartID: partID, Quantity: 3, Price: types.MustMoney("12.00")},
	}, "")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNegativeStock), "got %v", err)

	// The diagnosis itself committed before consumption ran.
	stored, getErr := repo.GetByID(context.Background(), sr.ID)
	require.NoError(t, getErr)
	require.Len(t, stored.DiagnosedParts, 1)
	assert.Equal(t, partID, stored.DiagnosedParts[0].PartID)
}

func TestSubmitDiagnosisRequiresParts(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newTestService(repo, nil, nil)
	sr := request(id.New(), nil, StatusInProgress)
	require.NoError(t, repo.Create(context.Background(), sr))

	_, err := svc.SubmitDiagnosis(context.Background(), superAdmin(), sr.ID, nil, "notes only")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
