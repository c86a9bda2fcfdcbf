package analytics

import (
	"context"
	"fmt"
	"time"

	appctx "ventra/internal/core/context"
	"ventra/internal/core/id"
	"ventra/internal/core/tx"
	"ventra/internal/domain"
	"ventra/internal/domain/access"
	"ventra/internal/domain/branch"
	"ventra/internal/domain/catalog"
	"ventra/internal/domain/orders"
)

// Service fetches the role-scoped snapshot and runs the engine over it.
type Service struct {
	orders   orders.Repository
	catalog  *catalog.Service
	branches branch.Repository

	// txm, when set, runs the snapshot reads in one read-only transaction so
	// orders, prices and branch names come from a consistent point in time.
	txm tx.ReadOnlyManager

	// now is injected for deterministic window resolution in tests.
	now func() time.Time
}

// NewService creates the analytics service. txm may be nil; stores without
// transactions fetch the snapshot as independent reads.
func NewService(orderRepo orders.Repository, catalogSvc *catalog.Service, branchRepo branch.Repository, txm tx.ReadOnlyManager) *Service {
	return &Service{orders: orderRepo, catalog: catalogSvc, branches: branchRepo, txm: txm, now: time.Now}
}

// Request describes one aggregation query.
type Request struct {
	Preset    Preset
	CustomDay *time.Time
	Filters   Filters
}

// SalesForActor computes the sales aggregate visible to the actor.
// The tier filter is pushed down to the store AND re-applied inside the
// engine; a snapshot from elsewhere cannot widen the scope.
func (s *Service) SalesForActor(ctx context.Context, actor *appctx.ActorContext, req Request) (*SalesAggregate, error) {
	window, err := ResolveWindow(req.Preset, s.now(), req.CustomDay)
	if err != nil {
		return nil, err
	}

	tier := access.Classify(actor)
	actorID := id.Nil()
	if actor != nil {
		actorID = actor.UserID
	}

	items, ok := tier.OrderFilterItems(actorID)
	if !ok {
		empty := Compute(Input{Tier: tier, ActorID: actorID, Window: window})
		return &empty, nil
	}

	var (
		fetched    domain.ListResult[orders.Order]
		prices     catalog.PriceIndex
		branchList domain.ListResult[branch.Branch]
	)
	fetchSnapshot := func(ctx context.Context) error {
		var err error
		fetched, err = s.orders.List(ctx, domain.ListFilter{
			Items:  items,
			Expand: []string{"customer"},
		})
		if err != nil {
			return fmt.Errorf("fetch orders: %w", err)
		}
		prices, err = s.catalog.BuildPriceIndex(ctx)
		if err != nil {
			return fmt.Errorf("build price index: %w", err)
		}
		branchList, err = s.branches.List(ctx, domain.ListFilter{})
		if err != nil {
			return fmt.Errorf("fetch branches: %w", err)
		}
		return nil
	}

	if s.txm != nil {
		err = s.txm.ReadOnly(ctx, fetchSnapshot)
	} else {
		err = fetchSnapshot(ctx)
	}
	if err != nil {
		return nil, err
	}

	agg := Compute(Input{
		Orders:      fetched.Items,
		Prices:      prices,
		BranchNames: branch.NameIndex(branchList.Items),
		Window:      window,
		Filters:     req.Filters,
		Tier:        tier,
		ActorID:     actorID,
	})
	return &agg, nil
}
