package commands

import (
	"context"
	"errors"
	"slices"
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/metrics"

	"go.uber.org/zap"
)

// OfferedCandidate is one vendor of a pushed batch.
type OfferedCandidate struct {
	VendorID   kernel.UUID
	DistanceKm float64
}

// Batch describes a set of offers pushed together with one shared deadline.
type Batch struct {
	OrderID    kernel.UUID
	Number     int
	ExpiresAt  time.Time
	Candidates []OfferedCandidate
}

// ExhaustionOutcome reports what the fallback did for an order.
type ExhaustionOutcome struct {
	// NextBatch is set when a fallback batch was pushed.
	NextBatch *Batch
	// Failed is true when no untried vendor remained and the order became assignment_failed.
	Failed bool
}

// AssignmentOrchestrator owns the push and fallback protocol of a single order.
//
// Every write takes the order row lock first (OrderRepository.GetForUpdate), so a
// reject, an expiry and the sweep racing on the same order produce exactly one
// fallback batch.
//
// Example:
//
//	orchestrator := NewAssignmentOrchestrator(uowFactory, dispatcher, DefaultDispatchOptions(), kernel.SystemClock(), logger)
//	batch, err := orchestrator.Start(ctx, orderID, DispatchOptions{MaxRadiusKm: 5})
//	switch errs.KindOf(err) {
//	case errs.KindNoVendors:
//	    // nobody in range
//	}
type AssignmentOrchestrator struct {
	uowFactory UoWFactory
	notifier   notifier
	finder     services.CandidateFinder
	defaults   DispatchOptions
	clock      kernel.Clock
	logger     *zap.Logger
}

func NewAssignmentOrchestrator(
	uowFactory UoWFactory,
	dispatcher ports.NotificationDispatcher,
	defaults DispatchOptions,
	clock kernel.Clock,
	logger *zap.Logger,
) *AssignmentOrchestrator {
	logger = logger.With(zap.String("component", "assignment_orchestrator"))
	return &AssignmentOrchestrator{
		uowFactory: uowFactory,
		notifier:   newNotifier(dispatcher, logger),
		finder:     services.NewCandidateFinder(),
		defaults:   defaults.withDefaults(DefaultDispatchOptions()),
		clock:      clock,
		logger:     logger,
	}
}

// Start pushes the first batch of offers for an order that is waiting for assignment.
//
// Errors:
//   - NOT_FOUND when the order does not exist
//   - INVALID_STATE when the order is not awaiting_assignment, payment_verified or paid
//   - NO_VENDORS when no untried approved vendor is within the radius
func (a *AssignmentOrchestrator) Start(ctx context.Context, orderID kernel.UUID, opts DispatchOptions) (Batch, error) {
	opts = opts.withDefaults(a.defaults)
	if err := opts.Validate(); err != nil {
		return Batch{}, err
	}

	uow := a.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return Batch{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().GetForUpdate(ctx, orderID)
	if err != nil {
		return Batch{}, err
	}

	if !o.Status().IsAwaitingAssignment() {
		return Batch{}, errs.NewInvalidStateError("order", o.Status().String(), "assignment already started or finished")
	}

	history, err := uow.AssignmentRepository().FindByOrder(ctx, orderID)
	if err != nil {
		return Batch{}, err
	}

	batch, err := a.pushBatch(ctx, uow, o, history, opts)
	if err != nil {
		return Batch{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return Batch{}, err
	}

	a.batchPushed(ctx, o, batch)
	return batch, nil
}

// OnAllPushedExhausted runs the fallback for an order whose last open offer was closed.
//
// It is idempotent: under the order row lock it re-checks that the order still waits for
// a vendor and has no PUSHED row, and does nothing otherwise. Vendors that already have any
// row for the order are never offered it again.
func (a *AssignmentOrchestrator) OnAllPushedExhausted(ctx context.Context, orderID kernel.UUID) (ExhaustionOutcome, error) {
	uow := a.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ExhaustionOutcome{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().GetForUpdate(ctx, orderID)
	if err != nil {
		return ExhaustionOutcome{}, err
	}

	if !o.Status().IsWaitingForVendor() {
		return ExhaustionOutcome{}, nil
	}

	history, err := uow.AssignmentRepository().FindByOrder(ctx, orderID)
	if err != nil {
		return ExhaustionOutcome{}, err
	}

	if len(history) == 0 || slices.ContainsFunc(history, (*assignment.Assignment).IsPushed) {
		return ExhaustionOutcome{}, nil
	}

	opts := a.defaults
	if last := lastBatchRow(history); last != nil {
		opts = optionsFromMetadata(last.Metadata(), a.defaults)
	}

	batch, err := a.pushBatch(ctx, uow, o, history, opts)
	if errors.Is(err, errs.ErrNoVendors) {
		return a.failAssignment(ctx, uow, o, len(history))
	}
	if err != nil {
		return ExhaustionOutcome{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return ExhaustionOutcome{}, err
	}

	a.logger.Info("fallback batch pushed",
		zap.String("orderId", orderID.String()),
		zap.Int("batch", batch.Number),
		zap.Int("offers", len(batch.Candidates)),
	)
	a.batchPushed(ctx, o, batch)
	return ExhaustionOutcome{NextBatch: &batch}, nil
}

// ExpireOffers moves every overdue PUSHED row of the order to EXPIRED and runs the
// fallback when no open offer remains. It returns the number of rows expired.
func (a *AssignmentOrchestrator) ExpireOffers(ctx context.Context, orderID kernel.UUID) (int, ExhaustionOutcome, error) {
	expired, remaining, err := a.expireOverdue(ctx, orderID)
	if err != nil {
		return 0, ExhaustionOutcome{}, err
	}
	if expired == 0 || remaining > 0 {
		return expired, ExhaustionOutcome{}, nil
	}

	outcome, err := a.OnAllPushedExhausted(ctx, orderID)
	return expired, outcome, err
}

func (a *AssignmentOrchestrator) expireOverdue(ctx context.Context, orderID kernel.UUID) (int, int, error) {
	uow := a.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, 0, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if _, err := uow.OrderRepository().GetForUpdate(ctx, orderID); err != nil {
		return 0, 0, err
	}

	assignments := uow.AssignmentRepository()
	pushed, err := assignments.FindPushedByOrder(ctx, orderID)
	if err != nil {
		return 0, 0, err
	}

	now := a.clock.Now()
	expired := 0
	for _, row := range pushed {
		if !row.IsExpired(now) {
			continue
		}
		if err = row.Expire(now); err != nil {
			return 0, 0, err
		}
		if err = assignments.Update(ctx, row); err != nil {
			return 0, 0, err
		}
		expired++
	}

	if expired == 0 {
		return 0, len(pushed), nil
	}

	if err = uow.Commit(ctx); err != nil {
		return 0, 0, err
	}

	metrics.OffersExpiredTotal.Add(float64(expired))
	a.logger.Debug("offers expired", zap.String("orderId", orderID.String()), zap.Int("count", expired))
	return expired, len(pushed) - expired, nil
}

// pushBatch ranks untried vendors, inserts the batch and moves the order to assigned.
// The caller owns the transaction.
func (a *AssignmentOrchestrator) pushBatch(
	ctx context.Context,
	uow UoW,
	o *order.Order,
	history []*assignment.Assignment,
	opts DispatchOptions,
) (Batch, error) {
	tried := make([]kernel.UUID, 0, len(history))
	batchNumber := 0
	for _, row := range history {
		tried = append(tried, row.VendorID())
		batchNumber = max(batchNumber, row.Metadata().Batch)
	}
	batchNumber++

	candidates, err := a.findCandidates(ctx, uow.VendorRepository(), o.Location(), opts.MaxRadiusKm, tried)
	if err != nil {
		return Batch{}, err
	}
	if len(candidates) == 0 {
		return Batch{}, errs.NewNoVendorsError(o.ID().String(), opts.MaxRadiusKm)
	}
	if len(candidates) > opts.BatchSize {
		candidates = candidates[:opts.BatchSize]
	}

	now := a.clock.Now()
	batch := Batch{
		OrderID:    o.ID(),
		Number:     batchNumber,
		ExpiresAt:  now.Add(opts.Timeout),
		Candidates: make([]OfferedCandidate, 0, len(candidates)),
	}

	rows := make([]*assignment.Assignment, 0, len(candidates))
	for _, c := range candidates {
		row, rowErr := assignment.NewOffer(kernel.NewUUID(), o.ID(), c.Vendor.ID(), now, batch.ExpiresAt, assignment.Metadata{
			DistanceKm:     c.DistanceKm,
			Batch:          batchNumber,
			MaxRadiusKm:    opts.MaxRadiusKm,
			TimeoutSeconds: int(opts.Timeout / time.Second),
			BatchSize:      opts.BatchSize,
		})
		if rowErr != nil {
			return Batch{}, rowErr
		}
		rows = append(rows, row)
		batch.Candidates = append(batch.Candidates, OfferedCandidate{VendorID: c.Vendor.ID(), DistanceKm: c.DistanceKm})
	}

	if o.Status() == order.Assigned {
		err = o.Reoffer()
	} else {
		err = o.Offer(now)
	}
	if err != nil {
		return Batch{}, err
	}

	if err = uow.AssignmentRepository().AddBatch(ctx, rows); err != nil {
		return Batch{}, err
	}
	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return Batch{}, err
	}

	return batch, nil
}

// findCandidates is the geo candidate lookup: a bounding-box prefilter in storage
// followed by exact great-circle ranking.
func (a *AssignmentOrchestrator) findCandidates(
	ctx context.Context,
	vendors ports.VendorRepository,
	origin kernel.Location,
	maxRadiusKm float64,
	exclude []kernel.UUID,
) ([]services.Candidate, error) {
	box, err := origin.BoundingBox(maxRadiusKm)
	if err != nil {
		return nil, err
	}

	nearby, err := vendors.FindApprovedWithin(ctx, box)
	if err != nil {
		return nil, err
	}

	return a.finder.Rank(origin, maxRadiusKm, nearby, exclude)
}

func (a *AssignmentOrchestrator) failAssignment(ctx context.Context, uow UoW, o *order.Order, tried int) (ExhaustionOutcome, error) {
	if err := o.FailAssignment(); err != nil {
		return ExhaustionOutcome{}, err
	}
	if err := uow.OrderRepository().Update(ctx, o); err != nil {
		return ExhaustionOutcome{}, err
	}
	if err := uow.Commit(ctx); err != nil {
		return ExhaustionOutcome{}, err
	}

	metrics.AssignmentFailuresTotal.Inc()
	a.logger.Warn("assignment failed, no untried vendors left",
		zap.String("orderId", o.ID().String()),
		zap.Int("triedVendors", tried),
	)
	a.notifier.assignmentFailed(ctx, o, tried)
	return ExhaustionOutcome{Failed: true}, nil
}

func (a *AssignmentOrchestrator) batchPushed(ctx context.Context, o *order.Order, batch Batch) {
	metrics.BatchesPushedTotal.Inc()
	metrics.OffersPushedTotal.Add(float64(len(batch.Candidates)))
	a.notifier.offersPushed(ctx, o, batch)
}

func lastBatchRow(history []*assignment.Assignment) *assignment.Assignment {
	var last *assignment.Assignment
	for _, row := range history {
		if row.Metadata().ForceAssigned {
			continue
		}
		if last == nil || row.Metadata().Batch > last.Metadata().Batch {
			last = row
		}
	}
	return last
}
