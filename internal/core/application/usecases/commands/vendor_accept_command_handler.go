package commands

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Lock defaults.
const (
	DefaultLockTTL            = 5 * time.Minute
	DefaultLockRequestTimeout = 2 * time.Second
)

// AcceptResult is the outcome of a vendor accept. Losing a race is a result, not an error.
type AcceptResult struct {
	Success bool
	Winner  bool
	Reason  string
}

func wonResult() AcceptResult {
	return AcceptResult{Success: true, Winner: true}
}

func lostRaceResult() AcceptResult {
	return AcceptResult{Success: false, Reason: assignment.ReasonOrderAlreadyAccepted}
}

// OrderLockKey is the distributed lock key that serialises winner selection for an order.
func OrderLockKey(orderID kernel.UUID) string {
	return "order:lock:" + orderID.String()
}

// LockSettings tune the distributed lock used by the accept path.
type LockSettings struct {
	TTL            time.Duration
	RequestTimeout time.Duration
}

// VendorAcceptCommandHandler decides the single winner of an order.
//
// Everything before the lock runs concurrently and redundantly. Only the lock holder
// commits a winner, inside one transaction that also locks the order row. The lock is
// kept after a successful commit until its TTL elapses.
type VendorAcceptCommandHandler struct {
	uowFactory   UoWFactory
	lock         ports.DistributedLock
	orchestrator *AssignmentOrchestrator
	notifier     notifier
	clock        kernel.Clock
	settings     LockSettings
	logger       *zap.Logger
}

func NewVendorAcceptCommandHandler(
	uowFactory UoWFactory,
	lock ports.DistributedLock,
	orchestrator *AssignmentOrchestrator,
	dispatcher ports.NotificationDispatcher,
	clock kernel.Clock,
	settings LockSettings,
	logger *zap.Logger,
) VendorAcceptCommandHandler {
	if settings.TTL <= 0 {
		settings.TTL = DefaultLockTTL
	}
	if settings.RequestTimeout <= 0 {
		settings.RequestTimeout = DefaultLockRequestTimeout
	}
	logger = logger.With(zap.String("component", "race_arbiter"))
	return VendorAcceptCommandHandler{
		uowFactory:   uowFactory,
		lock:         lock,
		orchestrator: orchestrator,
		notifier:     newNotifier(dispatcher, logger),
		clock:        clock,
		settings:     settings,
		logger:       logger,
	}
}

// Handle runs the accept protocol.
//
// Errors:
//   - NOT_FOUND when the order does not exist or the vendor has no open offer
//   - INVALID_STATE when the order was cancelled or failed
//   - EXPIRED when the offer deadline passed (the row is moved to EXPIRED first)
//   - LOCK_UNAVAILABLE when the lock service cannot answer; the offer stays open
//   - TRANSACTION_FAILED when the winning write fails; the lock is released
func (h VendorAcceptCommandHandler) Handle(ctx context.Context, cmd VendorAcceptCommand) (AcceptResult, error) {
	if err := cmd.Validate(); err != nil {
		return AcceptResult{}, err
	}

	orderID, vendorID := cmd.OrderID(), cmd.VendorID()
	log := h.logger.With(zap.String("orderId", orderID.String()), zap.String("vendorId", vendorID.String()))

	reader := h.uowFactory.Create()
	o, err := reader.OrderRepository().Get(ctx, orderID)
	if err != nil {
		return AcceptResult{}, err
	}
	if result, done, stateErr := h.checkOrderState(o, vendorID); done {
		if stateErr == nil {
			log.Debug("order already decided")
		}
		return result, stateErr
	}

	row, err := reader.AssignmentRepository().GetPushed(ctx, orderID, vendorID)
	if err != nil {
		return AcceptResult{}, err
	}

	if row.IsExpired(h.clock.Now()) {
		return AcceptResult{}, h.expire(ctx, row, log)
	}

	token := uuid.NewString()
	acquired, err := h.tryAcquire(ctx, orderID, token)
	if err != nil {
		metrics.AcceptOutcomesTotal.WithLabelValues(metrics.OutcomeLockUnavailable).Inc()
		log.Warn("lock service unavailable", zap.Error(err))
		return AcceptResult{}, errs.NewLockUnavailableError(OrderLockKey(orderID), err)
	}

	if !acquired {
		result, loserErr := h.rejectLoser(ctx, orderID, vendorID, log)
		if loserErr != nil || result.Winner {
			return result, loserErr
		}
		metrics.AcceptOutcomesTotal.WithLabelValues(metrics.OutcomeLostRace).Inc()
		log.Debug("lost race")
		return result, nil
	}

	o, losers, err := h.commitWinner(ctx, orderID, vendorID)
	if err != nil {
		h.release(orderID, token, log)
		return h.winnerFailed(ctx, orderID, vendorID, err, log)
	}

	metrics.AcceptOutcomesTotal.WithLabelValues(metrics.OutcomeWon).Inc()
	log.Info("vendor won order", zap.Int("rejectedOffers", len(losers)))
	h.notifier.orderAssigned(ctx, o, vendorID, losers, false)
	return wonResult(), nil
}

// checkOrderState short-circuits requests on orders that can no longer be won.
func (h VendorAcceptCommandHandler) checkOrderState(o *order.Order, vendorID kernel.UUID) (AcceptResult, bool, error) {
	switch {
	case o.Status().RequiresVendor() && o.IsAssignedTo(vendorID):
		return wonResult(), true, nil
	case o.Status().RequiresVendor():
		return lostRaceResult(), true, nil
	case o.Status().IsTerminal():
		return AcceptResult{}, true, errs.NewInvalidStateError("order", o.Status().String(), "order is no longer open for offers")
	default:
		return AcceptResult{}, false, nil
	}
}

func (h VendorAcceptCommandHandler) tryAcquire(ctx context.Context, orderID kernel.UUID, token string) (bool, error) {
	lockCtx, cancel := context.WithTimeout(ctx, h.settings.RequestTimeout)
	defer cancel()

	started := time.Now()
	defer func() {
		metrics.LockAcquireDuration.Observe(time.Since(started).Seconds())
	}()

	return h.lock.TryAcquire(lockCtx, OrderLockKey(orderID), token, h.settings.TTL)
}

// commitWinner is the critical section: one transaction that records the winner and
// rejects every other open offer of the order.
func (h VendorAcceptCommandHandler) commitWinner(
	ctx context.Context,
	orderID, vendorID kernel.UUID,
) (*order.Order, []*assignment.Assignment, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	assignments := uow.AssignmentRepository()
	pushed, err := assignments.FindPushedByOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	now := h.clock.Now()
	var winner *assignment.Assignment
	losers := make([]*assignment.Assignment, 0, len(pushed))
	for _, row := range pushed {
		if row.VendorID().IsEqual(vendorID) {
			winner = row
			continue
		}
		losers = append(losers, row)
	}

	if err = h.verifyStillOpen(o, winner, vendorID, now); err != nil {
		return nil, nil, err
	}

	if err = o.Accept(vendorID, now); err != nil {
		return nil, nil, err
	}
	if err = winner.Accept(now); err != nil {
		return nil, nil, err
	}
	for _, row := range losers {
		if err = row.Reject(assignment.ReasonOrderAlreadyAccepted, now); err != nil {
			return nil, nil, err
		}
	}

	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return nil, nil, errs.NewTransactionFailedError("update order", err)
	}
	if err = assignments.Update(ctx, winner); err != nil {
		return nil, nil, errs.NewTransactionFailedError("accept offer", err)
	}
	for _, row := range losers {
		if err = assignments.Update(ctx, row); err != nil {
			return nil, nil, errs.NewTransactionFailedError("reject sibling offer", err)
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, nil, errs.NewTransactionFailedError("commit winner", err)
	}

	return o, losers, nil
}

// verifyStillOpen re-checks the order and offer after the row lock is taken.
func (h VendorAcceptCommandHandler) verifyStillOpen(
	o *order.Order,
	winner *assignment.Assignment,
	vendorID kernel.UUID,
	now time.Time,
) error {
	if o.Status().RequiresVendor() {
		return errLostRace
	}
	if o.Status() != order.Assigned {
		return errs.NewInvalidStateError("order", o.Status().String(), "order is no longer open for offers")
	}
	if winner == nil {
		return errs.NewObjectNotFoundError("offer", vendorID.String())
	}
	if winner.IsExpired(now) {
		return errs.NewOfferExpiredError(o.ID().String(), vendorID.String(), winner.ExpiresAt())
	}
	return nil
}

// errLostRace marks a lock holder that found the order already decided.
var errLostRace = errors.New("order already accepted")

// winnerFailed maps a failed critical section to the caller-facing result.
func (h VendorAcceptCommandHandler) winnerFailed(
	ctx context.Context,
	orderID, vendorID kernel.UUID,
	err error,
	log *zap.Logger,
) (AcceptResult, error) {
	switch errs.KindOf(err) {
	case errs.KindExpired:
		h.runExpiry(ctx, orderID, log)
		metrics.AcceptOutcomesTotal.WithLabelValues(metrics.OutcomeExpired).Inc()
		return AcceptResult{}, err
	case errs.KindNotFound, errs.KindInvalidState:
		return AcceptResult{}, err
	}

	if errors.Is(err, errLostRace) {
		metrics.AcceptOutcomesTotal.WithLabelValues(metrics.OutcomeLostRace).Inc()
		return lostRaceResult(), nil
	}

	metrics.AcceptOutcomesTotal.WithLabelValues(metrics.OutcomeTransactionFailed).Inc()
	log.Error("winner transaction failed, lock released", zap.Error(err))
	if errs.KindOf(err) == errs.KindTransactionFailed {
		return AcceptResult{}, err
	}
	return AcceptResult{}, errs.NewTransactionFailedError("accept offer", err)
}

// errAlreadyWon marks a lock loser whose own earlier accept already won the order.
var errAlreadyWon = errors.New("order already accepted by this vendor")

// rejectLoser closes the losing vendor's offer. An order that was cancelled or failed
// meanwhile is INVALID_STATE; other failures are logged and the race outcome stands,
// a stale PUSHED row is closed by the winner or by expiry.
func (h VendorAcceptCommandHandler) rejectLoser(
	ctx context.Context,
	orderID, vendorID kernel.UUID,
	log *zap.Logger,
) (AcceptResult, error) {
	remaining, err := h.closeLoserOffer(ctx, orderID, vendorID)
	switch {
	case errors.Is(err, errAlreadyWon):
		log.Debug("order already decided")
		return wonResult(), nil
	case errs.KindOf(err) == errs.KindInvalidState:
		return AcceptResult{}, err
	case err != nil:
		if errs.KindOf(err) != errs.KindNotFound {
			log.Warn("could not reject losing offer", zap.Error(err))
		}
		return lostRaceResult(), nil
	}

	if remaining == 0 {
		if _, err = h.orchestrator.OnAllPushedExhausted(ctx, orderID); err != nil {
			log.Warn("fallback after lost race failed", zap.Error(err))
		}
	}
	return lostRaceResult(), nil
}

func (h VendorAcceptCommandHandler) closeLoserOffer(ctx context.Context, orderID, vendorID kernel.UUID) (int, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().GetForUpdate(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if result, done, stateErr := h.checkOrderState(o, vendorID); done {
		if stateErr != nil {
			return 0, stateErr
		}
		if result.Winner {
			return 0, errAlreadyWon
		}
	}

	assignments := uow.AssignmentRepository()
	pushed, err := assignments.FindPushedByOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}

	remaining := 0
	found := false
	for _, row := range pushed {
		if !row.VendorID().IsEqual(vendorID) {
			remaining++
			continue
		}
		found = true
		if err = row.Reject(assignment.ReasonOrderAlreadyAccepted, h.clock.Now()); err != nil {
			return 0, err
		}
		if err = assignments.Update(ctx, row); err != nil {
			return 0, err
		}
	}
	if !found {
		return 0, errs.NewObjectNotFoundError("offer", vendorID.String())
	}

	return remaining, uow.Commit(ctx)
}

// expire handles an accept that arrived after the deadline.
func (h VendorAcceptCommandHandler) expire(ctx context.Context, row *assignment.Assignment, log *zap.Logger) error {
	h.runExpiry(ctx, row.OrderID(), log)
	metrics.AcceptOutcomesTotal.WithLabelValues(metrics.OutcomeExpired).Inc()
	return errs.NewOfferExpiredError(row.OrderID().String(), row.VendorID().String(), row.ExpiresAt())
}

func (h VendorAcceptCommandHandler) runExpiry(ctx context.Context, orderID kernel.UUID, log *zap.Logger) {
	if _, _, err := h.orchestrator.ExpireOffers(ctx, orderID); err != nil {
		log.Warn("lazy expiry failed", zap.Error(err))
	}
}

// release frees the lock after a failed critical section. It uses a fresh context so
// a cancelled request still releases.
func (h VendorAcceptCommandHandler) release(orderID kernel.UUID, token string, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), h.settings.RequestTimeout)
	defer cancel()

	if err := h.lock.Release(ctx, OrderLockKey(orderID), token); err != nil {
		log.Error("lock release failed", zap.Error(err))
	}
}
