package commands_test

import (
	"math"
	"testing"
	"time"

	"dispatch/internal/adapters/out/memlock"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/vendor"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Bengaluru city centre.
const (
	originLat = 12.97
	originLon = 77.59
)

// kmPerDegreeLat is the length of one degree of latitude on the model sphere.
var kmPerDegreeLat = kernel.EarthRadiusKm * math.Pi / 180

// dispatchEnv wires every handler to one in-memory store, clock, lock and dispatcher.
type dispatchEnv struct {
	store        *memStore
	clock        *fakeClock
	dispatcher   *recordingDispatcher
	lock         ports.DistributedLock
	orchestrator *commands.AssignmentOrchestrator

	start   commands.StartAssignmentCommandHandler
	accept  commands.VendorAcceptCommandHandler
	reject  commands.VendorRejectCommandHandler
	force   commands.ForceAssignCommandHandler
	cancel  commands.CancelOrderCommandHandler
	advance commands.AdvanceOrderCommandHandler
	sweep   commands.ExpireOffersCommandHandler
}

func newDispatchEnv(t *testing.T) *dispatchEnv {
	t.Helper()
	return newDispatchEnvWithLock(t, nil)
}

func newDispatchEnvWithLock(t *testing.T, lock ports.DistributedLock) *dispatchEnv {
	t.Helper()
	return newDispatchEnvWith(t, lock, nil)
}

// newDispatchEnvWith wires the handlers to publisher instead of the recording dispatcher when it is set.
func newDispatchEnvWith(t *testing.T, lock ports.DistributedLock, publisher ports.NotificationDispatcher) *dispatchEnv {
	t.Helper()

	env := &dispatchEnv{
		store:      newMemStore(),
		clock:      newFakeClock(),
		dispatcher: &recordingDispatcher{},
	}
	if lock == nil {
		lock = memlock.NewWithClock(env.clock.Now)
	}
	env.lock = lock
	if publisher == nil {
		publisher = env.dispatcher
	}

	logger := zap.NewNop()
	env.orchestrator = commands.NewAssignmentOrchestrator(
		env.store, publisher, commands.DefaultDispatchOptions(), env.clock, logger,
	)
	env.start = commands.NewStartAssignmentCommandHandler(env.orchestrator)
	env.accept = commands.NewVendorAcceptCommandHandler(
		env.store, env.lock, env.orchestrator, publisher, env.clock, commands.LockSettings{}, logger,
	)
	env.reject = commands.NewVendorRejectCommandHandler(env.store, env.orchestrator, env.clock, logger)
	env.force = commands.NewForceAssignCommandHandler(env.store, publisher, env.clock, logger)
	env.cancel = commands.NewCancelOrderCommandHandler(env.store, publisher, env.clock, logger)
	env.advance = commands.NewAdvanceOrderCommandHandler(orderUoWFactory{env.store}, publisher, logger)
	env.sweep = commands.NewExpireOffersCommandHandler(env.store, env.orchestrator, env.clock, logger)
	return env
}

// seedOrder stores an awaiting_assignment order at the origin.
func (e *dispatchEnv) seedOrder(t *testing.T) kernel.UUID {
	t.Helper()

	location, err := kernel.NewLocation(originLat, originLon)
	require.NoError(t, err)

	o, err := order.NewOrder(kernel.NewUUID(), "ORD-"+time.Now().Format("150405.000"), location, order.AwaitingAssignment)
	require.NoError(t, err)

	require.NoError(t, orderUoWFactory{e.store}.Create().OrderRepository().Add(t.Context(), o))
	return o.ID()
}

// seedVendor stores an approved vendor kmNorth kilometres due north of the origin.
func (e *dispatchEnv) seedVendor(t *testing.T, kmNorth float64) kernel.UUID {
	t.Helper()
	return e.seedVendorWithStatus(t, kmNorth, vendor.Approved)
}

func (e *dispatchEnv) seedVendorWithStatus(t *testing.T, kmNorth float64, status vendor.Status) kernel.UUID {
	t.Helper()

	location, err := kernel.NewLocation(originLat+kmNorth/kmPerDegreeLat, originLon)
	require.NoError(t, err)

	v, err := vendor.RestoreVendor(kernel.NewUUID(), kernel.NewUUID(), "vendor", location, status)
	require.NoError(t, err)

	require.NoError(t, vendorUoWFactory{e.store}.Create().VendorRepository().Add(t.Context(), v))
	return v.ID()
}

func (e *dispatchEnv) startAssignment(t *testing.T, orderID kernel.UUID, maxRadiusKm float64, batchSize, timeoutSeconds int) commands.Batch {
	t.Helper()

	cmd, err := commands.NewStartAssignmentCommand(orderID, maxRadiusKm, batchSize, timeoutSeconds)
	require.NoError(t, err)

	batch, err := e.start.Handle(t.Context(), cmd)
	require.NoError(t, err)
	return batch
}

func (e *dispatchEnv) acceptOffer(t *testing.T, orderID, vendorID kernel.UUID) (commands.AcceptResult, error) {
	t.Helper()

	cmd, err := commands.NewVendorAcceptCommand(orderID, vendorID)
	require.NoError(t, err)
	return e.accept.Handle(t.Context(), cmd)
}

func (e *dispatchEnv) rejectOffer(t *testing.T, orderID, vendorID kernel.UUID) (commands.RejectResult, error) {
	t.Helper()

	cmd, err := commands.NewVendorRejectCommand(orderID, vendorID, "")
	require.NoError(t, err)
	return e.reject.Handle(t.Context(), cmd)
}

func vendorIDs(batch commands.Batch) []kernel.UUID {
	ids := make([]kernel.UUID, 0, len(batch.Candidates))
	for _, c := range batch.Candidates {
		ids = append(ids, c.VendorID)
	}
	return ids
}
