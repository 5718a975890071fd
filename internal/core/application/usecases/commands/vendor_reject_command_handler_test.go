package commands_test

import (
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendorReject_RecordsReasonAndKeepsOthersOpen(t *testing.T) {
	// Given
	env := newDispatchEnv(t)
	orderID := env.seedOrder(t)
	first := env.seedVendor(t, 1)
	second := env.seedVendor(t, 2)
	env.startAssignment(t, orderID, 10, 2, 120)

	cmd, err := commands.NewVendorRejectCommand(orderID, first, "too busy")
	require.NoError(t, err)

	// When
	result, err := env.reject.Handle(t.Context(), cmd)

	// Then
	require.NoError(t, err)
	assert.Nil(t, result.Fallback.NextBatch)

	rows := rowStatuses(env.store.rowsOf(orderID))
	assert.Equal(t, assignment.Rejected, rows[first].Status())
	assert.Equal(t, "too busy", rows[first].Metadata().RejectionReason)
	require.NotNil(t, rows[first].RespondedAt())
	assert.Equal(t, assignment.Pushed, rows[second].Status())
}

func TestVendorReject_FallbackCascadeUntilAssignmentFailed(t *testing.T) {
	// Given five vendors and batches of three
	env := newDispatchEnv(t)
	orderID := env.seedOrder(t)
	for _, km := range []float64{1, 2, 3, 4, 5} {
		env.seedVendor(t, km)
	}
	first := env.startAssignment(t, orderID, 10, 3, 120)

	// When the whole first batch rejects
	var result commands.RejectResult
	for _, id := range vendorIDs(first) {
		var err error
		result, err = env.rejectOffer(t, orderID, id)
		require.NoError(t, err)
	}

	// Then a second batch goes to the two untried vendors
	require.NotNil(t, result.Fallback.NextBatch)
	second := *result.Fallback.NextBatch
	assert.Equal(t, 2, second.Number)
	require.Len(t, second.Candidates, 2)
	for _, id := range vendorIDs(second) {
		assert.NotContains(t, vendorIDs(first), id)
	}
	assert.Equal(t, order.Assigned, env.store.order(orderID).Status())

	// When the second batch rejects too
	for _, id := range vendorIDs(second) {
		var err error
		result, err = env.rejectOffer(t, orderID, id)
		require.NoError(t, err)
	}

	// Then the pool is exhausted
	assert.True(t, result.Fallback.Failed)
	assert.Nil(t, result.Fallback.NextBatch)
	assert.Equal(t, order.AssignmentFailed, env.store.order(orderID).Status())

	rows := env.store.rowsOf(orderID)
	assert.Len(t, rows, 5)
	for _, row := range rows {
		assert.Equal(t, assignment.Rejected, row.Status())
		assert.Equal(t, assignment.ReasonDeclined, row.Metadata().RejectionReason)
	}
}

func TestVendorReject_ExpiredOffer(t *testing.T) {
	// Given
	env := newDispatchEnv(t)
	orderID := env.seedOrder(t)
	first := env.seedVendor(t, 1)
	env.seedVendor(t, 2)
	env.startAssignment(t, orderID, 10, 1, 30)
	env.clock.Advance(time.Minute)

	// When
	_, err := env.rejectOffer(t, orderID, first)

	// Then
	require.ErrorIs(t, err, errs.ErrOfferExpired)
	rows := rowStatuses(env.store.rowsOf(orderID))
	assert.Equal(t, assignment.Expired, rows[first].Status())
	assert.Len(t, rows, 2, "lazy expiry pushed the next batch")
}

func TestVendorReject_NoOpenOffer(t *testing.T) {
	env := newDispatchEnv(t)
	orderID := env.seedOrder(t)
	env.seedVendor(t, 1)
	env.startAssignment(t, orderID, 10, 1, 30)

	_, err := env.rejectOffer(t, orderID, kernel.NewUUID())

	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestVendorReject_TwiceIsNotFound(t *testing.T) {
	env := newDispatchEnv(t)
	orderID := env.seedOrder(t)
	vendorID := env.seedVendor(t, 1)
	env.seedVendor(t, 2)
	env.startAssignment(t, orderID, 10, 2, 30)

	_, err := env.rejectOffer(t, orderID, vendorID)
	require.NoError(t, err)

	_, err = env.rejectOffer(t, orderID, vendorID)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}
