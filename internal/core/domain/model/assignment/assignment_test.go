package assignment_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pushedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newOffer(t *testing.T) *assignment.Assignment {
	t.Helper()
	a, err := assignment.NewOffer(
		kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
		pushedAt, pushedAt.Add(2*time.Minute),
		assignment.Metadata{DistanceKm: 1.5, Batch: 1, MaxRadiusKm: 10, TimeoutSeconds: 120, BatchSize: 3},
	)
	require.NoError(t, err)
	return a
}

func TestNewOffer(t *testing.T) {
	t.Run("should create a pushed row", func(t *testing.T) {
		a := newOffer(t)

		require.NoError(t, a.Validate())
		assert.Equal(t, assignment.Pushed, a.Status())
		assert.True(t, a.IsPushed())
		assert.Nil(t, a.RespondedAt())
		assert.Equal(t, 1, a.Metadata().Batch)
	})

	t.Run("should reject deadline not after push", func(t *testing.T) {
		_, err := assignment.NewOffer(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			pushedAt, pushedAt, assignment.Metadata{Batch: 1})

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should reject batch zero and negative distance", func(t *testing.T) {
		_, err := assignment.NewOffer(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			pushedAt, pushedAt.Add(time.Second), assignment.Metadata{Batch: 0, DistanceKm: -1})

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})
}

func TestAssignment_Expiry(t *testing.T) {
	a := newOffer(t)

	assert.False(t, a.IsExpired(pushedAt.Add(time.Minute)))
	assert.False(t, a.IsExpired(a.ExpiresAt()))
	assert.True(t, a.IsExpired(a.ExpiresAt().Add(time.Millisecond)))

	require.NoError(t, a.Expire(a.ExpiresAt().Add(time.Second)))
	assert.Equal(t, assignment.Expired, a.Status())
	assert.False(t, a.IsExpired(a.ExpiresAt().Add(time.Hour)), "only pushed rows count as expired offers")
}

func TestAssignment_Responses(t *testing.T) {
	at := pushedAt.Add(10 * time.Second)

	t.Run("accept sets response time", func(t *testing.T) {
		a := newOffer(t)

		require.NoError(t, a.Accept(at))

		assert.Equal(t, assignment.Accepted, a.Status())
		assert.Equal(t, at, *a.RespondedAt())
	})

	t.Run("reject stores reason and defaults blank reason", func(t *testing.T) {
		a := newOffer(t)
		b := newOffer(t)

		require.NoError(t, a.Reject(assignment.ReasonOrderAlreadyAccepted, at))
		require.NoError(t, b.Reject("  ", at))

		assert.Equal(t, assignment.ReasonOrderAlreadyAccepted, a.Metadata().RejectionReason)
		assert.Equal(t, assignment.ReasonDeclined, b.Metadata().RejectionReason)
	})

	t.Run("terminal rows cannot change", func(t *testing.T) {
		a := newOffer(t)
		require.NoError(t, a.Reject("busy", at))

		require.ErrorIs(t, a.Accept(at), errs.ErrValueIsInvalid)
		require.ErrorIs(t, a.Expire(at), errs.ErrValueIsInvalid)
		require.ErrorIs(t, a.Reject("again", at), errs.ErrValueIsInvalid)
		assert.Equal(t, "busy", a.Metadata().RejectionReason)
	})
}

func TestNewForcedAcceptance(t *testing.T) {
	a, err := assignment.NewForcedAcceptance(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), pushedAt, assignment.Metadata{})

	require.NoError(t, err)
	assert.Equal(t, assignment.Accepted, a.Status())
	assert.True(t, a.Metadata().ForceAssigned)
	assert.Equal(t, 1, a.Metadata().Batch)
	assert.Equal(t, pushedAt, *a.RespondedAt())
}

func TestRestoreAssignment(t *testing.T) {
	at := pushedAt.Add(time.Minute)

	t.Run("should reject a responded row without response time", func(t *testing.T) {
		_, err := assignment.RestoreAssignment(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			assignment.Accepted, pushedAt, nil, at, assignment.Metadata{Batch: 1})

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should restore every status from its string", func(t *testing.T) {
		for _, name := range []string{"PUSHED", "ACCEPTED", "REJECTED", "EXPIRED"} {
			status, err := assignment.ParseStatus(name)
			require.NoError(t, err)

			var respondedAt *time.Time
			if status != assignment.Pushed {
				respondedAt = &at
			}
			a, err := assignment.RestoreAssignment(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
				status, pushedAt, respondedAt, at, assignment.Metadata{Batch: 2})

			require.NoError(t, err)
			assert.Equal(t, name, a.Status().String())
		}
	})
}
