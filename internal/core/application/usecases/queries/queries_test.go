package queries_test

import (
	"testing"

	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGetAssignmentHistoryQuery_Valid(t *testing.T) {
	orderID := kernel.NewUUID()

	query, err := queries.NewGetAssignmentHistoryQuery(orderID)

	require.NoError(t, err)
	require.NoError(t, query.Validate())
	assert.Equal(t, orderID, query.OrderID())
}

func TestNewGetAssignmentHistoryQuery_ZeroID(t *testing.T) {
	_, err := queries.NewGetAssignmentHistoryQuery(kernel.UUID{})

	require.Error(t, err)
}

func TestGetAssignmentHistoryQuery_NotConstructedViaConstructor(t *testing.T) {
	query := queries.GetAssignmentHistoryQuery{}

	err := query.Validate()

	require.ErrorIs(t, err, queries.ErrGetAssignmentHistoryQueryIsNotConstructed)
}

func TestNewGetVendorOffersQuery_Valid(t *testing.T) {
	vendorID := kernel.NewUUID()

	query, err := queries.NewGetVendorOffersQuery(vendorID)

	require.NoError(t, err)
	require.NoError(t, query.Validate())
	assert.Equal(t, vendorID, query.VendorID())
}

func TestGetVendorOffersQuery_NotConstructedViaConstructor(t *testing.T) {
	query := queries.GetVendorOffersQuery{}

	err := query.Validate()

	require.ErrorIs(t, err, queries.ErrGetVendorOffersQueryIsNotConstructed)
}
