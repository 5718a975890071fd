package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/vendor"
	"dispatch/internal/pkg/guard"
)

var (
	ErrUpsertVendorCommandIsNotConstructed = errors.New(
		"UpsertVendorCommand must be created via NewUpsertVendorCommand constructor",
	)
	ErrVendorNameIsRequired = errors.New("vendor name is required")
)

// UpsertVendorCommand syncs one vendor from the vendor catalogue into dispatch.
// The catalogue owns onboarding, so the status is taken as given.
type UpsertVendorCommand struct { //nolint:recvcheck //using for validation
	vendorID  kernel.UUID
	accountID kernel.UUID
	name      string
	location  kernel.Location
	status    vendor.Status

	guard guard.ConstructorGuard
}

func NewUpsertVendorCommand(
	vendorID, accountID kernel.UUID,
	name string,
	lat, lon float64,
	status string,
) (UpsertVendorCommand, error) {
	location, locErr := kernel.NewLocation(lat, lon)
	parsed, statusErr := vendor.ParseStatus(status)

	var nameErr error
	if strings.TrimSpace(name) == "" {
		nameErr = ErrVendorNameIsRequired
	}

	if err := errors.Join(vendorID.Validate(), accountID.Validate(), nameErr, locErr, statusErr); err != nil {
		return UpsertVendorCommand{}, err
	}

	return UpsertVendorCommand{
		vendorID:  vendorID,
		accountID: accountID,
		name:      strings.TrimSpace(name),
		location:  location,
		status:    parsed,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c UpsertVendorCommand) Validate() error {
	return c.guard.Validate(ErrUpsertVendorCommandIsNotConstructed)
}

func (c UpsertVendorCommand) VendorID() kernel.UUID {
	return c.vendorID
}

func (c UpsertVendorCommand) AccountID() kernel.UUID {
	return c.accountID
}

func (c UpsertVendorCommand) Name() string {
	return c.name
}

func (c UpsertVendorCommand) Location() kernel.Location {
	return c.location
}

func (c UpsertVendorCommand) Status() vendor.Status {
	return c.status
}
