package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/vendor"
	"dispatch/internal/pkg/errs"
)

// UpsertVendorCommandHandler creates or replaces the dispatch projection of a vendor.
type UpsertVendorCommandHandler struct {
	uowFactory VendorUoWFactory
}

func NewUpsertVendorCommandHandler(uowFactory VendorUoWFactory) UpsertVendorCommandHandler {
	return UpsertVendorCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle returns true when a new vendor was created.
func (h UpsertVendorCommandHandler) Handle(ctx context.Context, cmd UpsertVendorCommand) (bool, error) {
	if err := cmd.Validate(); err != nil {
		return false, err
	}

	v, err := vendor.RestoreVendor(cmd.VendorID(), cmd.AccountID(), cmd.Name(), cmd.Location(), cmd.Status())
	if err != nil {
		return false, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return false, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.VendorRepository()
	_, err = repo.Get(ctx, v.ID())
	created := errors.Is(err, errs.ErrObjectNotFound)
	switch {
	case created:
		err = repo.Add(ctx, v)
	case err == nil:
		err = repo.Update(ctx, v)
	}
	if err != nil {
		return false, err
	}

	return created, uow.Commit(ctx)
}
