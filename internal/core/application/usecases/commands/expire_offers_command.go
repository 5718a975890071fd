package commands

import (
	"errors"
	"math"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrExpireOffersCommandIsNotConstructed = errors.New(
	"ExpireOffersCommand must be created via NewExpireOffersCommand constructor",
)

// DefaultSweepLimit bounds how many orders one sweep run touches.
const DefaultSweepLimit = 100

// ExpireOffersCommand triggers one run of the offer expiry sweep.
type ExpireOffersCommand struct {
	limit int
	guard guard.ConstructorGuard
}

// NewExpireOffersCommand creates a sweep command that handles at most limit orders per phase.
func NewExpireOffersCommand(limit int) (ExpireOffersCommand, error) {
	if limit <= 0 {
		return ExpireOffersCommand{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, math.MaxInt)
	}
	return ExpireOffersCommand{limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (c ExpireOffersCommand) Validate() error {
	return c.guard.Validate(ErrExpireOffersCommandIsNotConstructed)
}

func (c ExpireOffersCommand) Limit() int {
	return c.limit
}
