package errs

import "errors"

// Kind is the transport-neutral classification of an error.
type Kind string

const (
	KindNone              Kind = ""
	KindNotFound          Kind = "NOT_FOUND"
	KindValidation        Kind = "VALIDATION"
	KindInvalidState      Kind = "INVALID_STATE"
	KindNoVendors         Kind = "NO_VENDORS"
	KindExpired           Kind = "EXPIRED"
	KindLockUnavailable   Kind = "LOCK_UNAVAILABLE"
	KindTransactionFailed Kind = "TRANSACTION_FAILED"
	KindInternal          Kind = "INTERNAL"
)

// KindOf classifies err. Unknown errors are KindInternal, nil is KindNone.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrObjectNotFound):
		return KindNotFound
	case errors.Is(err, ErrValueIsInvalid),
		errors.Is(err, ErrValueIsOutOfRange),
		errors.Is(err, ErrValueIsRequired):
		return KindValidation
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrNoVendors):
		return KindNoVendors
	case errors.Is(err, ErrOfferExpired):
		return KindExpired
	case errors.Is(err, ErrLockUnavailable):
		return KindLockUnavailable
	case errors.Is(err, ErrTransactionFailed):
		return KindTransactionFailed
	default:
		return KindInternal
	}
}
