package errs

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrObjectNotFound    = errors.New("object not found")
	ErrValueIsInvalid    = errors.New("value is invalid")
	ErrValueIsOutOfRange = errors.New("value is out of range")
	ErrValueIsRequired   = errors.New("value is required")
	ErrInvalidState      = errors.New("invalid state")
	ErrNoVendors         = errors.New("no vendors available")
	ErrOfferExpired      = errors.New("offer expired")
	ErrLockUnavailable   = errors.New("lock unavailable")
	ErrTransactionFailed = errors.New("transaction failed")
)

// ObjectNotFoundError reports a missing order, vendor or assignment.
type ObjectNotFoundError struct {
	ParamName string
	ID        any
	Cause     error
}

func NewObjectNotFoundError(paramName string, id any) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id}
}

func NewObjectNotFoundErrorWithCause(paramName string, id any, cause error) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id, Cause: cause}
}

func (e *ObjectNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: param is: %s, ID is: %s (cause: %v)", ErrObjectNotFound, e.ParamName, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrObjectNotFound, e.ID)
}

func (e *ObjectNotFoundError) Unwrap() error {
	return ErrObjectNotFound
}

// ValueIsInvalidError reports a value that breaks a business rule.
type ValueIsInvalidError struct {
	ParamName string
	Cause     error
}

func NewValueIsInvalidError(paramName string) *ValueIsInvalidError {
	return &ValueIsInvalidError{ParamName: paramName}
}

func NewValueIsInvalidErrorWithCause(paramName string, cause error) *ValueIsInvalidError {
	return &ValueIsInvalidError{ParamName: paramName, Cause: cause}
}

func (e *ValueIsInvalidError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrValueIsInvalid, e.ParamName, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrValueIsInvalid, e.ParamName)
}

func (e *ValueIsInvalidError) Unwrap() error {
	return ErrValueIsInvalid
}

// ValueIsOutOfRangeError reports a numeric value outside [Min, Max].
type ValueIsOutOfRangeError struct {
	ParamName string
	Value     any
	Min       any
	Max       any
	Cause     error
}

func NewValueIsOutOfRangeError(paramName string, value, minValue, maxValue any) *ValueIsOutOfRangeError {
	return &ValueIsOutOfRangeError{ParamName: paramName, Value: value, Min: minValue, Max: maxValue}
}

func NewValueIsOutOfRangeErrorWithCause(
	paramName string,
	value, minValue, maxValue any,
	cause error,
) *ValueIsOutOfRangeError {
	return &ValueIsOutOfRangeError{ParamName: paramName, Value: value, Min: minValue, Max: maxValue, Cause: cause}
}

func (e *ValueIsOutOfRangeError) Error() string {
	msg := fmt.Sprintf("%s: %s is %s, min value is %s, max value is %s",
		ErrValueIsOutOfRange, e.ParamName, sanitize(e.Value), sanitize(e.Min), sanitize(e.Max))
	if e.Cause != nil {
		return fmt.Sprintf("%s (cause: %v)", msg, e.Cause)
	}
	return msg
}

func (e *ValueIsOutOfRangeError) Unwrap() error {
	return ErrValueIsOutOfRange
}

// ValueIsRequiredError reports a missing mandatory value.
type ValueIsRequiredError struct {
	ParamName string
	Cause     error
}

func NewValueIsRequiredError(paramName string) *ValueIsRequiredError {
	return &ValueIsRequiredError{ParamName: paramName}
}

func NewValueIsRequiredErrorWithCause(paramName string, cause error) *ValueIsRequiredError {
	return &ValueIsRequiredError{ParamName: paramName, Cause: cause}
}

func (e *ValueIsRequiredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrValueIsRequired, e.ParamName, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrValueIsRequired, e.ParamName)
}

func (e *ValueIsRequiredError) Unwrap() error {
	return ErrValueIsRequired
}

// InvalidStateError reports an operation that is not legal for the current status of an entity.
type InvalidStateError struct {
	Entity string
	State  string
	Reason string
}

func NewInvalidStateError(entity, state, reason string) *InvalidStateError {
	return &InvalidStateError{Entity: entity, State: state, Reason: reason}
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s is %s: %s", ErrInvalidState, e.Entity, e.State, e.Reason)
}

func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// NoVendorsError reports an empty candidate pool for an order.
type NoVendorsError struct {
	OrderID  any
	RadiusKm float64
}

func NewNoVendorsError(orderID any, radiusKm float64) *NoVendorsError {
	return &NoVendorsError{OrderID: orderID, RadiusKm: radiusKm}
}

func (e *NoVendorsError) Error() string {
	return fmt.Sprintf("%s: order %s within %.2f km", ErrNoVendors, e.OrderID, e.RadiusKm)
}

func (e *NoVendorsError) Unwrap() error {
	return ErrNoVendors
}

// OfferExpiredError reports an accept or reject that arrived after the offer deadline.
type OfferExpiredError struct {
	OrderID   any
	VendorID  any
	ExpiresAt time.Time
}

func NewOfferExpiredError(orderID, vendorID any, expiresAt time.Time) *OfferExpiredError {
	return &OfferExpiredError{OrderID: orderID, VendorID: vendorID, ExpiresAt: expiresAt}
}

func (e *OfferExpiredError) Error() string {
	return fmt.Sprintf("%s: order %s, vendor %s, deadline %s",
		ErrOfferExpired, e.OrderID, e.VendorID, e.ExpiresAt.UTC().Format(time.RFC3339))
}

func (e *OfferExpiredError) Unwrap() error {
	return ErrOfferExpired
}

// LockUnavailableError reports that the lock service could not be reached.
type LockUnavailableError struct {
	Key   string
	Cause error
}

func NewLockUnavailableError(key string, cause error) *LockUnavailableError {
	return &LockUnavailableError{Key: key, Cause: cause}
}

func (e *LockUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s (cause: %v)", ErrLockUnavailable, e.Key, e.Cause)
}

func (e *LockUnavailableError) Unwrap() error {
	return ErrLockUnavailable
}

// TransactionFailedError reports a store write that failed while the order lock was held.
type TransactionFailedError struct {
	Operation string
	Cause     error
}

func NewTransactionFailedError(operation string, cause error) *TransactionFailedError {
	return &TransactionFailedError{Operation: operation, Cause: cause}
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("%s: %s (cause: %v)", ErrTransactionFailed, e.Operation, e.Cause)
}

func (e *TransactionFailedError) Unwrap() error {
	return ErrTransactionFailed
}

func sanitize(v any) string {
	return strings.ReplaceAll(fmt.Sprintf("%v", v), "\n", " ")
}
