// Package errs provides standardized error types for the dispatch service.
//
// Every error type follows the same pattern:
//   - a sentinel error variable (e.g., ErrObjectNotFound)
//   - a struct type carrying the details
//   - constructor functions, with and without cause where it makes sense
//   - Error() for formatting and Unwrap() returning the sentinel
//
// KindOf maps any error produced by the core onto the transport-neutral
// taxonomy (NOT_FOUND, VALIDATION, INVALID_STATE, NO_VENDORS, EXPIRED,
// LOCK_UNAVAILABLE, TRANSACTION_FAILED). Inbound adapters translate kinds
// into their own status codes; the core never knows about HTTP.
package errs
