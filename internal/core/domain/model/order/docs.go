// Package order provides the Order aggregate root of the dispatch domain.
//
// The package includes:
//   - Order: identity, delivery location, assigned vendor and lifecycle timestamps
//   - Status: the state machine that enforces valid order transitions
//
// Key business rules:
//   - A first batch of offers moves a waiting order to assigned
//   - Only an assigned order can be accepted by a vendor
//   - The assigned vendor is set exactly when the order is vendor_accepted, in_progress or completed
//   - completed, cancelled and assignment_failed are terminal
package order
