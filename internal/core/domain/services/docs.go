// Package services provides domain services that work across aggregates.
//
// The package includes:
//   - CandidateFinder: ranks approved vendors by great-circle distance to an order
package services
