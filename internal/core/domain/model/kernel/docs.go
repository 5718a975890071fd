// Package kernel provides the shared value objects of the dispatch domain.
//
// The package includes:
//   - UUID: identifier value object wrapping github.com/google/uuid
//   - Location: a validated latitude/longitude point with great-circle distance
//   - Clock: the time source used for offer deadlines
//
// Values are immutable and safe for concurrent use.
package kernel
