// Package assignment provides the append-only offer ledger entry.
//
// Each Assignment records one order offered to one vendor, the batch it belonged to,
// the deadline and how it ended. At most one row per order is ACCEPTED.
package assignment
