// Package queries contains read-only use cases over the dispatch store.
// Queries bypass the aggregates and read the tables directly with raw SQL.
package queries
