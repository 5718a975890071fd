// Package ports defines the contracts between the dispatch core and its adapters:
// repositories and the unit of work, the distributed lock and the notification dispatcher.
package ports
