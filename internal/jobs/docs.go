// Package jobs provides scheduled background tasks for the dispatch service.
//
// Jobs are built on github.com/robfig/cron/v3 with second-level specs.
//
// # Available Jobs
//
// OfferExpiryJob runs the offer expiry sweep (every five seconds by default).
// The sweep marks overdue PUSHED offers EXPIRED, pushes the next batch for
// orders that have no live offers left, and fails orders whose candidates are exhausted.
//
// # Usage
//
//	jobManager := jobs.NewJobManager(expireOffersHandler, cfg.SweepSpec, cfg.SweepLimit, logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// Ticks never overlap: a tick that fires while a sweep is still running is skipped.
package jobs
