package jobs

import (
	"fmt"

	"go.uber.org/zap"
)

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	offerExpiryJob *OfferExpiryJob
}

// NewJobManager creates a job manager with the offer expiry sweep scheduled by spec.
func NewJobManager(expireOffersHandler ExpireOffersHandler, spec string, limit int, logger *zap.Logger) *JobManager {
	return &JobManager{
		offerExpiryJob: NewOfferExpiryJob(expireOffersHandler, spec, limit, logger),
	}
}

// StartAll starts all scheduled jobs.
func (jm *JobManager) StartAll() error {
	if err := jm.offerExpiryJob.Start(); err != nil {
		return fmt.Errorf("failed to start offer expiry job: %w", err)
	}
	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.offerExpiryJob.Stop()
}
