package scheduler

import (
	"github.com/genbyt/genbyt-backend/internal/app/repository"
	"github.com/genbyt/genbyt-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ReconcileScheduler recomputes the denormalized views/likes counters from
// the event tables on a nightly schedule. The counters are maintained
// transactionally; this job repairs any drift after manual data fixes.
type ReconcileScheduler struct {
	cron        *cron.Cron
	listingRepo repository.ListingRepository
}

func NewReconcileScheduler(listingRepo repository.ListingRepository) *ReconcileScheduler {
	return &ReconcileScheduler{
		cron:        cron.New(),
		listingRepo: listingRepo,
	}
}

func (s *ReconcileScheduler) Start() error {
	// Nightly at 04:00, off the traffic peak.
	_, err := s.cron.AddFunc("0 4 * * *", func() {
		logger.Info("Starting scheduled counter reconciliation", nil)

		if err := s.listingRepo.ReconcileCounters(); err != nil {
			logger.Error("Failed to reconcile listing counters", err, nil)
			return
		}

		logger.Info("Listing counters reconciled successfully", nil)
	})
	if err != nil {
		logger.Error("Failed to add cron job for counter reconciliation", err, nil)
		return err
	}

	s.cron.Start()
	logger.Info("Counter reconciliation scheduler started (daily at 4:00 AM)", nil)

	return nil
}

func (s *ReconcileScheduler) Stop() {
	logger.Info("Stopping counter reconciliation scheduler...", nil)
	s.cron.Stop()
	logger.Info("Counter reconciliation scheduler stopped", nil)
}
