package service

import (
	"log/slog"
	"time"
)

// Purger is implemented by revocation backends that hold entries in process
// memory and need periodic sweeping. The Redis backend expires keys itself.
type Purger interface {
	PurgeExpired() int
}

// HousekeepingService periodically sweeps expired revocation entries so the
// in-memory set does not grow with dead tokens.
type HousekeepingService struct {
	Purger   Purger
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 10 minutes.
func NewHousekeepingService(purger Purger, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	return &HousekeepingService{
		Purger:   purger,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop() to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress sweep.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) sweep() {
	purged := s.Purger.PurgeExpired()
	if purged > 0 {
		s.Logger.Info("purged expired revocation entries", "count", purged)
	}
}
