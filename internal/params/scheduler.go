package params

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"hdcn-access/internal/logging"
)

// Scheduler refreshes a Store on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	store   *Store
	logger  *zap.Logger
	timeout time.Duration
	entryID cron.EntryID
}

func NewScheduler(s *Store, logger *zap.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = logging.L().Named("params")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		cron:    cron.New(),
		store:   s,
		logger:  logger,
		timeout: timeout,
	}
}

// Start registers the refresh job and starts the cron loop. schedule accepts
// standard five-field expressions and descriptors such as "@every 5m".
func (s *Scheduler) Start(schedule string) error {
	id, err := s.cron.AddFunc(schedule, s.Trigger)
	if err != nil {
		return err
	}
	s.entryID = id
	s.cron.Start()
	s.logger.Info("parameter refresh scheduled", zap.String("cron", schedule))
	return nil
}

// Trigger runs one refresh now.
func (s *Scheduler) Trigger() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.store.Refresh(ctx); err != nil {
		s.logger.Warn("scheduled parameter refresh failed", zap.Error(err))
		return
	}
	s.logger.Debug("parameters refreshed")
}

// Next returns the next scheduled run, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// Stop stops the loop and waits for a running refresh.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
