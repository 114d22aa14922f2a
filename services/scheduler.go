package services

import (
	"context"
	"sync"
	"time"

	"rtunnel/internal/logger"

	"github.com/robfig/cron/v3"
)

// WatchdogScheduler runs StatusService.Check on a cron schedule.
type WatchdogScheduler struct {
	svc      *StatusService
	schedule string
	cron     *cron.Cron
	entryID  cron.EntryID
	running  bool
	mu       sync.Mutex
}

func NewWatchdogScheduler(svc *StatusService, schedule string) *WatchdogScheduler {
	return &WatchdogScheduler{
		svc:      svc,
		schedule: schedule,
		cron:     cron.New(),
	}
}

/**
 * Start the scheduled watchdog
 * @param {context.Context} ctx - Passed to every check
 * @returns {error} Invalid cron expression
 */
func (s *WatchdogScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	entryID, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.svc.Check(ctx); err != nil {
			logger.Errorf("Scheduled watchdog check failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	s.entryID = entryID
	s.cron.Start()
	s.running = true

	logger.Infof("Watchdog scheduled with %q, next run at %s", s.schedule, s.cron.Entry(s.entryID).Next)
	return nil
}

// Stop waits for a running check to finish.
func (s *WatchdogScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
}

// NextRun returns the next scheduled check, zero when stopped.
func (s *WatchdogScheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}
