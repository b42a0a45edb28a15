package report

import (
	"context"
	"time"

	"github.com/mclemoreauction/neighbor-letters/internal/pkg/logger"
)

// Scheduler fires the daily report once per UTC day at the configured hour.
type Scheduler struct {
	reporter *Reporter
	hourUTC  int
}

// NewScheduler builds a scheduler firing at hourUTC each day.
func NewScheduler(reporter *Reporter, hourUTC int) *Scheduler {
	return &Scheduler{reporter: reporter, hourUTC: hourUTC}
}

// nextRun returns the next firing time strictly after now.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// Run blocks until ctx is done, sending one report per day. The report
// covers the previous UTC day so a midnight-adjacent send hour still sees a
// complete day.
func (s *Scheduler) Run(ctx context.Context) {
	logger.Info("report: scheduler started", "hour_utc", s.hourUTC)
	for {
		next := s.nextRun(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("report: scheduler stopped")
			return
		case <-timer.C:
		}

		day := next.Add(-24 * time.Hour)
		if err := s.reporter.SendDaily(ctx, day); err != nil {
			logger.Error("report: daily report failed", "error", err.Error())
		}
	}
}
