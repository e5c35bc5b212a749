package orchestrator

import (
	"context"
	"fmt"
	"time"
)

// nextOccurrence returns the next time of day "HH:MM" strictly after now.
func nextOccurrence(now time.Time, hhmm string) (time.Time, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &hour, &minute); err != nil {
		return time.Time{}, fmt.Errorf("invalid time-of-day %q: %w", hhmm, err)
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}

// RunDailyScheduler blocks until ctx is canceled, firing job at hhmm every
// day. A run that returns an error is logged and does not stop the
// schedule; the next occurrence still fires on time.
func (d *Daemon) RunDailyScheduler(ctx context.Context, name, hhmm string, job func(context.Context) error) {
	for {
		next, err := nextOccurrence(time.Now(), hhmm)
		if err != nil {
			d.log.Warn("orchestrator: scheduler misconfigured, not running", "job", name, "err", err)
			return
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := job(ctx); err != nil {
				d.log.Warn("orchestrator: scheduled job failed", "job", name, "err", err)
			}
		}
	}
}
