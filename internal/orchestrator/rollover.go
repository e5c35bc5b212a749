package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/nvoss/horizonsync/internal/models"
)

// RunDailyRollover expires any horizon whose active plan has ended, reports
// its outcome, opens a fresh plan for that horizon, and dispatches the
// reports to the notifier. Safe to call more than once on the same day:
// a horizon whose plan has not yet expired is left untouched.
func (d *Daemon) RunDailyRollover(ctx context.Context) error {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	now := time.Now()
	if err := d.tasks.Load(ctx); err != nil {
		return fmt.Errorf("orchestrator: rollover: reload tasks: %w", err)
	}

	reports, err := d.planner.RefreshPlans(ctx, now, taskSlice(d.tasks.Current()))
	if err != nil {
		return fmt.Errorf("orchestrator: rollover: %w", err)
	}

	for _, r := range reports {
		d.notifier.Send(ctx, reportChatID, formatReport(r), false, true)
	}
	return nil
}

// RunDailyReport dispatches the daily status digest: the active goals and
// consistency warnings across every project, independent of and on a
// different schedule from the horizon rollover.
func (d *Daemon) RunDailyReport(ctx context.Context) error {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	if err := d.projects.Load(ctx); err != nil {
		return fmt.Errorf("orchestrator: daily report: reload projects: %w", err)
	}
	if err := d.tasks.Load(ctx); err != nil {
		return fmt.Errorf("orchestrator: daily report: reload tasks: %w", err)
	}

	reports := analyzerReports(d)
	d.notifier.Send(ctx, reportChatID, formatDailyDigest(reports), true, true)
	return nil
}

func formatReport(r models.Report) string {
	return fmt.Sprintf(
		"%s plan closed: %d completed, %d planned, %d postponed, %d deleted (%.0f%% of %d)",
		r.Horizon, r.Completed, r.Planned, r.Postponed, r.Deleted, r.ComplRatio, r.OverallPlanned,
	)
}
