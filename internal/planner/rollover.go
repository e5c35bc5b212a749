package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/nvoss/horizonsync/internal/dateparse"
	"github.com/nvoss/horizonsync/internal/diffengine"
	"github.com/nvoss/horizonsync/internal/models"
)

// RefreshPlans rolls over any horizon whose active plan has expired (or has
// none yet), reports the outgoing plan's outcome, creates a fresh plan, and
// seeds it by reprocessing currentTasks with status "loaded".
func (p *Planner) RefreshPlans(ctx context.Context, today time.Time, currentTasks []models.Task) ([]models.Report, error) {
	today = dateparse.StartOfDay(today)

	var reports []models.Report
	for _, horizon := range models.AllHorizons() {
		report, rolled, err := p.rolloverHorizon(ctx, horizon, today, currentTasks)
		if err != nil {
			return reports, fmt.Errorf("planner: rollover %s: %w", horizon, err)
		}
		if rolled {
			reports = append(reports, report)
		}
	}
	return reports, nil
}

func (p *Planner) rolloverHorizon(ctx context.Context, horizon models.Horizon, today time.Time, currentTasks []models.Task) (models.Report, bool, error) {
	existing, ok, err := p.store.ActivePlan(ctx, horizon)
	if err != nil {
		return models.Report{}, false, err
	}

	needsRollover := !ok || existing.End.Before(today)
	if !needsRollover {
		p.active[horizon] = existing
		return models.Report{}, false, nil
	}

	var report models.Report
	var haveReport bool
	if ok {
		counts, err := p.store.CountsByStatus(ctx, existing.ID)
		if err != nil {
			return models.Report{}, false, err
		}
		report = BuildReport(horizon, counts)
		haveReport = true

		if err := p.store.SetPlanInactive(ctx, existing.ID); err != nil {
			return models.Report{}, false, err
		}
	}

	end, err := dateparse.HorizonEnd(string(horizon), today)
	if err != nil {
		return models.Report{}, false, err
	}

	created, err := p.store.CreatePlan(ctx, models.Plan{
		Horizon: horizon,
		Active:  true,
		Start:   today,
		End:     end,
	})
	if err != nil {
		return models.Report{}, false, err
	}
	p.active[horizon] = created

	p.seedPlan(ctx, horizon, created, currentTasks, today)

	return report, haveReport, nil
}

func (p *Planner) seedPlan(ctx context.Context, horizon models.Horizon, plan models.Plan, currentTasks []models.Task, now time.Time) {
	for _, task := range currentTasks {
		if err := p.ProcessTask(ctx, horizon, task, diffengine.StatusLoaded, now); err != nil {
			p.log.Warn("planner: seed failed for task", "task_id", task.ID, "horizon", horizon, "err", err)
		}
	}
}

// BuildReport computes the rollover report for one horizon from its
// terminal-status counts.
func BuildReport(horizon models.Horizon, counts map[models.PlanStatus]int) models.Report {
	completed := counts[models.StatusCompleted] + counts[models.StatusCompletedRecurring]
	planned := counts[models.StatusPlanned]
	postponed := counts[models.StatusPostponed]
	deleted := counts[models.StatusDeleted]
	overall := completed + planned + postponed + deleted

	var ratio float64
	if completed+planned > 0 {
		ratio = float64(completed) / float64(completed+planned) * 100
	}

	return models.Report{
		Horizon:        horizon,
		Completed:      completed,
		Planned:        planned,
		Postponed:      postponed,
		Deleted:        deleted,
		OverallPlanned: overall,
		ComplRatio:     ratio,
	}
}
