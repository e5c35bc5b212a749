// Package planner owns the per-horizon plans and advances each task's
// plan-local status across legal transitions as the orchestrator classifies
// remote mutations.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nvoss/horizonsync/internal/dateparse"
	"github.com/nvoss/horizonsync/internal/diffengine"
	"github.com/nvoss/horizonsync/internal/models"
)

// Planner owns the horizon -> active-plan map and advances task status
// within each plan.
type Planner struct {
	store     Store
	sm        *StateMachine
	goalLabel string
	log       *slog.Logger

	active map[models.Horizon]models.Plan
}

// New constructs a Planner. table is the legal-transition table (normally
// DefaultTransitionTable, but callers may supply a configured variant).
func New(store Store, table TransitionTable, goalLabel string, log *slog.Logger) *Planner {
	if log == nil {
		log = slog.Default()
	}
	return &Planner{
		store:     store,
		sm:        NewStateMachine(table),
		goalLabel: goalLabel,
		log:       log,
		active:    make(map[models.Horizon]models.Plan),
	}
}

// ActivePlan returns the cached active plan for a horizon.
func (p *Planner) ActivePlan(horizon models.Horizon) (models.Plan, bool) {
	plan, ok := p.active[horizon]
	return plan, ok
}

// FitCriterion reports whether task belongs in planEnd's horizon plan.
func FitCriterion(horizon models.Horizon, task models.Task, planEnd time.Time, goalLabel string) bool {
	switch horizon {
	case models.HorizonDay, models.HorizonWeek:
		if task.Due == nil {
			return false
		}
		due, err := dateparse.ParseDate(task.Due.Date)
		if err != nil {
			return false
		}
		return !due.After(planEnd)
	case models.HorizonMonth, models.HorizonQuarter, models.HorizonYear:
		return task.IsGoal(goalLabel)
	default:
		return false
	}
}

// ProcessTask advances a task's plan-local status within horizon's active
// plan according to the classification rules.
func (p *Planner) ProcessTask(ctx context.Context, horizon models.Horizon, task models.Task, status diffengine.Status, now time.Time) error {
	plan, ok := p.active[horizon]
	if !ok {
		return fmt.Errorf("planner: no active plan for horizon %q", horizon)
	}

	fits := FitCriterion(horizon, task, plan.End, p.goalLabel)
	curStatus, present, err := p.store.CurrentStatus(ctx, plan.ID, task.ID)
	if err != nil {
		return fmt.Errorf("planner: current status: %w", err)
	}

	switch status {
	case diffengine.StatusAdded, diffengine.StatusLoaded:
		p.processArrival(ctx, plan, task, fits, present, now)

	case diffengine.StatusUpdated, diffengine.StatusUncompleted, diffengine.StatusCompleted:
		p.processActiveChange(ctx, plan, task, status, fits, curStatus, present, now)

	case diffengine.StatusDeleted:
		if present && p.sm.IsLegal(curStatus, models.StatusDeleted) {
			p.addRecord(ctx, plan, task.ID, models.StatusDeleted, now)
		}
	}

	return nil
}

func (p *Planner) processArrival(ctx context.Context, plan models.Plan, task models.Task, fits, present bool, now time.Time) {
	if !fits {
		return
	}
	if present {
		p.log.Warn("planner: task arrived already present in plan, skipping",
			"task_id", task.ID, "plan_id", plan.ID, "horizon", plan.Horizon)
		return
	}

	target := models.StatusPlanned
	switch {
	case task.IsDeleted:
		target = models.StatusDeleted
	case task.IsCompleted:
		target = models.StatusCompleted
	}

	if !p.sm.IsLegal(emptyStatus, target) {
		p.log.Warn("planner: illegal arrival transition, skipping", "task_id", task.ID, "target", target)
		return
	}
	p.addRecord(ctx, plan, task.ID, target, now)
}

func (p *Planner) processActiveChange(ctx context.Context, plan models.Plan, task models.Task, status diffengine.Status, fits bool, curStatus models.PlanStatus, present bool, now time.Time) {
	if !present {
		if fits {
			p.addRecord(ctx, plan, task.ID, models.StatusPlanned, now)
		}
		return
	}

	if status == diffengine.StatusCompleted {
		if task.Due != nil && task.Due.IsRecurring {
			if p.sm.IsLegal(curStatus, models.StatusCompletedRecurring) {
				p.addRecord(ctx, plan, task.ID, models.StatusCompletedRecurring, now)
				curStatus = models.StatusCompletedRecurring
			}
			if p.sm.IsLegal(curStatus, models.StatusPlanned) {
				p.addRecord(ctx, plan, task.ID, models.StatusPlanned, now)
			}
		} else if p.sm.IsLegal(curStatus, models.StatusCompleted) {
			p.addRecord(ctx, plan, task.ID, models.StatusCompleted, now)
		}
		return
	}

	// updated / uncompleted against a task already tracked in this plan.
	if fits {
		if p.sm.IsLegal(curStatus, models.StatusPlanned) {
			p.addRecord(ctx, plan, task.ID, models.StatusPlanned, now)
		}
		return
	}

	if curStatus == models.StatusCompleted || curStatus == models.StatusCompletedRecurring {
		return // already completed: a no-longer-fitting task is not postponed
	}
	if p.sm.IsLegal(curStatus, models.StatusPostponed) {
		p.addRecord(ctx, plan, task.ID, models.StatusPostponed, now)
	}
}

func (p *Planner) addRecord(ctx context.Context, plan models.Plan, taskID string, status models.PlanStatus, now time.Time) {
	rec := models.PlanTaskRecord{
		TaskID:    taskID,
		PlanID:    plan.ID,
		Status:    status,
		Timestamp: now,
	}
	if err := p.store.AddRecord(ctx, rec); err != nil {
		p.log.Warn("planner: failed to persist plan-task record", "task_id", taskID, "plan_id", plan.ID, "status", status, "err", err)
	}
}
