package planner

import (
	"context"

	"github.com/nvoss/horizonsync/internal/models"
)

// Store is the persistence boundary the planner needs. Implemented by
// internal/storage.
type Store interface {
	// ActivePlan returns the currently active plan for a horizon, or
	// (zero value, false) if none exists yet.
	ActivePlan(ctx context.Context, horizon models.Horizon) (models.Plan, bool, error)

	// CreatePlan inserts a new plan and returns it with its assigned id.
	CreatePlan(ctx context.Context, plan models.Plan) (models.Plan, error)

	// SetPlanInactive marks a plan inactive. Plans are never otherwise
	// mutated.
	SetPlanInactive(ctx context.Context, planID int64) error

	// CurrentStatus returns the chronologically last record's status for
	// (planID, taskID), or (empty, false) if the task has no record yet.
	CurrentStatus(ctx context.Context, planID int64, taskID string) (models.PlanStatus, bool, error)

	// AddRecord appends one plan-task-status record. History is
	// append-only; status is derived as "last by timestamp".
	AddRecord(ctx context.Context, rec models.PlanTaskRecord) error

	// CountsByStatus returns, for a plan, the count of its tasks' latest
	// record per terminal status — used for rollover reporting.
	CountsByStatus(ctx context.Context, planID int64) (map[models.PlanStatus]int, error)
}
