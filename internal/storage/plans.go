package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nvoss/horizonsync/internal/models"
)

// ActivePlan returns the currently active plan for a horizon.
func (db *DB) ActivePlan(ctx context.Context, horizon models.Horizon) (models.Plan, bool, error) {
	var p models.Plan
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, horizon, active, start_date, end_date FROM plans
		WHERE horizon = ? AND active = 1`, string(horizon))
	if err := row.Scan(&p.ID, (*string)(&p.Horizon), &p.Active, &p.Start, &p.End); err != nil {
		if err == sql.ErrNoRows {
			return models.Plan{}, false, nil
		}
		return models.Plan{}, false, fmt.Errorf("active plan for %s: %w", horizon, err)
	}
	return p, true, nil
}

// CreatePlan inserts a new plan and returns it with its assigned id.
func (db *DB) CreatePlan(ctx context.Context, plan models.Plan) (models.Plan, error) {
	err := db.withWriteLock(func() error {
		res, err := db.conn.ExecContext(ctx, `
			INSERT INTO plans (horizon, active, start_date, end_date) VALUES (?, ?, ?, ?)`,
			string(plan.Horizon), plan.Active, plan.Start, plan.End)
		if err != nil {
			return fmt.Errorf("insert plan: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("plan last insert id: %w", err)
		}
		plan.ID = id
		return nil
	})
	return plan, err
}

// SetPlanInactive marks a plan inactive.
func (db *DB) SetPlanInactive(ctx context.Context, planID int64) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.ExecContext(ctx, `UPDATE plans SET active = 0 WHERE id = ?`, planID)
		if err != nil {
			return fmt.Errorf("set plan %d inactive: %w", planID, err)
		}
		return nil
	})
}

// CurrentStatus returns the chronologically last record's status for
// (planID, taskID).
func (db *DB) CurrentStatus(ctx context.Context, planID int64, taskID string) (models.PlanStatus, bool, error) {
	var status string
	row := db.conn.QueryRowContext(ctx, `
		SELECT status FROM plan_task_records
		WHERE plan_id = ? AND task_id = ?
		ORDER BY recorded_at DESC, id DESC LIMIT 1`, planID, taskID)
	if err := row.Scan(&status); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("current status for task %s in plan %d: %w", taskID, planID, err)
	}
	return models.PlanStatus(status), true, nil
}

// AddRecord appends one plan-task-status record.
func (db *DB) AddRecord(ctx context.Context, rec models.PlanTaskRecord) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO plan_task_records (plan_id, task_id, status, recorded_at)
			VALUES (?, ?, ?, ?)`,
			rec.PlanID, rec.TaskID, string(rec.Status), rec.Timestamp)
		if err != nil {
			return fmt.Errorf("add plan-task record: %w", err)
		}
		return nil
	})
}

// CountsByStatus returns, for a plan, the count of its tasks' latest record
// per terminal status.
func (db *DB) CountsByStatus(ctx context.Context, planID int64) (map[models.PlanStatus]int, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM (
			SELECT task_id, status,
			       ROW_NUMBER() OVER (PARTITION BY task_id ORDER BY recorded_at DESC, id DESC) AS rn
			FROM plan_task_records
			WHERE plan_id = ?
		) WHERE rn = 1
		GROUP BY status`, planID)
	if err != nil {
		return nil, fmt.Errorf("counts by status for plan %d: %w", planID, err)
	}
	defer rows.Close()

	out := make(map[models.PlanStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		out[models.PlanStatus(status)] = count
	}
	return out, rows.Err()
}
