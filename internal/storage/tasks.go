package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nvoss/horizonsync/internal/models"
)

// LoadTasks reads every mirrored task from the database. It satisfies
// entitystore.Loader[models.Task].
func (db *DB) LoadTasks(ctx context.Context) (map[string]models.Task, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, content, description, priority, project_id, section_id, parent_id,
		       labels, task_order, due_date, due_datetime, due_string, due_is_recurring,
		       due_timezone, is_completed, is_deleted
		FROM tasks`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.Task)
	for rows.Next() {
		var (
			t              models.Task
			labelsJSON     string
			dueDate        string
			dueDatetime    string
			dueString      string
			dueTimezone    string
			dueIsRecurring bool
		)
		if err := rows.Scan(&t.ID, &t.Content, &t.Description, &t.Priority, &t.ProjectID, &t.SectionID,
			&t.ParentID, &labelsJSON, &t.Order, &dueDate, &dueDatetime, &dueString, &dueIsRecurring,
			&dueTimezone, &t.IsCompleted, &t.IsDeleted); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if labelsJSON != "" {
			if err := json.Unmarshal([]byte(labelsJSON), &t.Labels); err != nil {
				return nil, fmt.Errorf("unmarshal labels for task %s: %w", t.ID, err)
			}
		}
		if dueDate != "" {
			t.Due = &models.Due{Date: dueDate, Datetime: dueDatetime, String: dueString, IsRecurring: dueIsRecurring, Timezone: dueTimezone}
		}
		out[t.ID] = t
	}
	return out, rows.Err()
}

// UpsertTask inserts or replaces a single task row.
func (db *DB) UpsertTask(ctx context.Context, t models.Task) error {
	return db.withWriteLock(func() error {
		return db.upsertTaskTx(ctx, db.conn, t)
	})
}

// UpsertTasks writes many tasks within a single transaction.
func (db *DB) UpsertTasks(ctx context.Context, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return db.withWriteLock(func() error {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		for _, t := range tasks {
			if err := db.upsertTaskTx(ctx, tx, t); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (db *DB) upsertTaskTx(ctx context.Context, x execer, t models.Task) error {
	labelsJSON, err := json.Marshal(t.Labels)
	if err != nil {
		return fmt.Errorf("marshal labels for task %s: %w", t.ID, err)
	}

	var dueDate, dueDatetime, dueString, dueTimezone string
	var dueIsRecurring bool
	if t.Due != nil {
		dueDate, dueDatetime, dueString, dueTimezone, dueIsRecurring = t.Due.Date, t.Due.Datetime, t.Due.String, t.Due.Timezone, t.Due.IsRecurring
	}

	_, err = x.ExecContext(ctx, `
		INSERT INTO tasks (id, content, description, priority, project_id, section_id, parent_id,
		                    labels, task_order, due_date, due_datetime, due_string, due_is_recurring,
		                    due_timezone, is_completed, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content=excluded.content, description=excluded.description, priority=excluded.priority,
			project_id=excluded.project_id, section_id=excluded.section_id, parent_id=excluded.parent_id,
			labels=excluded.labels, task_order=excluded.task_order, due_date=excluded.due_date,
			due_datetime=excluded.due_datetime, due_string=excluded.due_string,
			due_is_recurring=excluded.due_is_recurring, due_timezone=excluded.due_timezone,
			is_completed=excluded.is_completed, is_deleted=excluded.is_deleted`,
		t.ID, t.Content, t.Description, t.Priority, t.ProjectID, t.SectionID, t.ParentID,
		string(labelsJSON), t.Order, dueDate, dueDatetime, dueString, dueIsRecurring, dueTimezone,
		t.IsCompleted, t.IsDeleted)
	if err != nil {
		return fmt.Errorf("upsert task %s: %w", t.ID, err)
	}
	return nil
}
