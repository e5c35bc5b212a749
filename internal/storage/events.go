package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nvoss/horizonsync/internal/models"
)

// LoadEvents reads every stored activity event, ascending by event_date.
func (db *DB) LoadEvents(ctx context.Context) ([]models.Event, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, event_date, event_type, object_type, object_id, extra_data,
		       initiator_id, parent_item_id, parent_project_id
		FROM events ORDER BY event_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var (
			ev        models.Event
			extraJSON string
		)
		if err := rows.Scan(&ev.ID, &ev.EventDate, &ev.EventType, &ev.ObjectType, &ev.ObjectID,
			&extraJSON, &ev.InitiatorID, &ev.ParentItemID, &ev.ParentProjectID); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if extraJSON != "" {
			if err := json.Unmarshal([]byte(extraJSON), &ev.ExtraData); err != nil {
				return nil, fmt.Errorf("unmarshal extra_data for event %s: %w", ev.ID, err)
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// MaxEventDate returns the newest event_date stored, used to seed the event
// log's high-water mark. ok is false on an empty table.
func (db *DB) MaxEventDate(ctx context.Context) (t time.Time, ok bool, err error) {
	row := db.conn.QueryRowContext(ctx, `SELECT event_date FROM events ORDER BY event_date DESC LIMIT 1`)
	if err := row.Scan(&t); err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("max event date: %w", err)
	}
	return t, true, nil
}

// InsertEvents writes new activity events, ignoring ones already stored
// (the remote activity feed can return overlapping pages across ticks).
func (db *DB) InsertEvents(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	return db.withWriteLock(func() error {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		for _, ev := range events {
			extraJSON, err := json.Marshal(ev.ExtraData)
			if err != nil {
				return fmt.Errorf("marshal extra_data for event %s: %w", ev.ID, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO events
					(id, event_date, event_type, object_type, object_id, extra_data,
					 initiator_id, parent_item_id, parent_project_id)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				ev.ID, ev.EventDate, ev.EventType, ev.ObjectType, ev.ObjectID, string(extraJSON),
				ev.InitiatorID, ev.ParentItemID, ev.ParentProjectID)
			if err != nil {
				return fmt.Errorf("insert event %s: %w", ev.ID, err)
			}
		}
		return tx.Commit()
	})
}
