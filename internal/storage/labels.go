package storage

import (
	"context"
	"fmt"

	"github.com/nvoss/horizonsync/internal/models"
)

// LoadLabels reads every mirrored label from the database.
func (db *DB) LoadLabels(ctx context.Context) (map[string]models.Label, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, color, is_favorite FROM labels`)
	if err != nil {
		return nil, fmt.Errorf("query labels: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.Label)
	for rows.Next() {
		var l models.Label
		if err := rows.Scan(&l.ID, &l.Name, &l.Color, &l.IsFavorite); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		out[l.ID] = l
	}
	return out, rows.Err()
}

// UpsertLabels writes many labels within a single transaction.
func (db *DB) UpsertLabels(ctx context.Context, labels []models.Label) error {
	if len(labels) == 0 {
		return nil
	}
	return db.withWriteLock(func() error {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		for _, l := range labels {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO labels (id, name, color, is_favorite)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					name=excluded.name, color=excluded.color, is_favorite=excluded.is_favorite`,
				l.ID, l.Name, l.Color, l.IsFavorite)
			if err != nil {
				return fmt.Errorf("upsert label %s: %w", l.ID, err)
			}
		}
		return tx.Commit()
	})
}
