package storage

import (
	"context"
	"fmt"

	"github.com/nvoss/horizonsync/internal/models"
)

// LoadProjects reads every mirrored project from the database.
func (db *DB) LoadProjects(ctx context.Context) (map[string]models.Project, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, parent_id, color, is_inbox, is_favorite FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.Project)
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.ParentID, &p.Color, &p.IsInbox, &p.IsFavorite); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// UpsertProjects writes many projects within a single transaction.
func (db *DB) UpsertProjects(ctx context.Context, projects []models.Project) error {
	if len(projects) == 0 {
		return nil
	}
	return db.withWriteLock(func() error {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		for _, p := range projects {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO projects (id, name, parent_id, color, is_inbox, is_favorite)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					name=excluded.name, parent_id=excluded.parent_id, color=excluded.color,
					is_inbox=excluded.is_inbox, is_favorite=excluded.is_favorite`,
				p.ID, p.Name, p.ParentID, p.Color, p.IsInbox, p.IsFavorite)
			if err != nil {
				return fmt.Errorf("upsert project %s: %w", p.ID, err)
			}
		}
		return tx.Commit()
	})
}
