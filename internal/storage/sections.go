package storage

import (
	"context"
	"fmt"

	"github.com/nvoss/horizonsync/internal/models"
)

// LoadSections reads every mirrored section from the database.
func (db *DB) LoadSections(ctx context.Context) (map[string]models.Section, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, project_id, section_order FROM sections`)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.Section)
	for rows.Next() {
		var s models.Section
		if err := rows.Scan(&s.ID, &s.Name, &s.ProjectID, &s.Order); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		out[s.ID] = s
	}
	return out, rows.Err()
}

// UpsertSections writes many sections within a single transaction.
func (db *DB) UpsertSections(ctx context.Context, sections []models.Section) error {
	if len(sections) == 0 {
		return nil
	}
	return db.withWriteLock(func() error {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		for _, s := range sections {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO sections (id, name, project_id, section_order)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					name=excluded.name, project_id=excluded.project_id, section_order=excluded.section_order`,
				s.ID, s.Name, s.ProjectID, s.Order)
			if err != nil {
				return fmt.Errorf("upsert section %s: %w", s.ID, err)
			}
		}
		return tx.Commit()
	})
}
