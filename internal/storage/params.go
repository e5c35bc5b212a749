package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// GetParam reads a system parameter. ok is false if the param has never
// been set.
func (db *DB) GetParam(ctx context.Context, param string) (value string, ok bool, err error) {
	row := db.conn.QueryRowContext(ctx, `SELECT value FROM system_params WHERE param = ?`, param)
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get param %s: %w", param, err)
	}
	return value, true, nil
}

// SetParam writes a system parameter, overwriting any existing value.
func (db *DB) SetParam(ctx context.Context, param, value string) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO system_params (param, value) VALUES (?, ?)
			ON CONFLICT(param) DO UPDATE SET value=excluded.value`,
			param, value)
		if err != nil {
			return fmt.Errorf("set param %s: %w", param, err)
		}
		return nil
	})
}

// GetParamBool reads a system parameter as a boolean, returning false if
// unset or not "true".
func (db *DB) GetParamBool(ctx context.Context, param string) (bool, error) {
	value, ok, err := db.GetParam(ctx, param)
	if err != nil {
		return false, err
	}
	return ok && value == "true", nil
}

// SetParamBool writes a system parameter as "true" or "false".
func (db *DB) SetParamBool(ctx context.Context, param string, value bool) error {
	if value {
		return db.SetParam(ctx, param, "true")
	}
	return db.SetParam(ctx, param, "false")
}
