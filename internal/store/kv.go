package store

import (
	"database/sql"
	"errors"
	"time"
)

// GetValue returns the session value stored under key and whether it exists.
func (db *DB) GetValue(key string) (string, bool, error) {
	var v string
	err := db.QueryRow(`SELECT value FROM session_kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// SetValue upserts a session value.
func (db *DB) SetValue(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO session_kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli())
	return err
}

// DeleteValues removes the given keys. Missing keys are ignored.
func (db *DB) DeleteValues(keys ...string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, k := range keys {
		if _, err := tx.Exec(`DELETE FROM session_kv WHERE key = ?`, k); err != nil {
			return err
		}
	}
	return tx.Commit()
}
