package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SetValue stores value under key. A positive ttl makes the entry expire.
func (s *Store) SetValue(ctx context.Context, key, value string, ttl time.Duration) error {
	var expires any
	if ttl > 0 {
		expires = millis(s.Now().Add(ttl))
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, key, value, expires)
	if err != nil {
		return fmt.Errorf("SetValue %s: %w", key, err)
	}
	return nil
}

// GetValue returns the value stored under key. ok is false when the key is
// missing or expired; expired entries are removed on read.
func (s *Store) GetValue(ctx context.Context, key string) (value string, ok bool, err error) {
	var expires sql.NullInt64
	err = s.DB.QueryRowContext(ctx, `SELECT value, expires_at FROM kv_store WHERE key = ?`, key).
		Scan(&value, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("GetValue %s: %w", key, err)
	}
	if expires.Valid && expires.Int64 <= millis(s.Now()) {
		if err := s.DeleteValue(ctx, key); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	return value, true, nil
}

// DeleteValue removes key.
func (s *Store) DeleteValue(ctx context.Context, key string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("DeleteValue %s: %w", key, err)
	}
	return nil
}
