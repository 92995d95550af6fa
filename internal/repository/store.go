// Package repository implements the embedded local database: one SQLite
// table per entity with create/read/update/delete, simple filters and
// whole-database export, import and truncation.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an update targets a record that does not exist.
// Point lookups report absence with a nil result instead.
var ErrNotFound = errors.New("record not found")

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Store implements the local database over SQLite.
type Store struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
	// Now returns the current time; replaced in tests.
	Now func() time.Time
	// NewID generates record ids; replaced in tests.
	NewID func() string
}

// NewStore creates a Store over db. db must carry the schema applied by
// db.InitSQLite.
func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:    db,
		Now:   func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		NewID: uuid.NewString,
	}
}

// withTx runs fn inside a transaction, committing when fn returns nil.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// setList accumulates the assignments of a partial UPDATE.
type setList struct {
	cols []string
	args []any
}

func (l *setList) add(col string, v any) {
	l.cols = append(l.cols, col+" = ?")
	l.args = append(l.args, v)
}

// exec runs UPDATE table SET ... WHERE id = ? and reports ErrNotFound when
// no row matched.
func (l *setList) exec(ctx context.Context, q querier, table, id string) error {
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(l.cols, ", "))
	res, err := q.ExecContext(ctx, query, append(l.args, id)...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return millis(*t)
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	return &nf.Float64
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

func timePtr(ni sql.NullInt64) *time.Time {
	if !ni.Valid {
		return nil
	}
	t := fromMillis(ni.Int64)
	return &t
}

// likePattern escapes sub for use in LIKE ... ESCAPE '\'.
func likePattern(sub string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(sub) + "%"
}
