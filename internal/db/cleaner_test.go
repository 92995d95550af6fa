package db

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestStartBackupPruner_Success(t *testing.T) {
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer dbMock.Close()

	mock.ExpectExec("DELETE FROM backups").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	logger := zap.NewNop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartBackupPruner(ctx, dbMock, 10*time.Millisecond, time.Hour, logger)

	time.Sleep(200 * time.Millisecond)
	cancel()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPruneBackups_Query(t *testing.T) {
	dbMock, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer dbMock.Close()

	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(pruneBackupsQuery)).
		WithArgs(cutoff.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	removed, err := PruneBackups(context.Background(), dbMock, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPruneBackups_KeepsNewest(t *testing.T) {
	ctx := context.Background()
	conn, err := InitSQLite(filepath.Join(t.TempDir(), "prune.db"))
	require.NoError(t, err)
	defer conn.Close()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"b1", "b2", "b3"} {
		_, err := conn.ExecContext(ctx, `INSERT INTO backups (id, snapshot, create_time) VALUES (?, '{}', ?)`,
			id, base.AddDate(0, i, 0).UnixMilli())
		require.NoError(t, err)
	}

	removed, err := PruneBackups(ctx, conn, base.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	var left string
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT id FROM backups`).Scan(&left))
	assert.Equal(t, "b3", left)
}

func TestStartBackupPruner_ErrorLogged(t *testing.T) {
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer dbMock.Close()

	mock.ExpectExec("DELETE FROM backups").
		WithArgs(sqlmock.AnyArg()).
		WillReturnError(fmt.Errorf("db fail"))

	sink := &syncBuffer{buf: &bytes.Buffer{}}
	encCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(sink),
		zapcore.ErrorLevel,
	)
	logger := zap.New(core)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartBackupPruner(ctx, dbMock, 10*time.Millisecond, time.Hour, logger)

	time.Sleep(200 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	out := sink.String()
	if !strings.Contains(out, "failed to prune old backups") {
		t.Errorf("expected error log, got:\n%s", out)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStartBackupPruner_CancelBeforeTicker(t *testing.T) {
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer dbMock.Close()

	logger := zap.NewNop()
	ctx, cancel := context.WithCancel(context.Background())

	StartBackupPruner(ctx, dbMock, 100*time.Millisecond, time.Hour, logger)
	cancel()

	time.Sleep(50 * time.Millisecond)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected sql calls: %v", err)
	}
}

// syncBuffer guards the log buffer shared with the pruner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}
