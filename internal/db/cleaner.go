package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// pruneBackupsQuery never removes the newest backup, however old it is.
const pruneBackupsQuery = `
	DELETE FROM backups
	WHERE create_time < ?
	  AND id NOT IN (SELECT id FROM backups ORDER BY create_time DESC LIMIT 1)`

// PruneBackups deletes the automatic backups created before cutoff, except
// the most recent one. It returns the number of removed backups.
func PruneBackups(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, pruneBackupsQuery, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune backups: %w", err)
	}
	return res.RowsAffected()
}

// StartBackupPruner applies the backup retention window every interval
// until ctx is cancelled.
func StartBackupPruner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	log = log.With(zap.Duration("retention", retention))
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				cutoff := now.Add(-retention)
				removed, err := PruneBackups(ctx, db, cutoff)
				if err != nil {
					log.Error("failed to prune old backups", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("pruned old backups", zap.Int64("removed", removed), zap.Time("cutoff", cutoff))
				}
			}
		}
	}()
}
