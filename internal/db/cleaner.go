package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/meucrm/crmdesk/internal/metrics"
	"go.uber.org/zap"
)

// PurgeDeletedCustomers removes customers soft-deleted before cutoff and
// returns how many were removed. Their sales keep a NULL cliente_id.
func PurgeDeletedCustomers(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `
        DELETE FROM customers
         WHERE deleted_at IS NOT NULL
           AND deleted_at < $1
    `, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge customers: %w", err)
	}
	return res.RowsAffected()
}

// StartSoftDeleteCleaner purges soft-deleted customers older than retention
// every interval until ctx is done.
func StartSoftDeleteCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rows, err := PurgeDeletedCustomers(ctx, db, time.Now().Add(-retention))
				if err != nil {
					log.Error("failed to clean soft-deleted customers", zap.Error(err))
					continue
				}
				if rows > 0 {
					metrics.PurgedCustomersTotal.Add(float64(rows))
					log.Info("cleaned soft-deleted customers", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
