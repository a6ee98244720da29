package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/biasnet/influence/internal/database/dbretry"
	"github.com/biasnet/influence/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// MaterializedViewModel handles refresh tracking for materialized views.
type MaterializedViewModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewMaterializedView creates a new MaterializedViewModel.
func NewMaterializedView(db *bun.DB, logger *zap.Logger) *MaterializedViewModel {
	return &MaterializedViewModel{
		db:     db,
		logger: logger.Named("db_materialized_view"),
	}
}

// RefreshIfStale refreshes a materialized view when its last refresh is older
// than staleDuration. Only one caller refreshes at a time; others skip the
// locked tracking row and read the current contents.
func (m *MaterializedViewModel) RefreshIfStale(
	ctx context.Context, viewName string, staleDuration time.Duration,
) (refreshed bool, err error) {
	err = dbretry.Transaction(ctx, m.db, func(ctx context.Context, tx bun.Tx) error {
		refreshed = false

		var refresh types.MaterializedViewRefresh

		err := tx.NewSelect().
			Model(&refresh).
			Where("view_name = ?", viewName).
			For("UPDATE SKIP LOCKED").
			Scan(ctx)

		switch {
		case err == nil && time.Since(refresh.LastRefresh) <= staleDuration:
			return nil
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("failed to read refresh info: %w", err)
		}

		_, err = tx.NewRaw("REFRESH MATERIALIZED VIEW CONCURRENTLY ?", bun.Ident(viewName)).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to refresh view %s: %w", viewName, err)
		}

		_, err = tx.NewInsert().
			Model(&types.MaterializedViewRefresh{
				ViewName:    viewName,
				LastRefresh: time.Now(),
			}).
			On("CONFLICT (view_name) DO UPDATE").
			Set("last_refresh = EXCLUDED.last_refresh").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update refresh time: %w", err)
		}

		refreshed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if refreshed {
		m.logger.Debug("Refreshed materialized view", zap.String("view", viewName))
	}

	return refreshed, nil
}

// GetRefreshInfo returns the last refresh time for a view.
func (m *MaterializedViewModel) GetRefreshInfo(
	ctx context.Context, viewName string,
) (lastRefresh time.Time, err error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (time.Time, error) {
		var refresh types.MaterializedViewRefresh

		err := m.db.NewSelect().
			Model(&refresh).
			Where("view_name = ?", viewName).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return time.Time{}, nil
			}

			return time.Time{}, fmt.Errorf("failed to get refresh info: %w", err)
		}

		return refresh.LastRefresh, nil
	})
}
