package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Ar7340/CS2-Player-States/models"
)

// Summary collects the operator-facing overview: queue population per
// status, stored stat records by outcome, and the last log activity.
func (s *Store) Summary(ctx context.Context) (*models.QueueSummary, error) {
	counts, err := s.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	summary := &models.QueueSummary{
		Pending:    counts[models.StatusPending],
		Processing: counts[models.StatusProcessing],
		Completed:  counts[models.StatusCompleted],
		Failed:     counts[models.StatusFailed],
	}
	summary.Total = summary.Pending + summary.Processing + summary.Completed + summary.Failed

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(success), 0) FROM player_stats
	`)
	if err := row.Scan(&summary.StatsStored, &summary.StatsSucceeded); err != nil {
		return nil, fmt.Errorf("store: summary stats: %w", err)
	}
	summary.StatsFailed = summary.StatsStored - summary.StatsSucceeded

	var lastActivity sql.NullInt64
	row = s.db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM scrape_logs`)
	if err := row.Scan(&lastActivity); err != nil {
		return nil, fmt.Errorf("store: summary activity: %w", err)
	}
	if lastActivity.Valid {
		t := time.UnixMilli(lastActivity.Int64)
		summary.LastActivity = &t
	}

	return summary, nil
}
