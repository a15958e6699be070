package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Ar7340/CS2-Player-States/models"
)

// LogStart creates an execution-log row in the "started" phase and returns
// its id. The same row is later promoted in place to success or failed, so
// one attempt is always exactly one log row.
func (s *Store) LogStart(ctx context.Context, steamID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO scrape_logs (steam_id, phase, created_at)
		VALUES (?, ?, ?)
	`, steamID, models.PhaseStarted, time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("store: log start %s: %w", steamID, err)
	}
	return res.LastInsertId()
}

// LogSuccess promotes a started row to the success phase.
func (s *Store) LogSuccess(ctx context.Context, id int64, durationMs int64, fieldsExtracted int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scrape_logs
		SET phase = ?, duration_ms = ?, fields_extracted = ?
		WHERE id = ?
	`, models.PhaseSuccess, durationMs, fieldsExtracted, id)
	if err != nil {
		return fmt.Errorf("store: log success #%d: %w", id, err)
	}
	return nil
}

// LogFailure promotes a started row to the failed phase with the error text.
func (s *Store) LogFailure(ctx context.Context, id int64, durationMs int64, message string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scrape_logs
		SET phase = ?, duration_ms = ?, message = ?
		WHERE id = ?
	`, models.PhaseFailed, durationMs, message, id)
	if err != nil {
		return fmt.Errorf("store: log failure #%d: %w", id, err)
	}
	return nil
}

// RecentLogs returns the newest limit log entries, newest first.
func (s *Store) RecentLogs(ctx context.Context, limit int) ([]models.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, steam_id, phase, message, duration_ms, fields_extracted, created_at
		FROM scrape_logs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent logs: %w", err)
	}
	defer rows.Close()

	var entries []models.LogEntry
	for rows.Next() {
		var (
			e         models.LogEntry
			message   sql.NullString
			duration  sql.NullInt64
			fields    sql.NullInt64
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.SteamID, &e.Phase, &message, &duration, &fields, &createdAt); err != nil {
			return nil, err
		}
		e.Message = message.String
		e.DurationMs = duration.Int64
		e.FieldsExtracted = int(fields.Int64)
		e.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneLogsBefore deletes log rows created before cutoff. This is the only
// path that ever removes execution-log data.
func (s *Store) PruneLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM scrape_logs WHERE created_at < ?
	`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("store: prune logs: %w", err)
	}
	return res.RowsAffected()
}
