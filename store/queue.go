package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Ar7340/CS2-Player-States/models"
)

// Enqueue inserts a player into the queue, or updates priority on an
// already-known Steam ID. Status and created_at of an existing row are
// never touched: a re-enqueue must not reset queue position or state.
func (s *Store) Enqueue(ctx context.Context, steamID string, priority int) error {
	now := time.Now().UnixMilli()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (steam_id, status, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(steam_id) DO UPDATE SET
			priority   = excluded.priority,
			updated_at = excluded.updated_at
	`, steamID, models.StatusPending, priority, now, now)
	if err != nil {
		return fmt.Errorf("store: enqueue %s: %w", steamID, err)
	}
	return nil
}

// ListPending returns up to limit pending players in claim order:
// priority DESC, then created_at ASC. The rowid tiebreak keeps the order
// stable for rows created in the same millisecond.
func (s *Store) ListPending(ctx context.Context, limit int) ([]models.Player, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT steam_id, status, priority, created_at, updated_at
		FROM players
		WHERE status = ?
		ORDER BY priority DESC, created_at ASC, rowid ASC
		LIMIT ?
	`, models.StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list pending: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		p, scanErr := scanPlayer(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// SetStatus updates a player's queue status. An unknown Steam ID is an
// error: the run loop only ever moves rows it previously claimed.
func (s *Store) SetStatus(ctx context.Context, steamID string, status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("store: invalid status %q", status)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE players SET status = ?, updated_at = ? WHERE steam_id = ?
	`, status, time.Now().UnixMilli(), steamID)
	if err != nil {
		return fmt.Errorf("store: set status %s: %w", steamID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("store: set status: unknown player %s", steamID)
	}
	return nil
}

// GetPlayer returns one queue row, or nil when the Steam ID is unknown.
func (s *Store) GetPlayer(ctx context.Context, steamID string) (*models.Player, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT steam_id, status, priority, created_at, updated_at
		FROM players WHERE steam_id = ?
	`, steamID)

	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ResetFailed moves every failed player back to pending. Completed rows are
// untouched. Returns the number of rows moved.
func (s *Store) ResetFailed(ctx context.Context) (int64, error) {
	return s.resetStatus(ctx, models.StatusFailed)
}

// ResetCompleted moves every completed player back to pending, forcing a
// re-scrape on the next run.
func (s *Store) ResetCompleted(ctx context.Context) (int64, error) {
	return s.resetStatus(ctx, models.StatusCompleted)
}

// RecoverStale moves rows stuck in processing back to pending. Run this
// before a run starts: a crash mid-item is the only way such rows exist.
func (s *Store) RecoverStale(ctx context.Context) (int64, error) {
	return s.resetStatus(ctx, models.StatusProcessing)
}

func (s *Store) resetStatus(ctx context.Context, from models.Status) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE players SET status = ?, updated_at = ? WHERE status = ?
	`, models.StatusPending, time.Now().UnixMilli(), from)
	if err != nil {
		return 0, fmt.Errorf("store: reset %s: %w", from, err)
	}
	return res.RowsAffected()
}

// CountByStatus returns the queue population per status.
func (s *Store) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM players GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("store: count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var st models.Status
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		counts[st] = n
	}
	return counts, rows.Err()
}

// scanTarget covers both *sql.Row and *sql.Rows.
type scanTarget interface {
	Scan(dest ...any) error
}

func scanPlayer(row scanTarget) (models.Player, error) {
	var p models.Player
	var createdAt, updatedAt int64
	if err := row.Scan(&p.SteamID, &p.Status, &p.Priority, &createdAt, &updatedAt); err != nil {
		return models.Player{}, err
	}
	p.CreatedAt = time.UnixMilli(createdAt)
	p.UpdatedAt = time.UnixMilli(updatedAt)
	return p, nil
}
