package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Ar7340/CS2-Player-States/models"
)

// UpsertStatSuccess writes a successful scrape result, overwriting every
// stored field and clearing any previous error. Fields the page did not
// yield are written as NULL: a success is a full replacement, never a merge
// with a stale reading.
func (s *Store) UpsertStatSuccess(ctx context.Context, rec *models.StatRecord) error {
	f := &rec.Fields
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_stats (
			steam_id, player_name, profile_url,
			kills, deaths, assists, headshots,
			matches_played, matches_won, matches_lost, matches_tied,
			rounds_played, total_damage, adr,
			kd_ratio, hltv_rating,
			win_rate, headshot_pct, clutch_success, entry_success,
			last_attempt_at, success, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, NULL)
		ON CONFLICT(steam_id) DO UPDATE SET
			player_name     = excluded.player_name,
			profile_url     = excluded.profile_url,
			kills           = excluded.kills,
			deaths          = excluded.deaths,
			assists         = excluded.assists,
			headshots       = excluded.headshots,
			matches_played  = excluded.matches_played,
			matches_won     = excluded.matches_won,
			matches_lost    = excluded.matches_lost,
			matches_tied    = excluded.matches_tied,
			rounds_played   = excluded.rounds_played,
			total_damage    = excluded.total_damage,
			adr             = excluded.adr,
			kd_ratio        = excluded.kd_ratio,
			hltv_rating     = excluded.hltv_rating,
			win_rate        = excluded.win_rate,
			headshot_pct    = excluded.headshot_pct,
			clutch_success  = excluded.clutch_success,
			entry_success   = excluded.entry_success,
			last_attempt_at = excluded.last_attempt_at,
			success         = 1,
			error_message   = NULL
	`,
		rec.SteamID, rec.PlayerName, rec.ProfileURL,
		f.Kills, f.Deaths, f.Assists, f.Headshots,
		f.MatchesPlayed, f.MatchesWon, f.MatchesLost, f.MatchesTied,
		f.RoundsPlayed, f.TotalDamage, f.ADR,
		f.KDRatio, f.HLTVRating,
		f.WinRate, f.HeadshotPercent, f.ClutchSuccess, f.EntrySuccess,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store: upsert stat success %s: %w", rec.SteamID, err)
	}
	return nil
}

// UpsertStatFailure records a failed attempt: attempt metadata and the error
// message. Metric columns of an existing record are preserved so the last
// good reading survives a later failure. An empty playerName never
// overwrites a known name.
func (s *Store) UpsertStatFailure(ctx context.Context, steamID, playerName, profileURL, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_stats (steam_id, player_name, profile_url, last_attempt_at, success, error_message)
		VALUES (?, ?, ?, ?, 0, ?)
		ON CONFLICT(steam_id) DO UPDATE SET
			player_name = CASE
				WHEN excluded.player_name <> '' THEN excluded.player_name
				ELSE player_stats.player_name
			END,
			profile_url     = excluded.profile_url,
			last_attempt_at = excluded.last_attempt_at,
			success         = 0,
			error_message   = excluded.error_message
	`, steamID, playerName, profileURL, time.Now().UnixMilli(), errMsg)
	if err != nil {
		return fmt.Errorf("store: upsert stat failure %s: %w", steamID, err)
	}
	return nil
}

// GetStat returns the stored record for one player, or nil when none exists.
func (s *Store) GetStat(ctx context.Context, steamID string) (*models.StatRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT steam_id, player_name, profile_url,
			kills, deaths, assists, headshots,
			matches_played, matches_won, matches_lost, matches_tied,
			rounds_played, total_damage, adr,
			kd_ratio, hltv_rating,
			win_rate, headshot_pct, clutch_success, entry_success,
			last_attempt_at, success, error_message
		FROM player_stats WHERE steam_id = ?
	`, steamID)

	var (
		rec        models.StatRecord
		ints       [11]sql.NullInt64
		kdRatio    sql.NullFloat64
		hltvRating sql.NullFloat64
		strs       [4]sql.NullString
		attemptAt  int64
		errMsg     sql.NullString
	)

	err := row.Scan(
		&rec.SteamID, &rec.PlayerName, &rec.ProfileURL,
		&ints[0], &ints[1], &ints[2], &ints[3],
		&ints[4], &ints[5], &ints[6], &ints[7],
		&ints[8], &ints[9], &ints[10],
		&kdRatio, &hltvRating,
		&strs[0], &strs[1], &strs[2], &strs[3],
		&attemptAt, &rec.Success, &errMsg,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: get stat %s: %w", steamID, err)
	}

	intPtrs := []**int{
		&rec.Fields.Kills, &rec.Fields.Deaths, &rec.Fields.Assists, &rec.Fields.Headshots,
		&rec.Fields.MatchesPlayed, &rec.Fields.MatchesWon, &rec.Fields.MatchesLost, &rec.Fields.MatchesTied,
		&rec.Fields.RoundsPlayed, &rec.Fields.TotalDamage, &rec.Fields.ADR,
	}
	for i, dst := range intPtrs {
		if ints[i].Valid {
			v := int(ints[i].Int64)
			*dst = &v
		}
	}
	if kdRatio.Valid {
		v := kdRatio.Float64
		rec.Fields.KDRatio = &v
	}
	if hltvRating.Valid {
		v := hltvRating.Float64
		rec.Fields.HLTVRating = &v
	}
	strPtrs := []**string{
		&rec.Fields.WinRate, &rec.Fields.HeadshotPercent,
		&rec.Fields.ClutchSuccess, &rec.Fields.EntrySuccess,
	}
	for i, dst := range strPtrs {
		if strs[i].Valid {
			v := strs[i].String
			*dst = &v
		}
	}

	rec.LastAttemptAt = time.UnixMilli(attemptAt)
	rec.ErrorMessage = errMsg.String
	return &rec, nil
}
