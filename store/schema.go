package store

// Schema is the complete DDL. Every statement is idempotent so Open can
// apply the schema on each start.
//
// players.created_at/updated_at and the log/stat timestamps are Unix
// milliseconds. The queue index matches the batch-selection ordering
// (priority DESC, created_at ASC) so claiming a batch stays a range scan.
const Schema = `
CREATE TABLE IF NOT EXISTS players (
	steam_id   TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'pending',
	priority   INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_players_queue
	ON players(status, priority DESC, created_at ASC);

CREATE TABLE IF NOT EXISTS player_stats (
	steam_id        TEXT PRIMARY KEY,
	player_name     TEXT NOT NULL DEFAULT '',
	profile_url     TEXT NOT NULL DEFAULT '',
	kills           INTEGER,
	deaths          INTEGER,
	assists         INTEGER,
	headshots       INTEGER,
	matches_played  INTEGER,
	matches_won     INTEGER,
	matches_lost    INTEGER,
	matches_tied    INTEGER,
	rounds_played   INTEGER,
	total_damage    INTEGER,
	adr             INTEGER,
	kd_ratio        REAL,
	hltv_rating     REAL,
	win_rate        TEXT,
	headshot_pct    TEXT,
	clutch_success  TEXT,
	entry_success   TEXT,
	last_attempt_at INTEGER NOT NULL,
	success         INTEGER NOT NULL DEFAULT 0,
	error_message   TEXT
);

CREATE TABLE IF NOT EXISTS scrape_logs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	steam_id         TEXT NOT NULL,
	phase            TEXT NOT NULL,
	message          TEXT,
	duration_ms      INTEGER,
	fields_extracted INTEGER,
	created_at       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scrape_logs_recent
	ON scrape_logs(created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_scrape_logs_player
	ON scrape_logs(steam_id, created_at DESC);
`
