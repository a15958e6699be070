package models

import "time"

// Log phases for one scrape attempt. A row starts as "started" and is
// updated in place to its terminal phase.
const (
	PhaseStarted = "started"
	PhaseSuccess = "success"
	PhaseFailed  = "failed"
)

// LogEntry is one row of the execution log.
type LogEntry struct {
	ID              int64     `json:"id"`
	SteamID         string    `json:"steam_id"`
	Phase           string    `json:"phase"`
	Message         string    `json:"message,omitempty"`
	DurationMs      int64     `json:"duration_ms"`
	FieldsExtracted int       `json:"fields_extracted"`
	CreatedAt       time.Time `json:"created_at"`
}

// RunReport aggregates one queue run.
type RunReport struct {
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Batches   int           `json:"batches"`
	Completed bool          `json:"completed"` // false when the run was cancelled
	Elapsed   time.Duration `json:"-"`
	ElapsedMs int64         `json:"elapsed_ms"`
}

// QueueSummary is the operator-facing overview of queue and stat state.
type QueueSummary struct {
	Pending        int        `json:"pending"`
	Processing     int        `json:"processing"`
	Completed      int        `json:"completed"`
	Failed         int        `json:"failed"`
	Total          int        `json:"total"`
	StatsStored    int        `json:"stats_stored"`
	StatsSucceeded int        `json:"stats_succeeded"`
	StatsFailed    int        `json:"stats_failed"`
	LastActivity   *time.Time `json:"last_activity,omitempty"`
}
