package models

import "time"

// Status is the queue state of a player identifier.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is one of the four known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// validTransitions enumerates every legal status edge.
//
//	pending    → processing   (claimed by the run loop)
//	processing → completed
//	processing → failed
//	processing → pending      (stale-recovery pass)
//	failed     → pending      (operator reset)
//	completed  → pending      (operator reset, re-scrape)
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusPending},
	StatusFailed:     {StatusPending},
	StatusCompleted:  {StatusPending},
}

// CanTransition reports whether moving from → to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Player is one row of the scrape queue.
type Player struct {
	SteamID   string    `json:"steam_id"`
	Status    Status    `json:"status"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
