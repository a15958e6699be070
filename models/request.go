package models

// EnqueueRequest is the payload for POST /api/v1/players.
type EnqueueRequest struct {
	// SteamID identifies the profile to queue: a 64-bit Steam ID or a
	// vanity name, whatever the profile URL pattern expects. Required.
	SteamID string `json:"steam_id" binding:"required"`

	// Priority orders the pending queue, higher values are claimed first.
	// Default: 0.
	Priority int `json:"priority,omitempty"`
}
