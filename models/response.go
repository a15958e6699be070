package models

// ErrorResponse is the failure envelope shared by every endpoint.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// NewErrorResponse builds the envelope for a code/message pair.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Success: false, Error: &ErrorDetail{Code: code, Message: message}}
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	// Status is "healthy", or "degraded" when the database cannot be read.
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`

	// Queue is omitted when the store is unreachable.
	Queue *QueueSummary `json:"queue,omitempty"`
}

// EnqueueResponse is the response for POST /api/v1/players.
type EnqueueResponse struct {
	Success bool `json:"success"`

	// Player is the queue row after the enqueue, whether it was inserted
	// or an existing row had its priority bumped.
	Player *Player `json:"player"`
}

// RunActionResponse is the response for POST /api/v1/run/start and
// POST /api/v1/run/stop.
type RunActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LogsResponse is the response for GET /api/v1/logs.
type LogsResponse struct {
	Count   int        `json:"count"`
	Entries []LogEntry `json:"entries"`
}

// PruneLogsResponse is the response for DELETE /api/v1/logs.
type PruneLogsResponse struct {
	Success bool  `json:"success"`
	Deleted int64 `json:"deleted"`
}

// ResetResponse is the response for POST /api/v1/queue/reset.
type ResetResponse struct {
	Success bool  `json:"success"`
	Reset   int64 `json:"reset"`
}
