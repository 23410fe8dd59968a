package models

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"` // "healthy" or "degraded"
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// Export run states reported by the status API.
const (
	StateStarting  = "starting"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateCancelled = "cancelled"
	StateFailed    = "failed"
)

// ExportStatus is the response for GET /api/v1/export.
type ExportStatus struct {
	// RunID identifies this exporter process run.
	RunID string `json:"run_id"`

	// BookID is the 23 character reader id parsed from the book URL.
	BookID string `json:"book_id"`

	// State is one of the State* constants.
	State string `json:"state"`

	// Pages is the number of artifacts captured so far.
	Pages int `json:"pages"`

	// EmptyRun is the current consecutive-empty counter.
	EmptyRun int `json:"empty_run"`

	// LastArtifact is the name of the most recent capture.
	LastArtifact string `json:"last_artifact,omitempty"`

	// LastSize is the byte size of the most recent capture.
	LastSize int64 `json:"last_size,omitempty"`

	// Elapsed is the run duration so far.
	Elapsed string `json:"elapsed"`

	// Error is populated only when State is "failed".
	Error *ErrorDetail `json:"error,omitempty"`
}
