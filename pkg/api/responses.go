package api

import "github.com/streampulse/activityd/pkg/database"

// IngestResponse is the body for POST /api/events.
type IngestResponse struct {
	EventID int64 `json:"event_id"`
}

// HealthResponse is the body for GET /health.
type HealthResponse struct {
	Status   string                `json:"status"`
	Database database.HealthStatus `json:"database"`
}
