package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthStatus describes the state of the database connection pool.
type HealthStatus struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	TotalConns   int32  `json:"total_conns"`
	IdleConns    int32  `json:"idle_conns"`
}

// Health pings the database and reports pool statistics.
func Health(ctx context.Context, pool *pgxpool.Pool) (HealthStatus, error) {
	start := time.Now()
	err := pool.Ping(ctx)
	elapsed := time.Since(start)

	stat := pool.Stat()
	status := HealthStatus{
		Status:       "up",
		ResponseTime: elapsed.String(),
		TotalConns:   stat.TotalConns(),
		IdleConns:    stat.IdleConns(),
	}
	if err != nil {
		status.Status = "down"
		return status, err
	}
	return status, nil
}
