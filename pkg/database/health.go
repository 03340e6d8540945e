package database

import (
	"context"
	"fmt"
	"time"
)

// HealthStatus reports ledger database reachability, schema version and
// connection pool usage.
type HealthStatus struct {
	Status          string `json:"status"`
	ResponseTime    int64  `json:"response_time_ms"`
	SchemaVersion   uint   `json:"schema_version"`
	SchemaDirty     bool   `json:"schema_dirty,omitempty"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
	MaxOpenConns    int    `json:"max_open_conns"`
}

// Health pings the database and reads the applied migration version.
// A dirty schema (a migration that failed halfway) is reported unhealthy.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()
	unhealthy := func(err error) (*HealthStatus, error) {
		return &HealthStatus{
			Status:       "unhealthy",
			ResponseTime: time.Since(start).Milliseconds(),
		}, err
	}

	if err := c.db.PingContext(ctx); err != nil {
		return unhealthy(err)
	}

	var (
		version uint
		dirty   bool
	)
	err := c.db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	if err != nil {
		return unhealthy(fmt.Errorf("failed to read schema version: %w", err))
	}

	stats := c.db.Stats()
	status := &HealthStatus{
		Status:          "healthy",
		ResponseTime:    time.Since(start).Milliseconds(),
		SchemaVersion:   version,
		SchemaDirty:     dirty,
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		MaxOpenConns:    stats.MaxOpenConnections,
	}
	if dirty {
		status.Status = "unhealthy"
		return status, fmt.Errorf("schema version %d is dirty", version)
	}
	return status, nil
}
