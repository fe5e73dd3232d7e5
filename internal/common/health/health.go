// Package health provides health check utilities for service dependencies.
package health

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// Checker performs health checks on system dependencies.
type Checker struct {
	logger *zap.Logger
}

// NewChecker creates a new health checker.
func NewChecker(logger *zap.Logger) *Checker {
	return &Checker{logger: logger}
}

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Component string        `json:"component"`
	Healthy   bool          `json:"healthy"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
}

// SystemHealth represents overall system health.
type SystemHealth struct {
	Healthy bool          `json:"healthy"`
	Checks  []CheckResult `json:"checks"`
}

// CheckAll runs all dependency checks. db may be nil when storage is
// disabled.
func (h *Checker) CheckAll(ctx context.Context, db *sql.DB) *SystemHealth {
	health := &SystemHealth{Healthy: true}
	if db != nil {
		res := h.CheckDatabase(ctx, db)
		health.Checks = append(health.Checks, res)
		if !res.Healthy {
			health.Healthy = false
		}
	}
	return health
}

// CheckDatabase pings the proof-run store.
func (h *Checker) CheckDatabase(ctx context.Context, db *sql.DB) CheckResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	result := CheckResult{Component: "postgres", Healthy: true}
	if err := db.PingContext(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		result.Healthy = false
		result.Message = err.Error()
	}
	result.Duration = time.Since(start)
	return result
}
