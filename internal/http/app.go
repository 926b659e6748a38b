// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"tel_handoff_backend/platform/config"
	"tel_handoff_backend/platform/logger"

	"github.com/prometheus/client_golang/prometheus"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.RateLimitConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health is optional; nil means the service is always ready.
	Health HealthChecker
	// Gatherer backs the /metrics endpoint; nil selects the default registry.
	Gatherer prometheus.Gatherer
	Modules  []Module
}
