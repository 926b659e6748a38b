package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tel_handoff_backend/internal/adapters"
	"tel_handoff_backend/internal/events"
	"tel_handoff_backend/internal/geolocation"
	"tel_handoff_backend/internal/handoff"
	apphttp "tel_handoff_backend/internal/http"
	"tel_handoff_backend/internal/http/router"
	"tel_handoff_backend/platform/cache"
	"tel_handoff_backend/platform/config"
	"tel_handoff_backend/platform/logger"
	"tel_handoff_backend/platform/metrics"
	"tel_handoff_backend/platform/phone"
	"tel_handoff_backend/platform/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	geolocationCachePrefix = "tel_handoff:geo:"
	shutdownTimeout        = 10 * time.Second
	readHeaderTimeout      = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	store, closeStore, err := cache.New(cfg, geolocationCachePrefix)
	if err != nil {
		log.Error("failed to initialize cache", "error", err)
		panic("failed to initialize cache: " + err.Error())
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("failed to close cache", "error", err)
		}
	}()

	var health apphttp.HealthChecker
	if redisStore, ok := store.(*cache.RedisStore); ok {
		if err := withRetry(ctx, log, "redis connection", 5, time.Second, func() error {
			return redisStore.Ping(ctx)
		}); err != nil {
			log.Error("failed to connect to redis", "error", err)
			panic("failed to connect to redis: " + err.Error())
		}
		health = redisStore
		log.Info("redis cache connected")
	} else {
		log.Warn("REDIS_URL not configured; geolocation results cached in memory")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	handoffMetrics := metrics.NewHandoffMetrics(registry)

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	geolocationModule := geolocation.NewModule(cfg, store, handoffMetrics, log)
	callingCodeLocator := adapters.NewGeolocationAdapter(geolocationModule.Service())

	handoffModule := handoff.NewModule(cfg, phone.NewNormalizer(nil), callingCodeLocator, eventBus, val, handoffMetrics, log)
	handoffModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		Gatherer: registry,
		Modules: []apphttp.Module{
			geolocationModule,
			handoffModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr, "publicBaseURL", cfg.GetPublicBaseURL())
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
