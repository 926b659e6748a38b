// Package geolocation provides the IP geolocation bounded context module.
// It supplies the country calling code of the caller.
package geolocation

import (
	"context"

	"tel_handoff_backend/internal/geolocation/client"
	"tel_handoff_backend/internal/geolocation/handler"
	"tel_handoff_backend/internal/geolocation/service"
	"tel_handoff_backend/internal/geolocation/transport"
	apphttp "tel_handoff_backend/internal/http"
	"tel_handoff_backend/platform/cache"
	"tel_handoff_backend/platform/config"
	"tel_handoff_backend/platform/logger"
	"tel_handoff_backend/platform/metrics"
)

// Locator is the public interface other modules depend on.
type Locator interface {
	Locate(ctx context.Context, ip string) (transport.Location, error)
}

// Module is the geolocation bounded context module.
type Module struct {
	service *service.Service
	handler *handler.Handler
	enabled bool
}

// NewModule creates the geolocation module. Without IPDATA_API_KEY the module
// still works but answers every lookup with FALLBACK_CALLING_CODE.
func NewModule(cfg config.GeolocationConfig, store cache.Store, m *metrics.HandoffMetrics, log *logger.Logger) *Module {
	var lookuper service.Lookuper
	if cfg.IsGeolocationEnabled() {
		lookuper = client.New(cfg.GetIPDataURL(), cfg.GetIPDataAPIKey(), cfg.GetGeolocationTimeout(), log)
		log.Info("geolocation module initialized", "provider", cfg.GetIPDataURL())
	} else {
		log.Info("geolocation lookups disabled: IPDATA_API_KEY not configured", "fallbackCallingCode", cfg.GetFallbackCallingCode())
	}

	svc := service.New(lookuper, store, service.Options{
		FallbackCallingCode: cfg.GetFallbackCallingCode(),
		CacheTTL:            cfg.GetGeolocationCacheTTL(),
		Metrics:             m,
	}, log)

	return &Module{
		service: svc,
		handler: handler.New(svc),
		enabled: lookuper != nil,
	}
}

func (m *Module) Name() string {
	return "geolocation"
}

// Service returns the geolocation service for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// IsEnabled reports whether upstream lookups are configured.
func (m *Module) IsEnabled() bool {
	return m != nil && m.enabled
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/geolocation"))
}

var (
	_ apphttp.Module = (*Module)(nil)
	_ Locator        = (*service.Service)(nil)
)
