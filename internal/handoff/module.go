// Package handoff provides the tel: to WhatsApp handoff bounded context.
// It owns the landing page, the protocol handler endpoint and the JSON API.
package handoff

import (
	"context"

	"tel_handoff_backend/internal/events"
	"tel_handoff_backend/internal/handoff/handler"
	"tel_handoff_backend/internal/handoff/ports"
	"tel_handoff_backend/internal/handoff/service"
	apphttp "tel_handoff_backend/internal/http"
	"tel_handoff_backend/platform/config"
	"tel_handoff_backend/platform/logger"
	"tel_handoff_backend/platform/metrics"
	"tel_handoff_backend/platform/phone"
	"tel_handoff_backend/platform/validator"
)

// Module is the handoff bounded context module.
type Module struct {
	service *service.Service
	handler *handler.Handler
	metrics *metrics.HandoffMetrics
}

// NewModule wires the handoff service. locator may be nil, in which case
// numbers without an international prefix cannot be resolved.
func NewModule(cfg config.HandoffConfig, normalizer *phone.Normalizer, locator ports.CallingCodeLocator, bus events.Bus, val *validator.Validator, m *metrics.HandoffMetrics, log *logger.Logger) *Module {
	svc := service.New(normalizer, locator, bus, cfg.GetWhatsAppBaseURL(), log)
	h := handler.New(svc, val, handler.Options{
		PublicBaseURL: cfg.GetPublicBaseURL(),
		Title:         cfg.GetProtocolHandlerTitle(),
	})

	return &Module{service: svc, handler: h, metrics: m}
}

func (m *Module) Name() string {
	return "handoff"
}

// Service returns the handoff service.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterHandlers subscribes the module's event handlers.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.HandoffResolvedEvent, events.HandlerFunc(func(_ context.Context, _ events.Event) error {
		m.metrics.ObserveHandoff(true, "")
		return nil
	}))
	bus.Subscribe(events.HandoffRejectedEvent, events.HandlerFunc(func(_ context.Context, event events.Event) error {
		rejected, ok := event.(events.HandoffRejected)
		if !ok {
			return nil
		}
		m.metrics.ObserveHandoff(false, rejected.Reason)
		return nil
	}))
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Engine.GET("/", m.handler.Index)
	ctx.Engine.GET("/register.js", m.handler.RegisterScript)
	ctx.Engine.GET("/sendWhatsappTo/*num", ctx.RateLimiter.RateLimit(), m.handler.SendWhatsAppTo)

	group := ctx.V1.Group("/handoff")
	group.GET("/resolve", m.handler.Resolve)
	group.GET("/qr", m.handler.QRCode)
}

var _ apphttp.Module = (*Module)(nil)
