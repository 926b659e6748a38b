package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apphttp "tel_handoff_backend/internal/http"
	"tel_handoff_backend/platform/config"
	"tel_handoff_backend/platform/httpkit"
	"tel_handoff_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type stubHealth struct {
	err error
}

func (s stubHealth) Ping(context.Context) error { return s.err }

type panickingModule struct{}

func (panickingModule) Name() string { return "panicking" }

func (panickingModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/boom", func(*gin.Context) { panic("boom") })
}

func newTestEngine(cfg *config.Config, health apphttp.HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
		cfg.RateLimitBurst = 100
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "router_test_total", Help: "test"}))

	return New(&apphttp.App{
		Config:   cfg,
		Logger:   logger.Discard(),
		Health:   health,
		Gatherer: reg,
		Modules:  []apphttp.Module{panickingModule{}},
	})
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReadiness(t *testing.T) {
	engine := newTestEngine(&config.Config{}, stubHealth{})

	rec := serve(engine, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(httpkit.HeaderRequestID) == "" {
		t.Fatalf("expected a generated request id")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("expected security headers")
	}

	rec = serve(engine, httptest.NewRequest(http.MethodGet, "/api/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", rec.Code)
	}

	engine = newTestEngine(&config.Config{}, stubHealth{err: errors.New("redis down")})
	rec = serve(engine, httptest.NewRequest(http.MethodGet, "/api/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	engine := newTestEngine(&config.Config{}, nil)

	rec := serve(engine, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "router_test_total") {
		t.Fatalf("expected registry contents, got %q", rec.Body.String())
	}
}

func TestRecoveryReturnsJSON(t *testing.T) {
	engine := newTestEngine(&config.Config{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil)
	req.Header.Set(httpkit.HeaderRequestID, "req-123")
	rec := serve(engine, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal error") {
		t.Fatalf("expected JSON error body, got %q", rec.Body.String())
	}
	if rec.Header().Get(httpkit.HeaderRequestID) != "req-123" {
		t.Fatalf("expected request id to be echoed")
	}
}

func TestCORS(t *testing.T) {
	engine := newTestEngine(&config.Config{CORSOrigins: []string{"https://shop.example"}}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := serve(engine, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example" {
		t.Fatalf("expected allowed origin, got %q", got)
	}

	engine = newTestEngine(&config.Config{}, nil)
	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://shop.example")
	rec = serve(engine, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS headers without configured origins, got %q", got)
	}
}
