package adapters

import (
	"context"
	"testing"

	"tel_handoff_backend/internal/geolocation/service"
	"tel_handoff_backend/platform/logger"
)

func TestGeolocationAdapterMapsFallback(t *testing.T) {
	svc := service.New(nil, nil, service.Options{FallbackCallingCode: "31"}, logger.Discard())
	adapter := NewGeolocationAdapter(svc)

	loc, err := adapter.LocateCaller(context.Background(), "127.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.CallingCode != "31" || loc.Source != "fallback" {
		t.Fatalf("expected fallback 31, got %+v", loc)
	}
}

func TestGeolocationAdapterNilService(t *testing.T) {
	adapter := NewGeolocationAdapter(nil)
	if adapter != nil {
		t.Fatalf("expected nil adapter for nil service")
	}

	loc, err := adapter.LocateCaller(context.Background(), "8.8.8.8")
	if err != nil || loc.CallingCode != "" {
		t.Fatalf("expected empty location from nil adapter, got %+v, %v", loc, err)
	}
}
