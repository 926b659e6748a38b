package adapters

import (
	"context"

	"tel_handoff_backend/internal/geolocation/service"
	"tel_handoff_backend/internal/handoff/ports"
)

// GeolocationAdapter adapts the geolocation service for use by the handoff domain.
// It implements the handoff/ports.CallingCodeLocator interface.
type GeolocationAdapter struct {
	svc *service.Service
}

// NewGeolocationAdapter wraps the geolocation service.
// Returns nil if the service is nil.
func NewGeolocationAdapter(svc *service.Service) *GeolocationAdapter {
	if svc == nil {
		return nil
	}
	return &GeolocationAdapter{svc: svc}
}

// LocateCaller maps the geolocation transport to the handoff port format.
func (a *GeolocationAdapter) LocateCaller(ctx context.Context, clientIP string) (ports.CallerLocation, error) {
	if a == nil || a.svc == nil {
		return ports.CallerLocation{}, nil
	}

	loc, err := a.svc.Locate(ctx, clientIP)
	if err != nil {
		return ports.CallerLocation{}, err
	}
	return ports.CallerLocation{
		CallingCode: loc.CallingCode,
		Source:      string(loc.Source),
	}, nil
}

var _ ports.CallingCodeLocator = (*GeolocationAdapter)(nil)
