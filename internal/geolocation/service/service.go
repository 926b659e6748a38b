// Package service resolves a client IP to the country calling code used as
// the fallback when a tel: number has no international prefix.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/netip"
	"time"

	"tel_handoff_backend/internal/geolocation/client"
	"tel_handoff_backend/internal/geolocation/transport"
	"tel_handoff_backend/platform/apperr"
	"tel_handoff_backend/platform/cache"
	"tel_handoff_backend/platform/logger"
	"tel_handoff_backend/platform/metrics"
	"tel_handoff_backend/platform/phone"

	"golang.org/x/sync/singleflight"
)

const cacheKeyPrefix = "ip:"

// Lookuper fetches a Location from an upstream provider.
type Lookuper interface {
	Lookup(ctx context.Context, ip string) (transport.Location, error)
}

// Options configures a Service.
type Options struct {
	// FallbackCallingCode is used when the IP cannot be located. May be empty.
	FallbackCallingCode string
	CacheTTL            time.Duration
	Metrics             *metrics.HandoffMetrics
}

// Service handles calling code lookups with caching and request collapsing.
type Service struct {
	lookuper Lookuper
	store    cache.Store
	opts     Options
	group    singleflight.Group
	log      *logger.Logger
	now      func() time.Time
}

// New creates a geolocation service. A nil lookuper disables upstream
// lookups so every request gets the fallback calling code.
func New(lookuper Lookuper, store cache.Store, opts Options, log *logger.Logger) *Service {
	if store == nil {
		store = cache.NewMemoryStore()
	}
	return &Service{
		lookuper: lookuper,
		store:    store,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// Locate returns the calling code for ip.
//
// Addresses that cannot be located (private, loopback, invalid, unknown to the
// provider, or upstream failures) get the fallback calling code. An error is
// returned only when the upstream failed and no fallback is configured.
func (s *Service) Locate(ctx context.Context, ip string) (transport.Location, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return s.fallback(ip, "invalid_ip"), nil
	}
	addr = addr.Unmap()
	if !isRoutable(addr) {
		return s.fallback(addr.String(), "non_routable"), nil
	}
	if s.lookuper == nil {
		return s.fallback(addr.String(), "disabled"), nil
	}

	key := cacheKeyPrefix + addr.String()

	if loc, ok := s.fromCache(ctx, key); ok {
		s.opts.Metrics.ObserveLookup(string(transport.SourceCache), "hit")
		return loc, nil
	}

	// The shared lookup outlives any single caller; the client timeout bounds it.
	shared := context.WithoutCancel(ctx)
	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.lookupUpstream(shared, key, addr.String())
	})
	if err != nil {
		s.log.WithContext(ctx).GeolocationLookup(addr.String(), string(transport.SourceUpstream), "", err)
		if errors.Is(err, errNoCallingCode) || errors.Is(err, client.ErrNotFound) || s.opts.FallbackCallingCode != "" {
			return s.fallback(addr.String(), "upstream_error"), nil
		}
		return transport.Location{}, apperr.Unavailable("geolocation unavailable", err).WithOp("geolocation.Locate")
	}

	loc := result.(transport.Location)
	s.log.WithContext(ctx).GeolocationLookup(loc.IP, string(loc.Source), loc.CallingCode, nil)
	return loc, nil
}

var errNoCallingCode = errors.New("geolocation: no calling code for address")

func (s *Service) lookupUpstream(ctx context.Context, key, ip string) (transport.Location, error) {
	start := s.now()
	loc, err := s.lookuper.Lookup(ctx, ip)
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.opts.Metrics.ObserveUpstreamLatency(status, s.now().Sub(start).Seconds())
	s.opts.Metrics.ObserveLookup(string(transport.SourceUpstream), status)
	if err != nil {
		return transport.Location{}, err
	}

	if _, ok := phone.CleanCallingCode(loc.CallingCode); !ok {
		loc.CallingCode = phone.CallingCodeForRegion(loc.CountryCode)
	}
	if loc.CallingCode == "" {
		return transport.Location{}, errNoCallingCode
	}
	loc.Source = transport.SourceUpstream

	s.toCache(ctx, key, loc)
	return loc, nil
}

func (s *Service) fromCache(ctx context.Context, key string) (transport.Location, bool) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.log.WithContext(ctx).Warn("geolocation cache read failed", "error", err)
		return transport.Location{}, false
	}
	if !ok {
		return transport.Location{}, false
	}

	var loc transport.Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		s.log.WithContext(ctx).Warn("geolocation cache entry corrupt", "key", key, "error", err)
		return transport.Location{}, false
	}
	loc.Source = transport.SourceCache
	return loc, true
}

func (s *Service) toCache(ctx context.Context, key string, loc transport.Location) {
	raw, err := json.Marshal(loc)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, key, raw, s.opts.CacheTTL); err != nil {
		s.log.WithContext(ctx).Warn("geolocation cache write failed", "error", err)
	}
}

func (s *Service) fallback(ip, reason string) transport.Location {
	s.opts.Metrics.ObserveLookup(string(transport.SourceFallback), reason)
	return transport.Location{
		IP:          ip,
		CallingCode: s.opts.FallbackCallingCode,
		Source:      transport.SourceFallback,
	}
}

func isRoutable(addr netip.Addr) bool {
	return addr.IsValid() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsUnspecified() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsMulticast()
}
