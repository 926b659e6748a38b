package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tel_handoff_backend/internal/geolocation/client"
	"tel_handoff_backend/internal/geolocation/transport"
	"tel_handoff_backend/platform/apperr"
	"tel_handoff_backend/platform/cache"
	"tel_handoff_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type stubLookuper struct {
	calls   atomic.Int32
	loc     transport.Location
	err     error
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func (s *stubLookuper) Lookup(ctx context.Context, ip string) (transport.Location, error) {
	s.calls.Add(1)
	if s.started != nil {
		s.once.Do(func() { close(s.started) })
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return transport.Location{}, ctx.Err()
		}
	}
	if s.err != nil {
		return transport.Location{}, s.err
	}
	loc := s.loc
	loc.IP = ip
	return loc, nil
}

func newRedisStore(t *testing.T) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return cache.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "geo:"), mr
}

func TestLocateNonRoutableUsesFallback(t *testing.T) {
	lookuper := &stubLookuper{loc: transport.Location{CallingCode: "1"}}
	svc := New(lookuper, nil, Options{FallbackCallingCode: "31"}, logger.Discard())

	for _, ip := range []string{"127.0.0.1", "10.1.2.3", "192.168.0.10", "::1", "fe80::1", "not-an-ip", ""} {
		loc, err := svc.Locate(context.Background(), ip)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", ip, err)
		}
		if loc.CallingCode != "31" || loc.Source != transport.SourceFallback {
			t.Fatalf("%q: expected fallback 31, got %+v", ip, loc)
		}
	}

	if lookuper.calls.Load() != 0 {
		t.Fatalf("expected no upstream calls, got %d", lookuper.calls.Load())
	}
}

func TestLocateDisabledUsesFallback(t *testing.T) {
	svc := New(nil, nil, Options{FallbackCallingCode: "44"}, logger.Discard())

	loc, err := svc.Locate(context.Background(), "81.2.69.160")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.CallingCode != "44" || loc.Source != transport.SourceFallback {
		t.Fatalf("expected fallback 44, got %+v", loc)
	}
}

func TestLocateCachesUpstreamResult(t *testing.T) {
	store, mr := newRedisStore(t)
	lookuper := &stubLookuper{loc: transport.Location{CountryCode: "US", CallingCode: "1"}}
	svc := New(lookuper, store, Options{CacheTTL: time.Hour}, logger.Discard())

	first, err := svc.Locate(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.CallingCode != "1" || first.Source != transport.SourceUpstream {
		t.Fatalf("expected upstream calling code 1, got %+v", first)
	}
	if !mr.Exists("geo:ip:8.8.8.8") {
		t.Fatalf("expected result to be cached in redis")
	}

	second, err := svc.Locate(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.CallingCode != "1" || second.Source != transport.SourceCache {
		t.Fatalf("expected cached calling code 1, got %+v", second)
	}
	if lookuper.calls.Load() != 1 {
		t.Fatalf("expected a single upstream call, got %d", lookuper.calls.Load())
	}
}

func TestLocateDerivesCallingCodeFromCountry(t *testing.T) {
	lookuper := &stubLookuper{loc: transport.Location{CountryCode: "NL"}}
	svc := New(lookuper, nil, Options{}, logger.Discard())

	loc, err := svc.Locate(context.Background(), "145.131.2.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.CallingCode != "31" {
		t.Fatalf("expected calling code 31 derived from NL, got %+v", loc)
	}
}

func TestLocateUpstreamFailure(t *testing.T) {
	upstreamErr := errors.New("connection reset")

	withFallback := New(&stubLookuper{err: upstreamErr}, nil, Options{FallbackCallingCode: "49"}, logger.Discard())
	loc, err := withFallback.Locate(context.Background(), "8.8.4.4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.CallingCode != "49" || loc.Source != transport.SourceFallback {
		t.Fatalf("expected fallback 49, got %+v", loc)
	}

	withoutFallback := New(&stubLookuper{err: upstreamErr}, nil, Options{}, logger.Discard())
	_, err = withoutFallback.Locate(context.Background(), "8.8.4.4")
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected KindUnavailable, got %v", err)
	}
	if !errors.Is(err, upstreamErr) {
		t.Fatalf("expected upstream error to be wrapped, got %v", err)
	}
}

func TestLocateUnknownAddressIsNotAnError(t *testing.T) {
	svc := New(&stubLookuper{err: client.ErrNotFound}, nil, Options{}, logger.Discard())

	loc, err := svc.Locate(context.Background(), "8.8.4.4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.CallingCode != "" || loc.Source != transport.SourceFallback {
		t.Fatalf("expected empty fallback, got %+v", loc)
	}
}

func TestLocateCollapsesConcurrentLookups(t *testing.T) {
	lookuper := &stubLookuper{
		loc:     transport.Location{CountryCode: "GB", CallingCode: "44"},
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	svc := New(lookuper, nil, Options{CacheTTL: time.Hour}, logger.Discard())

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan transport.Location, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loc, err := svc.Locate(context.Background(), "81.2.69.160")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results <- loc
		}()
	}

	<-lookuper.started
	time.Sleep(50 * time.Millisecond)
	close(lookuper.release)
	wg.Wait()
	close(results)

	for loc := range results {
		if loc.CallingCode != "44" {
			t.Fatalf("expected calling code 44, got %+v", loc)
		}
	}
	if lookuper.calls.Load() != 1 {
		t.Fatalf("expected concurrent lookups to collapse into one, got %d", lookuper.calls.Load())
	}
}

func TestLocateSharedLookupSurvivesCallerCancellation(t *testing.T) {
	lookuper := &stubLookuper{
		loc:     transport.Location{CountryCode: "GB", CallingCode: "44"},
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	svc := New(lookuper, nil, Options{CacheTTL: time.Hour}, logger.Discard())

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, _ = svc.Locate(firstCtx, "81.2.69.160")
	}()
	<-lookuper.started

	type outcome struct {
		loc transport.Location
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		loc, err := svc.Locate(context.Background(), "81.2.69.160")
		second <- outcome{loc: loc, err: err}
	}()

	time.Sleep(50 * time.Millisecond)
	cancelFirst()
	time.Sleep(20 * time.Millisecond)
	close(lookuper.release)

	got := <-second
	<-firstDone
	if got.err != nil {
		t.Fatalf("expected second caller to be unaffected by the first caller's cancellation, got %v", got.err)
	}
	if got.loc.CallingCode != "44" {
		t.Fatalf("expected calling code 44, got %+v", got.loc)
	}
	if lookuper.calls.Load() != 1 {
		t.Fatalf("expected a single upstream call, got %d", lookuper.calls.Load())
	}
}
