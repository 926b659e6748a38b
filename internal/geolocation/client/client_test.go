package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tel_handoff_backend/internal/geolocation/transport"
	"tel_handoff_backend/platform/logger"
)

func TestLookupDecodesLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/8.8.8.8" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("api-key") != "key" {
			t.Errorf("expected api key query param, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("fields") != lookupFields {
			t.Errorf("expected fields %q, got %q", lookupFields, r.URL.Query().Get("fields"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip":"8.8.8.8","country_code":"us","country_name":"United States","calling_code":"+1"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "key", time.Second, logger.Discard())
	loc, err := c.Lookup(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := transport.Location{IP: "8.8.8.8", CountryCode: "US", CountryName: "United States", CallingCode: "1", Source: transport.SourceUpstream}
	if loc != want {
		t.Fatalf("expected %+v, got %+v", want, loc)
	}
}

func TestLookupMapsStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrNotFound},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		}))

		c := New(srv.URL, "key", time.Second, logger.Discard())
		_, err := c.Lookup(context.Background(), "8.8.8.8")
		srv.Close()

		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestLookupUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "key", time.Second, logger.Discard())
	if _, err := c.Lookup(context.Background(), "8.8.8.8"); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

func TestLookupInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := New(srv.URL, "key", time.Second, logger.Discard())
	if _, err := c.Lookup(context.Background(), "8.8.8.8"); err == nil {
		t.Fatalf("expected decode error")
	}
}
