// Package client provides the HTTP client for the ipdata.co geolocation API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tel_handoff_backend/internal/geolocation/transport"
	"tel_handoff_backend/platform/logger"
)

const lookupFields = "ip,country_code,country_name,calling_code"

var (
	// ErrNotFound is returned when ipdata has no data for the address,
	// which includes reserved and private ranges.
	ErrNotFound = errors.New("geolocation: no data for address")
	// ErrUnauthorized is returned when the API key is rejected.
	ErrUnauthorized = errors.New("geolocation: invalid API key")
	// ErrRateLimited is returned when the API quota is exhausted.
	ErrRateLimited = errors.New("geolocation: quota exceeded")
)

// Client is the HTTP client for the ipdata API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *logger.Logger
}

// New creates a new ipdata API client.
func New(baseURL, apiKey string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		log:        log,
	}
}

// Lookup fetches the country and calling code for ip.
func (c *Client) Lookup(ctx context.Context, ip string) (transport.Location, error) {
	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("fields", lookupFields)

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(ip), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return transport.Location{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("ipdata request failed", "error", err)
		return transport.Location{}, fmt.Errorf("http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusNotFound:
		c.log.Debug("ipdata has no data for address", "status", resp.StatusCode)
		return transport.Location{}, ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		c.log.Error("ipdata unauthorized", "status", resp.StatusCode)
		return transport.Location{}, ErrUnauthorized
	case http.StatusTooManyRequests:
		c.log.Warn("ipdata quota exceeded")
		return transport.Location{}, ErrRateLimited
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Error("ipdata upstream error", "status", resp.StatusCode, "body", strings.TrimSpace(string(body)))
		return transport.Location{}, fmt.Errorf("upstream error: status %d", resp.StatusCode)
	}

	var payload apiLocation
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Error("ipdata decode failed", "error", err)
		return transport.Location{}, fmt.Errorf("decode response: %w", err)
	}

	return payload.toTransport(ip), nil
}

// apiLocation mirrors the fields requested from ipdata.
type apiLocation struct {
	IP          string `json:"ip"`
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
	CallingCode string `json:"calling_code"`
}

func (a apiLocation) toTransport(requestedIP string) transport.Location {
	ip := a.IP
	if ip == "" {
		ip = requestedIP
	}
	return transport.Location{
		IP:          ip,
		CountryCode: strings.ToUpper(strings.TrimSpace(a.CountryCode)),
		CountryName: a.CountryName,
		CallingCode: strings.TrimPrefix(strings.TrimSpace(a.CallingCode), "+"),
		Source:      transport.SourceUpstream,
	}
}
