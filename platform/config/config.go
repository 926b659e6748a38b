// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tel_handoff_backend/platform/phone"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetTrustedProxies() []string
}

// RateLimitConfig provides settings for the per-IP rate limiter.
type RateLimitConfig interface {
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// CacheConfig provides settings for the shared cache.
type CacheConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// GeolocationConfig provides settings for the IP geolocation lookup.
type GeolocationConfig interface {
	GetIPDataURL() string
	GetIPDataAPIKey() string
	GetGeolocationTimeout() time.Duration
	GetGeolocationCacheTTL() time.Duration
	GetFallbackCallingCode() string
	IsGeolocationEnabled() bool
}

// HandoffConfig provides settings for the tel: to WhatsApp handoff.
type HandoffConfig interface {
	GetWhatsAppBaseURL() string
	GetPublicBaseURL() string
	GetProtocolHandlerTitle() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	CORSAllowAll         bool
	CORSOrigins          []string
	TrustedProxies       []string
	RateLimitRPS         float64
	RateLimitBurst       int
	RedisURL             string
	RedisTLSInsecure     bool
	IPDataURL            string
	IPDataAPIKey         string
	GeolocationTimeout   time.Duration
	GeolocationCacheTTL  time.Duration
	FallbackCallingCode  string
	WhatsAppBaseURL      string
	PublicBaseURL        string
	ProtocolHandlerTitle string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string         { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool       { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string    { return c.CORSOrigins }
func (c *Config) GetTrustedProxies() []string { return c.TrustedProxies }

// RateLimitConfig implementation
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// CacheConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// GeolocationConfig implementation
func (c *Config) GetIPDataURL() string                   { return c.IPDataURL }
func (c *Config) GetIPDataAPIKey() string                { return c.IPDataAPIKey }
func (c *Config) GetGeolocationTimeout() time.Duration  { return c.GeolocationTimeout }
func (c *Config) GetGeolocationCacheTTL() time.Duration { return c.GeolocationCacheTTL }
func (c *Config) GetFallbackCallingCode() string        { return c.FallbackCallingCode }
func (c *Config) IsGeolocationEnabled() bool            { return c.IPDataAPIKey != "" }

// HandoffConfig implementation
func (c *Config) GetWhatsAppBaseURL() string      { return c.WhatsAppBaseURL }
func (c *Config) GetPublicBaseURL() string        { return c.PublicBaseURL }
func (c *Config) GetProtocolHandlerTitle() string { return c.ProtocolHandlerTitle }

// Load reads configuration from environment variables, after loading a .env
// file when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() (*Config, error) {
	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:8080"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	geoTimeout, err := parseDuration("GEOLOCATION_TIMEOUT", getEnv("GEOLOCATION_TIMEOUT", "5s"))
	if err != nil {
		return nil, err
	}
	geoCacheTTL, err := parseDuration("GEOLOCATION_CACHE_TTL", getEnv("GEOLOCATION_CACHE_TTL", "24h"))
	if err != nil {
		return nil, err
	}
	rps, err := parseFloat("RATE_LIMIT_RPS", getEnv("RATE_LIMIT_RPS", "5"))
	if err != nil {
		return nil, err
	}
	burst, err := parseInt("RATE_LIMIT_BURST", getEnv("RATE_LIMIT_BURST", "20"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		TrustedProxies:       splitCSV(getEnv("TRUSTED_PROXIES", "")),
		RateLimitRPS:         rps,
		RateLimitBurst:       burst,
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		IPDataURL:            strings.TrimRight(getEnv("IPDATA_URL", "https://api.ipdata.co"), "/"),
		IPDataAPIKey:         getEnv("IPDATA_API_KEY", ""),
		GeolocationTimeout:   geoTimeout,
		GeolocationCacheTTL:  geoCacheTTL,
		FallbackCallingCode:  strings.TrimSpace(getEnv("FALLBACK_CALLING_CODE", "")),
		WhatsAppBaseURL:      strings.TrimRight(getEnv("WHATSAPP_BASE_URL", "https://wa.me"), "/"),
		PublicBaseURL:        strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		ProtocolHandlerTitle: getEnv("PROTOCOL_HANDLER_TITLE", "Whatsapp Web message sending"),
	}

	if cfg.GeolocationTimeout <= 0 {
		return nil, fmt.Errorf("GEOLOCATION_TIMEOUT must be positive")
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if cfg.FallbackCallingCode != "" {
		code, ok := phone.CleanCallingCode(cfg.FallbackCallingCode)
		if !ok {
			return nil, fmt.Errorf("FALLBACK_CALLING_CODE must be a 1-3 digit calling code, got %q", cfg.FallbackCallingCode)
		}
		cfg.FallbackCallingCode = code
	}
	if cfg.WhatsAppBaseURL == "" {
		return nil, fmt.Errorf("WHATSAPP_BASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}

func parseInt(key, value string) (int, error) {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return result, nil
}

func parseFloat(key, value string) (float64, error) {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, value)
	}
	return result, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
