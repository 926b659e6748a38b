// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const (
	// RequestIDKey is the context key for the request ID.
	RequestIDKey contextKey = "request_id"
	// ClientIPKey is the context key for the resolved client IP.
	ClientIPKey contextKey = "client_ip"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter creates a logger that writes to w. Development environments
// get human readable text at debug level, everything else JSON at info level.
func NewWithWriter(env string, w io.Writer) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Discard returns a logger that drops everything. Handy in tests and CLIs.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithContext returns a logger with request_id and client_ip taken from ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if clientIP, ok := ctx.Value(ClientIPKey).(string); ok && clientIP != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("client_ip", clientIP)),
		}
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs an HTTP error
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}

// GeolocationLookup logs the outcome of a calling code lookup.
func (l *Logger) GeolocationLookup(ip, source, callingCode string, err error) {
	if err != nil {
		l.Warn("geolocation_lookup",
			slog.String("ip", ip),
			slog.String("source", source),
			slog.String("calling_code", callingCode),
			slog.String("error", err.Error()),
		)
		return
	}
	l.Debug("geolocation_lookup",
		slog.String("ip", ip),
		slog.String("source", source),
		slog.String("calling_code", callingCode),
	)
}

// HandoffResolved logs the outcome of resolving a tel: candidate.
func (l *Logger) HandoffResolved(success bool, callingCode, reason string) {
	if success {
		l.Info("handoff_resolved",
			slog.Bool("success", success),
			slog.String("calling_code", callingCode),
		)
		return
	}
	l.Info("handoff_resolved",
		slog.Bool("success", success),
		slog.String("calling_code", callingCode),
		slog.String("reason", reason),
	)
}
