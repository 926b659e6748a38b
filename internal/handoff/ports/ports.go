// Package ports defines the interfaces the handoff module needs from other
// domains. Implementations live in internal/adapters.
package ports

import "context"

// SourceExplicit marks a calling code supplied by the caller itself.
const SourceExplicit = "explicit"

// CallerLocation is the calling code detected for a client.
type CallerLocation struct {
	CallingCode string
	// Source tells where the calling code came from (upstream, cache, fallback).
	Source string
}

// CallingCodeLocator resolves the country calling code of a client IP.
type CallingCodeLocator interface {
	LocateCaller(ctx context.Context, clientIP string) (CallerLocation, error)
}
