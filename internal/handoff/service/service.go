// Package service resolves tel: candidates into WhatsApp deep links.
package service

import (
	"context"
	"strings"

	"tel_handoff_backend/internal/events"
	"tel_handoff_backend/internal/handoff/ports"
	"tel_handoff_backend/platform/logger"
	"tel_handoff_backend/platform/phone"

	"github.com/skip2/go-qrcode"
)

const defaultQRSize = 256

// ResolveInput is one handoff request.
type ResolveInput struct {
	ClientIP string
	Raw      string
	// CallingCode overrides geolocation when set.
	CallingCode string
}

// Handoff is a resolved number and its WhatsApp link.
type Handoff struct {
	Number      phone.Number
	WhatsAppURL string
	CallingCode string
	Source      string
}

// Service resolves handoffs.
type Service struct {
	normalizer      *phone.Normalizer
	locator         ports.CallingCodeLocator
	bus             events.Bus
	whatsAppBaseURL string
	log             *logger.Logger
}

// New creates a handoff service. locator and bus may be nil.
func New(normalizer *phone.Normalizer, locator ports.CallingCodeLocator, bus events.Bus, whatsAppBaseURL string, log *logger.Logger) *Service {
	return &Service{
		normalizer:      normalizer,
		locator:         locator,
		bus:             bus,
		whatsAppBaseURL: strings.TrimRight(whatsAppBaseURL, "/"),
		log:             log,
	}
}

// Resolve normalizes in.Raw and builds its WhatsApp link. The calling code
// is only looked up when the candidate has no international prefix.
// Unresolvable candidates return an error matching phone.ErrUnresolvable.
func (s *Service) Resolve(ctx context.Context, in ResolveInput) (Handoff, error) {
	callingCode, source := s.callingCode(ctx, in)

	number, err := s.normalizer.Normalize(callingCode, in.Raw)
	if err != nil {
		reason := string(phone.ReasonOf(err))
		s.log.WithContext(ctx).HandoffResolved(false, callingCode, reason)
		s.publish(ctx, events.HandoffRejected{
			BaseEvent:   events.NewBaseEvent(),
			Reason:      reason,
			CallingCode: callingCode,
			Source:      source,
		})
		return Handoff{}, err
	}

	s.log.WithContext(ctx).HandoffResolved(true, callingCode, "")
	s.publish(ctx, events.HandoffResolved{
		BaseEvent:   events.NewBaseEvent(),
		Region:      number.Region(),
		LineType:    number.Line().String(),
		CallingCode: callingCode,
		Source:      source,
	})

	return Handoff{
		Number:      number,
		WhatsAppURL: WhatsAppURL(s.whatsAppBaseURL, number),
		CallingCode: callingCode,
		Source:      source,
	}, nil
}

// QRCode resolves in and renders its WhatsApp link as a PNG of size pixels.
func (s *Service) QRCode(ctx context.Context, in ResolveInput, size int) ([]byte, Handoff, error) {
	handoff, err := s.Resolve(ctx, in)
	if err != nil {
		return nil, Handoff{}, err
	}
	if size <= 0 {
		size = defaultQRSize
	}

	png, err := qrcode.Encode(handoff.WhatsAppURL, qrcode.Medium, size)
	if err != nil {
		return nil, Handoff{}, err
	}
	return png, handoff, nil
}

func (s *Service) callingCode(ctx context.Context, in ResolveInput) (string, string) {
	if in.CallingCode != "" {
		code, _ := phone.CleanCallingCode(in.CallingCode)
		return code, ports.SourceExplicit
	}
	if s.locator == nil || !phone.NeedsCallingCode(in.Raw) {
		return "", ""
	}

	loc, err := s.locator.LocateCaller(ctx, in.ClientIP)
	if err != nil {
		s.log.WithContext(ctx).Warn("calling code lookup failed", "error", err)
		return "", ""
	}
	return loc.CallingCode, loc.Source
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}

// WhatsAppURL builds the wa.me style deep link for n.
func WhatsAppURL(baseURL string, n phone.Number) string {
	return strings.TrimRight(baseURL, "/") + "/" + n.Digits()
}
