// Package phone turns the number behind a tel: link into an E.164 mobile
// number that can receive WhatsApp messages.
package phone

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	telScheme = "tel:"

	// Candidates of this many characters or fewer are never parsed.
	maxShortLength = 5

	maxCallingCodeLength = 3
)

// ErrUnresolvable is matched by every error returned from Normalize.
var ErrUnresolvable = errors.New("number cannot be resolved to a mobile number")

// Reason says why a candidate could not be resolved.
type Reason string

const (
	ReasonTooShort           Reason = "too_short"
	ReasonMissingCallingCode Reason = "missing_calling_code"
	ReasonUnparseable        Reason = "unparseable"
	ReasonNotMobile          Reason = "not_mobile"
)

// ResolveError describes an unresolvable candidate.
type ResolveError struct {
	Reason    Reason
	Candidate string
	Line      LineType
	Err       error
}

func (e *ResolveError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Candidate, e.Err)
	case e.Reason == ReasonNotMobile:
		return fmt.Sprintf("%s: %s is %s", e.Reason, e.Candidate, e.Line)
	default:
		return fmt.Sprintf("%s: %s", e.Reason, e.Candidate)
	}
}

func (e *ResolveError) Unwrap() error { return e.Err }

// Is makes every ResolveError match ErrUnresolvable.
func (e *ResolveError) Is(target error) bool {
	return target == ErrUnresolvable
}

// ReasonOf extracts the Reason from err, or "" when err is not a ResolveError.
func ReasonOf(err error) Reason {
	var resolveErr *ResolveError
	if errors.As(err, &resolveErr) {
		return resolveErr.Reason
	}
	return ""
}

// Number is a normalized E.164 number classified as mobile capable.
// The zero value means "no number".
type Number struct {
	e164   string
	region string
	line   LineType
}

// String returns the E.164 form, e.g. "+14155238886".
func (n Number) String() string { return n.e164 }

// Digits returns the E.164 form without the leading "+".
func (n Number) Digits() string { return strings.TrimPrefix(n.e164, "+") }

// Region returns the ISO region the number belongs to, when known.
func (n Number) Region() string { return n.region }

// Line returns the line classification of the number.
func (n Number) Line() LineType { return n.line }

// IsZero reports whether n holds no number.
func (n Number) IsZero() bool { return n.e164 == "" }

// Normalizer resolves tel: candidates with an injected Parser.
type Normalizer struct {
	parser Parser
}

// NewNormalizer creates a Normalizer. A nil parser selects LibParser.
func NewNormalizer(parser Parser) *Normalizer {
	if parser == nil {
		parser = NewLibParser()
	}
	return &Normalizer{parser: parser}
}

// Normalize resolves raw into an E.164 mobile number.
//
// A candidate that starts with "+" is parsed as an international number and
// is never retried with callingCode. Any other candidate longer than five
// characters gets "+" and callingCode prepended before parsing. Every failure
// matches ErrUnresolvable.
func (n *Normalizer) Normalize(callingCode, raw string) (Number, error) {
	candidate := StripTelScheme(raw)

	if isTooShort(candidate) {
		return Number{}, &ResolveError{Reason: ReasonTooShort, Candidate: candidate}
	}

	international := candidate
	if !strings.HasPrefix(candidate, "+") {
		code, ok := CleanCallingCode(callingCode)
		if !ok {
			return Number{}, &ResolveError{Reason: ReasonMissingCallingCode, Candidate: candidate}
		}
		international = "+" + code + candidate
	}

	parsed, err := n.parser.ParseInternational(international)
	if err != nil {
		return Number{}, &ResolveError{Reason: ReasonUnparseable, Candidate: international, Err: err}
	}

	if !parsed.Type.Messageable() {
		return Number{}, &ResolveError{Reason: ReasonNotMobile, Candidate: international, Line: parsed.Type}
	}

	return Number{e164: parsed.E164, region: parsed.Region, line: parsed.Type}, nil
}

// NeedsCallingCode reports whether Normalize would consult the calling code
// for raw, letting callers skip a geolocation lookup when it would not.
func NeedsCallingCode(raw string) bool {
	candidate := StripTelScheme(raw)
	return !isTooShort(candidate) && !strings.HasPrefix(candidate, "+")
}

func isTooShort(candidate string) bool {
	return utf8.RuneCountInString(candidate) <= maxShortLength
}

// StripTelScheme removes a leading "tel:" marker, ignoring case.
func StripTelScheme(raw string) string {
	if len(raw) >= len(telScheme) && strings.EqualFold(raw[:len(telScheme)], telScheme) {
		return raw[len(telScheme):]
	}
	return raw
}

// CleanCallingCode trims whitespace and an optional "+" from code and
// reports whether what remains is a 1-3 digit calling code.
func CleanCallingCode(code string) (string, bool) {
	code = strings.TrimPrefix(strings.TrimSpace(code), "+")
	if code == "" || len(code) > maxCallingCodeLength {
		return "", false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return code, true
}
