package phone

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// LineType is the line classification reported by a Parser.
type LineType int

const (
	LineUnknown LineType = iota
	LineFixed
	LineMobile
	LineFixedOrMobile
	LineTollFree
	LinePremiumRate
	LineSharedCost
	LineVoIP
	LinePersonal
	LinePager
	LineUAN
	LineVoicemail
)

var lineTypeNames = map[LineType]string{
	LineUnknown:       "unknown",
	LineFixed:         "fixed_line",
	LineMobile:        "mobile",
	LineFixedOrMobile: "fixed_line_or_mobile",
	LineTollFree:      "toll_free",
	LinePremiumRate:   "premium_rate",
	LineSharedCost:    "shared_cost",
	LineVoIP:          "voip",
	LinePersonal:      "personal_number",
	LinePager:         "pager",
	LineUAN:           "uan",
	LineVoicemail:     "voicemail",
}

func (t LineType) String() string {
	if name, ok := lineTypeNames[t]; ok {
		return name
	}
	return lineTypeNames[LineUnknown]
}

// Messageable reports whether the line can be the target of a WhatsApp chat.
func (t LineType) Messageable() bool {
	return t == LineMobile || t == LineFixedOrMobile
}

// Parsed is the structured result of parsing an international number.
type Parsed struct {
	E164   string
	Type   LineType
	Region string
}

// Parser parses a fully qualified international number ("+" followed by the
// country calling code and national number).
type Parser interface {
	ParseInternational(number string) (Parsed, error)
}

// LibParser implements Parser on top of libphonenumber metadata.
type LibParser struct{}

// NewLibParser returns the libphonenumber backed Parser.
func NewLibParser() LibParser {
	return LibParser{}
}

// ParseInternational parses number without a default region, so it must carry
// its own country calling code.
func (LibParser) ParseInternational(number string) (parsed Parsed, err error) {
	defer func() {
		if r := recover(); r != nil {
			parsed = Parsed{}
			err = fmt.Errorf("parse %q: %v", number, r)
		}
	}()

	num, err := phonenumbers.Parse(number, "")
	if err != nil {
		return Parsed{}, err
	}

	return Parsed{
		E164:   phonenumbers.Format(num, phonenumbers.E164),
		Type:   lineTypeOf(phonenumbers.GetNumberType(num)),
		Region: phonenumbers.GetRegionCodeForNumber(num),
	}, nil
}

func lineTypeOf(t phonenumbers.PhoneNumberType) LineType {
	switch t {
	case phonenumbers.FIXED_LINE:
		return LineFixed
	case phonenumbers.MOBILE:
		return LineMobile
	case phonenumbers.FIXED_LINE_OR_MOBILE:
		return LineFixedOrMobile
	case phonenumbers.TOLL_FREE:
		return LineTollFree
	case phonenumbers.PREMIUM_RATE:
		return LinePremiumRate
	case phonenumbers.SHARED_COST:
		return LineSharedCost
	case phonenumbers.VOIP:
		return LineVoIP
	case phonenumbers.PERSONAL_NUMBER:
		return LinePersonal
	case phonenumbers.PAGER:
		return LinePager
	case phonenumbers.UAN:
		return LineUAN
	case phonenumbers.VOICEMAIL:
		return LineVoicemail
	default:
		return LineUnknown
	}
}

// CallingCodeForRegion returns the country calling code for an ISO 3166-1
// alpha-2 region, or "" when the region is unknown.
func CallingCodeForRegion(region string) string {
	code := phonenumbers.GetCountryCodeForRegion(strings.ToUpper(strings.TrimSpace(region)))
	if code == 0 {
		return ""
	}
	return strconv.Itoa(code)
}
