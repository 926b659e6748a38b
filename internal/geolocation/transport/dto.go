package transport

// Source says where a Location's calling code came from.
type Source string

const (
	SourceUpstream Source = "upstream"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// Location is the subset of IP geolocation the handoff needs.
type Location struct {
	IP          string `json:"ip"`
	CountryCode string `json:"countryCode,omitempty"`
	CountryName string `json:"countryName,omitempty"`
	CallingCode string `json:"callingCode"`
	Source      Source `json:"source"`
}
