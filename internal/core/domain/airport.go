package domain

// DefaultTimezone is the timezone label attached to every record.
// None of the upstream schemas report a zone.
const DefaultTimezone = "UTC"

// Airport is the provider-agnostic airport record.
type Airport struct {
	ICAOCode  string    `json:"icaoCode"`
	IATACode  string    `json:"iataCode,omitempty"`
	Name      string    `json:"name"`
	City      string    `json:"city,omitempty"`
	Country   string    `json:"country,omitempty"`
	Location  *Location `json:"location,omitempty"`
	Timezone  string    `json:"timezone"`
	Elevation *int      `json:"elevation,omitempty"` // feet
	Degraded  bool      `json:"degraded,omitempty"`
}

// Location is a WGS84 coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FallbackAirport returns the placeholder record served when every provider
// circuit is open.
func FallbackAirport(key LookupKey) Airport {
	return Airport{
		ICAOCode: key.String(),
		Name:     "Airport information temporarily unavailable",
		City:     "Unknown",
		Country:  "Unknown",
		Timezone: DefaultTimezone,
		Degraded: true,
	}
}
