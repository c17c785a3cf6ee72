package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/vietddude/airport-gateway/internal/core/domain"
)

const feetPerMeter = 3.28084

// Normalizer maps one provider payload onto the canonical record. It returns
// domain.ErrNotFound for an empty or absent payload and any other error for
// a payload it cannot interpret.
type Normalizer func(payload []byte, key domain.LookupKey) (domain.Airport, error)

// Schema describes one upstream payload format.
type Schema struct {
	Name        string
	DefaultPath string
	Normalize   Normalizer
}

const (
	SchemaAviationWeather  = "aviationweather"
	SchemaAirportDirectory = "airportdirectory"
	SchemaOpenAviation     = "openaviation"
)

var schemas = map[string]Schema{
	SchemaAviationWeather: {
		Name:        SchemaAviationWeather,
		DefaultPath: "/airport?ids={icao}&format=json",
		Normalize:   normalizeAviationWeather,
	},
	SchemaAirportDirectory: {
		Name:        SchemaAirportDirectory,
		DefaultPath: "/api/airports/{icao}",
		Normalize:   normalizeAirportDirectory,
	},
	SchemaOpenAviation: {
		Name:        SchemaOpenAviation,
		DefaultPath: "/v1/airport/{icao}",
		Normalize:   normalizeOpenAviation,
	},
}

// LookupSchema returns the schema registered under name.
func LookupSchema(name string) (Schema, bool) {
	s, ok := schemas[name]
	return s, ok
}

// SchemaNames lists the registered schema names in sorted order.
func SchemaNames() []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isEmpty(payload []byte) bool {
	p := bytes.TrimSpace(payload)
	return len(p) == 0 || bytes.Equal(p, []byte("null")) || bytes.Equal(p, []byte("{}"))
}

func location(lat, lon *float64) *domain.Location {
	if lat == nil || lon == nil {
		return nil
	}
	return &domain.Location{Latitude: *lat, Longitude: *lon}
}

func elevationFeet(v *float64, factor float64) *int {
	if v == nil {
		return nil
	}
	ft := int(math.Round(*v * factor))
	return &ft
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// aviationweather: array payload, elevation in feet.
type aviationWeatherAirport struct {
	ICAOID  *string  `json:"icaoId"`
	IATAID  *string  `json:"iataId"`
	Name    *string  `json:"name"`
	State   *string  `json:"state"`
	Country *string  `json:"country"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	Elev    *float64 `json:"elev"`
}

func normalizeAviationWeather(payload []byte, key domain.LookupKey) (domain.Airport, error) {
	if isEmpty(payload) {
		return domain.Airport{}, domain.ErrNotFound
	}

	var airports []aviationWeatherAirport
	if err := json.Unmarshal(payload, &airports); err != nil {
		return domain.Airport{}, fmt.Errorf("decode aviationweather payload: %w", err)
	}
	if len(airports) == 0 || deref(airports[0].ICAOID) == "" {
		return domain.Airport{}, domain.ErrNotFound
	}

	a := airports[0]
	name := deref(a.Name)
	city, _, _ := strings.Cut(name, "/")

	return domain.Airport{
		ICAOCode:  deref(a.ICAOID),
		IATACode:  deref(a.IATAID),
		Name:      name,
		City:      strings.TrimSpace(city),
		Country:   deref(a.Country),
		Location:  location(a.Lat, a.Lon),
		Timezone:  domain.DefaultTimezone,
		Elevation: elevationFeet(a.Elev, 1),
	}, nil
}

// airportdirectory: single object, elevation in feet.
type airportDirectoryAirport struct {
	Code        *string  `json:"code"`
	IATA        *string  `json:"iata"`
	AirportName *string  `json:"airportName"`
	CityName    *string  `json:"cityName"`
	CountryName *string  `json:"countryName"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	ElevationFt *float64 `json:"elevationFt"`
}

func normalizeAirportDirectory(payload []byte, key domain.LookupKey) (domain.Airport, error) {
	if isEmpty(payload) {
		return domain.Airport{}, domain.ErrNotFound
	}

	var a airportDirectoryAirport
	if err := json.Unmarshal(payload, &a); err != nil {
		return domain.Airport{}, fmt.Errorf("decode airportdirectory payload: %w", err)
	}
	if deref(a.Code) == "" {
		return domain.Airport{}, domain.ErrNotFound
	}

	return domain.Airport{
		ICAOCode:  deref(a.Code),
		IATACode:  deref(a.IATA),
		Name:      deref(a.AirportName),
		City:      deref(a.CityName),
		Country:   deref(a.CountryName),
		Location:  location(a.Lat, a.Lng),
		Timezone:  domain.DefaultTimezone,
		Elevation: elevationFeet(a.ElevationFt, 1),
	}, nil
}

// openaviation: single object, elevation in meters.
type openAviationAirport struct {
	ICAO            *string  `json:"icao"`
	IATACode        *string  `json:"iata_code"`
	FullName        *string  `json:"full_name"`
	City            *string  `json:"city"`
	CountryCode     *string  `json:"country_code"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	ElevationMeters *float64 `json:"elevation_meters"`
}

func normalizeOpenAviation(payload []byte, key domain.LookupKey) (domain.Airport, error) {
	if isEmpty(payload) {
		return domain.Airport{}, domain.ErrNotFound
	}

	var a openAviationAirport
	if err := json.Unmarshal(payload, &a); err != nil {
		return domain.Airport{}, fmt.Errorf("decode openaviation payload: %w", err)
	}
	if deref(a.ICAO) == "" {
		return domain.Airport{}, domain.ErrNotFound
	}

	return domain.Airport{
		ICAOCode:  deref(a.ICAO),
		IATACode:  deref(a.IATACode),
		Name:      deref(a.FullName),
		City:      deref(a.City),
		Country:   deref(a.CountryCode),
		Location:  location(a.Latitude, a.Longitude),
		Timezone:  domain.DefaultTimezone,
		Elevation: elevationFeet(a.ElevationMeters, feetPerMeter),
	}, nil
}
