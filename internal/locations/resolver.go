package locations

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-in-sound/internal/weather"
)

var (
	// ErrUnknownLocation is returned when a city is neither a preset nor geocodable.
	ErrUnknownLocation = errors.New("unknown location")
)

// GeocodeFunc turns a city/country pair into coordinates.
type GeocodeFunc func(ctx context.Context, city, country string) (lat, lon float64, err error)

// geocoder keeps its API key in a package variable.
var geocoderMu sync.Mutex

// GoogleGeocoder returns a GeocodeFunc backed by the Google geocoding API.
func GoogleGeocoder(apiKey string) GeocodeFunc {
	return func(ctx context.Context, city, country string) (float64, float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}

		geocoderMu.Lock()
		defer geocoderMu.Unlock()

		geocoder.ApiKey = apiKey
		loc, err := geocoder.Geocoding(geocoder.Address{City: city, Country: country})
		if err != nil {
			return 0, 0, err
		}
		return loc.Latitude, loc.Longitude, nil
	}
}

// Resolver finds coordinates for a city: presets first, then the geocoder.
// Geocoded results are added to the catalog.
type Resolver struct {
	catalog *Catalog
	geocode GeocodeFunc
}

// NewResolver creates a resolver. geocode may be nil, in which case only
// presets resolve.
func NewResolver(catalog *Catalog, geocode GeocodeFunc) *Resolver {
	return &Resolver{catalog: catalog, geocode: geocode}
}

// Catalog exposes the underlying presets.
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// Resolve returns the location for city (country optional).
func (r *Resolver) Resolve(ctx context.Context, city, country string) (weather.Location, error) {
	if loc, ok := r.catalog.Find(city); ok {
		return loc, nil
	}
	if r.geocode == nil {
		return weather.Location{}, fmt.Errorf("%w: %s", ErrUnknownLocation, city)
	}

	lat, lon, err := r.geocode(ctx, city, country)
	if err != nil {
		log.Printf("resolver: geocoding %q failed: %v", city, err)
		return weather.Location{}, fmt.Errorf("%w: %s: %v", ErrUnknownLocation, city, err)
	}

	loc := weather.Location{City: city, Country: country, Lat: lat, Lon: lon}
	r.catalog.Add(loc)
	return loc, nil
}
