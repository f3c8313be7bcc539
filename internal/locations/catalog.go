package locations

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-in-sound/internal/weather"
)

// Defaults are the preset cities offered to listeners.
var Defaults = []weather.Location{
	{City: "Amsterdam", Country: "NL", Lat: 52.3676, Lon: 4.9041},
	{City: "London", Country: "GB", Lat: 51.5074, Lon: -0.1278},
	{City: "Montreal", Country: "CA", Lat: 45.5017, Lon: -73.5673},
	{City: "Tokyo", Country: "JP", Lat: 35.6762, Lon: 139.6503},
	{City: "Quito", Country: "EC", Lat: -0.180653, Lon: -78.467834},
	{City: "Berlin", Country: "DE", Lat: 52.5200, Lon: 13.4050},
	{City: "Yerevan", Country: "AM", Lat: 40.179188, Lon: 44.499104},
	{City: "Nairobi", Country: "KE", Lat: -1.2864, Lon: 36.8172},
	{City: "Bangkok", Country: "TH", Lat: 13.756331, Lon: 100.501762},
}

// catalogFile is the on-disk shape of a presets file.
type catalogFile struct {
	Locations []weather.Location `yaml:"locations"`
}

// Catalog is a case-insensitive lookup of known locations by city name.
type Catalog struct {
	mu     sync.RWMutex
	byCity map[string]weather.Location
	order  []string
}

// NewCatalog builds a catalog from locs. Later entries win on duplicate cities.
func NewCatalog(locs []weather.Location) *Catalog {
	c := &Catalog{byCity: make(map[string]weather.Location)}
	for _, l := range locs {
		c.Add(l)
	}
	return c
}

// LoadCatalog reads presets from a YAML file. An empty path yields Defaults.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return NewCatalog(Defaults), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations file: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse locations file: %w", err)
	}
	for i, l := range f.Locations {
		if strings.TrimSpace(l.City) == "" {
			return nil, fmt.Errorf("locations file: entry %d has no city", i)
		}
	}
	if len(f.Locations) == 0 {
		return NewCatalog(Defaults), nil
	}
	return NewCatalog(f.Locations), nil
}

func cityKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// Add inserts or replaces a location.
func (c *Catalog) Add(l weather.Location) {
	key := cityKey(l.City)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byCity[key]; !ok {
		c.order = append(c.order, key)
	}
	c.byCity[key] = l
}

// Find returns the preset for city, if any.
func (c *Catalog) Find(city string) (weather.Location, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.byCity[cityKey(city)]
	return l, ok
}

// All returns the locations in insertion order.
func (c *Catalog) All() []weather.Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]weather.Location, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.byCity[k])
	}
	return out
}

// Cities returns the sorted city names.
func (c *Catalog) Cities() []string {
	all := c.All()
	names := make([]string, 0, len(all))
	for _, l := range all {
		names = append(names, l.City)
	}
	sort.Strings(names)
	return names
}
