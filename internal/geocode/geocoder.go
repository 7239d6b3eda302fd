package geocode

import (
	"context"
	"math"

	"github.com/franz/lute-composers/internal/report"
	"github.com/franz/lute-composers/internal/util"
)

// Coordinate is a town with its position. Longitude and Latitude are NaN
// when the town could not be geocoded.
type Coordinate struct {
	Town      string
	Longitude float64
	Latitude  float64
	Found     bool
}

// Missing returns the coordinate of a town that could not be geocoded
func Missing(town string) Coordinate {
	return Coordinate{Town: town, Longitude: math.NaN(), Latitude: math.NaN()}
}

// Forwarder is the forward-geocoding call the Geocoder depends on
type Forwarder interface {
	Forward(ctx context.Context, query string) (*Match, error)
}

// Config holds geocoder configuration
type Config struct {
	Client  Forwarder
	Cache   *Cache // nil = no caching
	Refresh bool   // ignore cached results
	Logger  *report.EventLogger
}

// Geocoder resolves towns, consulting the cache before the API
type Geocoder struct {
	client  Forwarder
	cache   *Cache
	refresh bool
	logger  *report.EventLogger
}

// New creates a new Geocoder
func New(cfg *Config) *Geocoder {
	return &Geocoder{
		client:  cfg.Client,
		cache:   cfg.Cache,
		refresh: cfg.Refresh,
		logger:  cfg.Logger,
	}
}

// Lookup resolves one town. It never fails: a town the API has no result
// for is logged as a warning, a failed request as an error, and both yield
// NaN coordinates.
func (g *Geocoder) Lookup(ctx context.Context, town string) Coordinate {
	if !g.refresh {
		if coord, ok := g.cache.Get(town); ok {
			if !coord.Found {
				util.WarnLog("No data found for town: %s (cached)", town)
			}
			g.logger.LogGeocode(town, coord.Longitude, coord.Latitude, true, nil)
			return coord
		}
	}

	match, err := g.client.Forward(ctx, town)
	if err != nil {
		util.ErrorLog("Error retrieving data for town: %s - %v", town, err)
		g.logger.LogGeocode(town, math.NaN(), math.NaN(), false, err)
		return Missing(town)
	}

	coord := Missing(town)
	if match == nil {
		util.WarnLog("No data found for town: %s", town)
	} else {
		coord.Longitude = match.Longitude
		coord.Latitude = match.Latitude
		coord.Found = true
	}

	g.cache.Put(coord)
	g.logger.LogGeocode(town, coord.Longitude, coord.Latitude, false, nil)
	return coord
}

// LookupAll resolves towns in order, one request at a time. It stops early
// only when ctx is cancelled, returning the coordinates resolved so far.
func (g *Geocoder) LookupAll(ctx context.Context, towns []string) ([]Coordinate, error) {
	util.InfoLog("Found %d unique towns.", len(towns))

	bar := util.NewProgressBar(len(towns), "Geocoding", "towns")
	defer util.FinishBar(bar)

	coords := make([]Coordinate, 0, len(towns))
	found := 0
	for _, town := range towns {
		if err := ctx.Err(); err != nil {
			return coords, err
		}
		coord := g.Lookup(ctx, town)
		if coord.Found {
			found++
		}
		coords = append(coords, coord)
		util.Tick(bar)
	}

	util.InfoLog("Geocoded %d of %d towns", found, len(towns))
	return coords, nil
}
