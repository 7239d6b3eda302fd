package geocode

import (
	"strings"

	"github.com/franz/lute-composers/internal/store"
	"github.com/franz/lute-composers/internal/util"
	"golang.org/x/text/unicode/norm"
)

// Cache keeps geocoding results in the state database so re-runs do not
// spend API quota on towns already resolved.
type Cache struct {
	store *store.Store
}

// NewCache creates a cache backed by s. A nil store disables caching.
func NewCache(s *store.Store) *Cache {
	return &Cache{store: s}
}

// Key normalises a town name for cache lookups
func Key(town string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(town)))
}

// Get returns the cached coordinate of town, if any
func (c *Cache) Get(town string) (Coordinate, bool) {
	if c == nil || c.store == nil {
		return Coordinate{}, false
	}

	entry, err := c.store.GetGeocode(Key(town))
	if err != nil {
		util.DebugLog("Geocode cache lookup failed for %q: %v", town, err)
		return Coordinate{}, false
	}
	if entry == nil {
		return Coordinate{}, false
	}

	util.DebugLog("Geocode cache hit: %q", town)
	return Coordinate{
		Town:      town,
		Longitude: entry.Longitude,
		Latitude:  entry.Latitude,
		Found:     entry.Found,
	}, true
}

// Put stores a coordinate. Failures are logged, never returned.
func (c *Cache) Put(coord Coordinate) {
	if c == nil || c.store == nil {
		return
	}

	err := c.store.PutGeocode(Key(coord.Town), &store.GeocodeEntry{
		Town:      coord.Town,
		Longitude: coord.Longitude,
		Latitude:  coord.Latitude,
		Found:     coord.Found,
	})
	if err != nil {
		util.WarnLog("Failed to cache geocode result for %q: %v", coord.Town, err)
	}
}
