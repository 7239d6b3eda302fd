package store

import (
	"database/sql"
	"math"
)

// GetGeocode returns the cached entry for a town key, or nil if not cached.
// Each hit is counted.
func (s *Store) GetGeocode(key string) (*GeocodeEntry, error) {
	var e GeocodeEntry
	var lon, lat sql.NullFloat64
	var found int

	err := s.db.QueryRow(`
		SELECT town, longitude, latitude, found, hit_count, cached_at
		FROM geocode_cache
		WHERE town_key = ?
	`, key).Scan(&e.Town, &lon, &lat, &found, &e.HitCount, &e.CachedAt)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.Found = found == 1
	e.Longitude, e.Latitude = math.NaN(), math.NaN()
	if lon.Valid {
		e.Longitude = lon.Float64
	}
	if lat.Valid {
		e.Latitude = lat.Float64
	}

	if _, err := s.db.Exec(`UPDATE geocode_cache SET hit_count = hit_count + 1 WHERE town_key = ?`, key); err != nil {
		return nil, err
	}
	e.HitCount++
	return &e, nil
}

// PutGeocode stores a geocoding result. NaN coordinates are stored as NULL.
func (s *Store) PutGeocode(key string, e *GeocodeEntry) error {
	found := 0
	if e.Found {
		found = 1
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO geocode_cache
		(town_key, town, longitude, latitude, found, hit_count, cached_at)
		VALUES (?, ?, ?, ?, ?, 0, CURRENT_TIMESTAMP)
	`, key, e.Town, nullFloat(e.Longitude), nullFloat(e.Latitude), found)
	return err
}

// CountGeocodes returns the number of cached towns and how many of them
// have coordinates
func (s *Store) CountGeocodes() (total, found int, err error) {
	err = s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(found), 0) FROM geocode_cache
	`).Scan(&total, &found)
	return total, found, err
}

func nullFloat(f float64) sql.NullFloat64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}
