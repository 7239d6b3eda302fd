package store

// Schema v1 - Initial database schema
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Merged composer rows, one per composer of the last parse run
CREATE TABLE IF NOT EXISTS composers (
  name TEXT PRIMARY KEY,
  position INTEGER NOT NULL,
  date_of_birth TEXT NOT NULL DEFAULT '',
  birth_town TEXT NOT NULL DEFAULT '',
  birth_country TEXT NOT NULL DEFAULT '',
  date_of_death TEXT NOT NULL DEFAULT '',
  death_town TEXT NOT NULL DEFAULT '',
  death_country TEXT NOT NULL DEFAULT '',
  nationality TEXT NOT NULL DEFAULT '',
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Forward geocoding results keyed by normalised town name.
-- longitude/latitude are NULL when the API found nothing.
CREATE TABLE IF NOT EXISTS geocode_cache (
  town_key TEXT PRIMARY KEY,
  town TEXT NOT NULL,
  longitude REAL,
  latitude REAL,
  found INTEGER NOT NULL DEFAULT 0,
  hit_count INTEGER NOT NULL DEFAULT 0,
  cached_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- MIDI download ledger, one row per lute table row
CREATE TABLE IF NOT EXISTS downloads (
  row_index INTEGER PRIMARY KEY,
  composer TEXT,
  url TEXT NOT NULL,
  path TEXT,
  bytes_written INTEGER NOT NULL DEFAULT 0,
  error TEXT,
  completed_at DATETIME
);
`

// Schema v2 - Lookup indexes for show and report queries
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_composers_nationality ON composers(nationality);
CREATE INDEX IF NOT EXISTS idx_composers_position ON composers(position);
CREATE INDEX IF NOT EXISTS idx_downloads_composer ON downloads(composer);
CREATE INDEX IF NOT EXISTS idx_downloads_error ON downloads(error);
`
