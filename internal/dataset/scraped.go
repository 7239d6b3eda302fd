package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default file names inside the data directory
const (
	ClassicalFile  = "composer_data_classical.json"
	MusicalicsFile = "composer_data_musicalics.json"
	ComposersFile  = "cleaned_composers.csv"
	MergedFile     = "merged_parsed_composer_data.csv"
	TownsFile      = "town_coordinates.csv"
	LuteFile       = "lute_data.csv"
)

// ClassicalData maps composer name to the raw biography line of the classical source
type ClassicalData = Ordered[string]

// MusicalicsData holds the raw text fragments of the musicalics source,
// one composer→fragments table per page column.
type MusicalicsData struct {
	Birth *Ordered[[]string] `json:"birth"`
	Group *Ordered[[]string] `json:"group"`
	Death *Ordered[[]string] `json:"death"`
}

// NewMusicalicsData returns empty tables for all three categories
func NewMusicalicsData() *MusicalicsData {
	return &MusicalicsData{
		Birth: NewOrdered[[]string](),
		Group: NewOrdered[[]string](),
		Death: NewOrdered[[]string](),
	}
}

// ReadClassical loads the classical JSON blob
func ReadClassical(path string) (*ClassicalData, error) {
	data := NewOrdered[string]()
	if err := readJSON(path, data); err != nil {
		return nil, err
	}
	return data, nil
}

// ReadMusicalics loads the musicalics JSON blob
func ReadMusicalics(path string) (*MusicalicsData, error) {
	data := NewMusicalicsData()
	if err := readJSON(path, data); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteJSON writes v as 4-space indented UTF-8 JSON, creating parent directories
func WriteJSON(path string, v any) error {
	f, err := CreateFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// CreateFile creates path for writing along with its parent directories
func CreateFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
