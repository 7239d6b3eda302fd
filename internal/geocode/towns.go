package geocode

import (
	"math"
	"strconv"

	"github.com/franz/lute-composers/internal/composer"
	"github.com/franz/lute-composers/internal/dataset"
)

// TownColumns is the header of the town coordinate CSV
var TownColumns = []string{"town", "longitude", "latitude"}

// CollectTowns returns the distinct known towns of records, taking each
// row's birth town before its death town.
func CollectTowns(records []composer.Merged) []string {
	seen := make(map[string]bool)
	var towns []string
	for _, r := range records {
		for _, town := range []string{r.BirthTown, r.DeathTown} {
			if town == composer.Unknown || seen[town] {
				continue
			}
			seen[town] = true
			towns = append(towns, town)
		}
	}
	return towns
}

// formatCoordinate writes NaN as an empty cell
func formatCoordinate(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// WriteTowns writes the town coordinate CSV
func WriteTowns(path string, enc dataset.Encoding, coords []Coordinate) error {
	rows := make([][]string, 0, len(coords))
	for _, c := range coords {
		rows = append(rows, []string{c.Town, formatCoordinate(c.Longitude), formatCoordinate(c.Latitude)})
	}
	return dataset.WriteTable(path, enc, TownColumns, rows)
}
