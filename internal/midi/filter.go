package midi

import (
	"fmt"
	"path/filepath"

	"github.com/franz/lute-composers/internal/dataset"
)

// Filter keeps the rows of composer (all rows if empty) and then the first
// limit of them (all if limit <= 0). Row indexes are preserved.
func Filter(rows []dataset.LuteRow, composer string, limit int) []dataset.LuteRow {
	var out []dataset.LuteRow
	for _, row := range rows {
		if composer != "" && row.Composer != composer {
			continue
		}
		out = append(out, row)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// FilePath returns where the MIDI file of a lute table row is written
func FilePath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("%d.mid", index))
}
