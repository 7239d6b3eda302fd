package parse

import (
	"github.com/franz/lute-composers/internal/composer"
	"github.com/franz/lute-composers/internal/dataset"
	"github.com/franz/lute-composers/internal/util"
)

// Tables holds both per-source record tables keyed by composer name.
// Order is the classical composer list, which defines the output rows.
type Tables struct {
	Order      []string
	Classical  map[string]composer.Record
	Musicalics map[string]composer.Record

	// Skipped counts musicalics entries for composers outside Order
	Skipped int
}

// BuildTables parses both scraped blobs. Every composer of the classical
// blob gets a record in both tables, initially all unknown.
func BuildTables(classical *dataset.ClassicalData, musicalics *dataset.MusicalicsData) *Tables {
	order := classical.Keys()
	t := &Tables{
		Order:      order,
		Classical:  make(map[string]composer.Record, len(order)),
		Musicalics: make(map[string]composer.Record, len(order)),
	}
	for _, name := range order {
		t.Musicalics[name] = composer.NewRecord(name)
	}

	for _, name := range order {
		info, _ := classical.Get(name)
		t.Classical[name] = ParseClassical(name, info)
	}

	if musicalics == nil {
		return t
	}

	events := []struct {
		event composer.Event
		table *dataset.Ordered[[]string]
	}{
		{composer.EventBirth, musicalics.Birth},
		{composer.EventDeath, musicalics.Death},
	}
	for _, ev := range events {
		for _, name := range ev.table.Keys() {
			rec, ok := t.Musicalics[name]
			if !ok {
				util.DebugLog("musicalics %s entry for %q has no classical entry, skipping", ev.event, name)
				t.Skipped++
				continue
			}
			fragments, _ := ev.table.Get(name)
			ParseMusicalicsEvent(&rec, ev.event, fragments)
			t.Musicalics[name] = rec
		}
	}

	for _, name := range musicalics.Group.Keys() {
		rec, ok := t.Musicalics[name]
		if !ok {
			util.DebugLog("musicalics group entry for %q has no classical entry, skipping", name)
			t.Skipped++
			continue
		}
		fragments, _ := musicalics.Group.Get(name)
		ParseMusicalicsGroup(&rec, fragments)
		t.Musicalics[name] = rec
	}

	return t
}
