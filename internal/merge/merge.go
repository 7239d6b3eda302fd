// Package merge combines the classical and musicalics record tables into one
// table by source precedence.
package merge

import (
	"github.com/franz/lute-composers/internal/composer"
)

// Provenance names which source filled a merged field
type Provenance int

const (
	FromNone Provenance = iota
	FromMusicalics
	FromClassical
)

// Stats counts, over all merged fields, which source supplied the value
type Stats struct {
	Rows       int
	Musicalics int
	Classical  int
	Unknown    int

	// Nationality provenance
	NationalityGroup        int
	NationalityBirthCountry int
	NationalityDeathCountry int
	NationalityUnknown      int
}

func (s *Stats) count(p Provenance) {
	switch p {
	case FromMusicalics:
		s.Musicalics++
	case FromClassical:
		s.Classical++
	default:
		s.Unknown++
	}
}

// Pick returns the musicalics value when known, else the classical value
func Pick(musicalics, classical string) (string, Provenance) {
	if musicalics != composer.Unknown {
		return musicalics, FromMusicalics
	}
	if classical != composer.Unknown {
		return classical, FromClassical
	}
	return composer.Unknown, FromNone
}

// Nationality derives a composer's nationality: the musicalics group
// country, else the classical birth country, else the classical death country.
func Nationality(classical, musicalics composer.Record) string {
	n, _ := nationality(classical, musicalics)
	return n
}

type nationalitySource int

const (
	nationalityUnknown nationalitySource = iota
	nationalityGroup
	nationalityBirth
	nationalityDeath
)

func nationality(classical, musicalics composer.Record) (string, nationalitySource) {
	switch {
	case musicalics.GroupCountry != composer.Unknown:
		return musicalics.GroupCountry, nationalityGroup
	case classical.BirthCountry != composer.Unknown:
		return classical.BirthCountry, nationalityBirth
	case classical.DeathCountry != composer.Unknown:
		return classical.DeathCountry, nationalityDeath
	}
	return composer.Unknown, nationalityUnknown
}

// Merge builds one merged record per composer of order. Composers missing
// from a table are treated as all unknown in that table.
func Merge(order []string, classical, musicalics map[string]composer.Record) ([]composer.Merged, Stats) {
	var stats Stats
	merged := make([]composer.Merged, 0, len(order))

	for _, name := range order {
		a, ok := classical[name]
		if !ok {
			a = composer.NewRecord(name)
		}
		b, ok := musicalics[name]
		if !ok {
			b = composer.NewRecord(name)
		}

		m := composer.Merged{Composer: name}
		fields := []struct {
			dst  *string
			b, a string
		}{
			{&m.DateOfBirth, b.DateOfBirth, a.DateOfBirth},
			{&m.BirthTown, b.BirthTown, a.BirthTown},
			{&m.BirthCountry, b.BirthCountry, a.BirthCountry},
			{&m.DateOfDeath, b.DateOfDeath, a.DateOfDeath},
			{&m.DeathTown, b.DeathTown, a.DeathTown},
			{&m.DeathCountry, b.DeathCountry, a.DeathCountry},
		}
		for _, f := range fields {
			v, p := Pick(f.b, f.a)
			*f.dst = v
			stats.count(p)
		}

		var src nationalitySource
		m.Nationality, src = nationality(a, b)
		switch src {
		case nationalityGroup:
			stats.NationalityGroup++
		case nationalityBirth:
			stats.NationalityBirthCountry++
		case nationalityDeath:
			stats.NationalityDeathCountry++
		default:
			stats.NationalityUnknown++
		}

		merged = append(merged, m)
		stats.Rows++
	}

	return merged, stats
}
