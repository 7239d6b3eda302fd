package merge

import (
	"testing"

	"github.com/franz/lute-composers/internal/composer"
)

func TestPick(t *testing.T) {
	tests := []struct {
		name       string
		musicalics string
		classical  string
		want       string
		wantFrom   Provenance
	}{
		{"musicalics unknown falls back", "", "1542", "1542", FromClassical},
		{"both present musicalics wins", "1543", "1542", "1543", FromMusicalics},
		{"only musicalics", "1543", "", "1543", FromMusicalics},
		{"both unknown", "", "", composer.Unknown, FromNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, from := Pick(tt.musicalics, tt.classical)
			if got != tt.want || from != tt.wantFrom {
				t.Errorf("Pick(%q, %q) = (%q, %d), want (%q, %d)",
					tt.musicalics, tt.classical, got, from, tt.want, tt.wantFrom)
			}
		})
	}
}

func TestNationality(t *testing.T) {
	tests := []struct {
		name       string
		classical  composer.Record
		musicalics composer.Record
		want       string
	}{
		{
			name:       "group country first",
			classical:  composer.Record{BirthCountry: "Italy", DeathCountry: "France"},
			musicalics: composer.Record{GroupCountry: "Germany", BirthCountry: "Austria"},
			want:       "Germany",
		},
		{
			name:       "classical birth country second",
			classical:  composer.Record{BirthCountry: "Italy", DeathCountry: "France"},
			musicalics: composer.Record{BirthCountry: "Austria"},
			want:       "Italy",
		},
		{
			name:       "classical death country third",
			classical:  composer.Record{DeathCountry: "France"},
			musicalics: composer.Record{DeathCountry: "Spain"},
			want:       "France",
		},
		{
			name:       "unknown when nothing applies",
			classical:  composer.Record{},
			musicalics: composer.Record{BirthCountry: "Austria", DeathCountry: "Spain"},
			want:       composer.Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Nationality(tt.classical, tt.musicalics); got != tt.want {
				t.Errorf("Nationality() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	order := []string{"Francesco da Milano", "John Dowland", "Anonymous"}
	classical := map[string]composer.Record{
		"Francesco da Milano": {
			Composer:     "Francesco da Milano",
			DateOfBirth:  "1497",
			BirthTown:    "Monza",
			BirthCountry: "Italy",
			DateOfDeath:  "1543",
		},
		"John Dowland": {
			Composer:    "John Dowland",
			DateOfBirth: "1563",
			DeathTown:   "London",
		},
	}
	musicalics := map[string]composer.Record{
		"Francesco da Milano": {
			Composer:    "Francesco da Milano",
			DateOfDeath: "1544",
			DeathTown:   "Milan",
		},
		"John Dowland": {
			Composer:     "John Dowland",
			BirthCountry: "England",
			GroupCountry: "Ireland",
		},
		"Only In Musicalics": {
			Composer:    "Only In Musicalics",
			DateOfBirth: "1600",
		},
	}

	merged, stats := Merge(order, classical, musicalics)

	if len(merged) != len(order) {
		t.Fatalf("got %d rows, want %d", len(merged), len(order))
	}
	for i, name := range order {
		if merged[i].Composer != name {
			t.Errorf("row %d composer = %q, want %q", i, merged[i].Composer, name)
		}
	}

	wantFrancesco := composer.Merged{
		Composer:     "Francesco da Milano",
		DateOfBirth:  "1497",
		BirthTown:    "Monza",
		BirthCountry: "Italy",
		DateOfDeath:  "1544",
		DeathTown:    "Milan",
		Nationality:  "Italy",
	}
	if merged[0] != wantFrancesco {
		t.Errorf("merged[0] = %+v\nwant %+v", merged[0], wantFrancesco)
	}

	wantDowland := composer.Merged{
		Composer:     "John Dowland",
		DateOfBirth:  "1563",
		BirthCountry: "England",
		DeathTown:    "London",
		Nationality:  "Ireland",
	}
	if merged[1] != wantDowland {
		t.Errorf("merged[1] = %+v\nwant %+v", merged[1], wantDowland)
	}

	if merged[2] != (composer.Merged{Composer: "Anonymous"}) {
		t.Errorf("merged[2] = %+v, want all unknown", merged[2])
	}

	if stats.Rows != 3 {
		t.Errorf("Rows = %d, want 3", stats.Rows)
	}
	if stats.Musicalics != 3 || stats.Classical != 5 || stats.Unknown != 10 {
		t.Errorf("provenance = %d/%d/%d, want 3/5/10", stats.Musicalics, stats.Classical, stats.Unknown)
	}
	if stats.NationalityGroup != 1 || stats.NationalityBirthCountry != 1 || stats.NationalityUnknown != 1 {
		t.Errorf("nationality stats = %+v", stats)
	}
}
