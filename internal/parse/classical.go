// Package parse turns the scraped biography text of both sources into
// structured composer records.
package parse

import (
	"regexp"
	"strings"

	"github.com/franz/lute-composers/internal/composer"
	"golang.org/x/text/unicode/norm"
)

var (
	// leadingProse matches everything before the first digit or hyphen
	leadingProse = regexp.MustCompile(`^[^\d-]*`)

	// yearBoundary matches a 4-digit year followed by whitespace; the first
	// match separates the dates segment from the locations segment
	yearBoundary = regexp.MustCompile(`\d{4}\s+`)

	fourDigits = regexp.MustCompile(`\d{4}`)
)

const (
	dateSeparator      = "-"
	locationSeparator  = " - "
	componentSeparator = ", "
	unknownPlaceholder = "unknown"
)

// ParseClassical extracts birth/death years and places from a classical
// biography line such as "1563-1626 London, England - London, England".
//
// Lines without a comma carry no dates or places and yield an empty record.
// Leading non-date prose is discarded before splitting. Dates and locations
// are applied only when their segment splits into exactly two parts.
func ParseClassical(name, info string) composer.Record {
	rec := composer.NewRecord(name)

	if !strings.Contains(info, ",") {
		return rec
	}

	dates, locations, ok := SplitDatesAndLocations(NormalizeClassical(info))
	if !ok {
		return rec
	}

	if birth, death, ok := splitPair(dates, dateSeparator); ok {
		rec.DateOfBirth = FirstYear(birth)
		rec.DateOfDeath = FirstYear(death)
	}

	if birth, death, ok := splitPair(locations, locationSeparator); ok {
		rec.BirthTown, rec.BirthCountry = ParseLocation(birth)
		rec.DeathTown, rec.DeathCountry = ParseLocation(death)
	}

	return rec
}

// NormalizeClassical applies the classical line clean-up: line breaks become
// spaces, question marks and carriage returns are dropped, and leading
// non-date prose is discarded.
func NormalizeClassical(info string) string {
	info = norm.NFC.String(info)
	info = strings.ReplaceAll(info, "\n", " ")
	info = strings.NewReplacer("?", "", "\r", "").Replace(info)
	return leadingProse.ReplaceAllString(info, "")
}

// SplitDatesAndLocations splits at the first whitespace run following a
// 4-digit year. The locations segment ends where the next year followed by
// whitespace begins. Both segments must be non-empty.
func SplitDatesAndLocations(info string) (dates, locations string, ok bool) {
	loc := yearBoundary.FindStringIndex(info)
	if loc == nil {
		return "", "", false
	}

	dates = info[:loc[0]+4]
	rest := info[loc[1]:]
	if next := yearBoundary.FindStringIndex(rest); next != nil {
		rest = rest[:next[0]]
	}
	locations = strings.TrimSpace(rest)
	if dates == "" || locations == "" {
		return "", "", false
	}
	return dates, locations, true
}

// FirstYear returns the first 4-digit run of s, or unknown
func FirstYear(s string) string {
	return fourDigits.FindString(s)
}

// ParseLocation splits "Town, Country" into its parts. A component that is a
// known country is the country; any other component is the town, the last
// one winning. A literal "unknown" component leaves the town unknown.
func ParseLocation(s string) (town, country string) {
	for _, part := range strings.Split(s, componentSeparator) {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case composer.IsCountry(part):
			country = part
		case strings.EqualFold(part, unknownPlaceholder):
			town = composer.Unknown
		default:
			town = part
		}
	}
	return town, country
}

// splitPair splits s on sep and succeeds only for exactly two parts
func splitPair(s, sep string) (string, string, bool) {
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
