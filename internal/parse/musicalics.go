package parse

import (
	"regexp"
	"strings"

	"github.com/franz/lute-composers/internal/composer"
	"golang.org/x/text/unicode/norm"
)

var (
	// noiseLabels are page labels that never carry data
	noiseLabels = []string{"Age", "Birth", "Death"}

	lowercase = regexp.MustCompile(`[a-z]`)
)

// FragmentRule classifies one text fragment of a birth or death column
type FragmentRule struct {
	Name  string
	Match func(fragment string) bool
	Apply func(rec *composer.Record, event composer.Event, fragment string)
}

// FragmentRules are evaluated in order and the first match wins:
// an exact country beats a year, which beats a town.
var FragmentRules = []FragmentRule{
	{
		Name:  "country",
		Match: composer.IsCountry,
		Apply: func(rec *composer.Record, event composer.Event, fragment string) {
			rec.SetCountry(event, fragment)
		},
	},
	{
		Name:  "year",
		Match: fourDigits.MatchString,
		Apply: func(rec *composer.Record, event composer.Event, fragment string) {
			rec.SetDate(event, FirstYear(fragment))
		},
	},
	{
		Name:  "town",
		Match: lowercase.MatchString,
		Apply: func(rec *composer.Record, event composer.Event, fragment string) {
			rec.SetTown(event, fragment)
		},
	},
}

// Classify returns the name of the rule a fragment falls under, or "" if none
func Classify(fragment string) string {
	for _, rule := range FragmentRules {
		if rule.Match(fragment) {
			return rule.Name
		}
	}
	return ""
}

// ParseMusicalicsEvent fills the fields of one life event from the text
// fragments of its page column. Later matches overwrite earlier ones.
func ParseMusicalicsEvent(rec *composer.Record, event composer.Event, fragments []string) {
	for _, fragment := range dropHeader(filterNoise(fragments)) {
		for _, rule := range FragmentRules {
			if rule.Match(fragment) {
				rule.Apply(rec, event, fragment)
				break
			}
		}
	}
}

// ParseMusicalicsGroup records the last exact country among the group
// column fragments as the composer's group affiliation.
func ParseMusicalicsGroup(rec *composer.Record, fragments []string) {
	for _, fragment := range fragments {
		fragment = strings.TrimSpace(norm.NFC.String(fragment))
		if composer.IsCountry(fragment) {
			rec.GroupCountry = fragment
		}
	}
}

// filterNoise drops blank fragments, layout whitespace and label fragments
func filterNoise(fragments []string) []string {
	kept := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		if isNoise(fragment) {
			continue
		}
		kept = append(kept, strings.TrimSpace(norm.NFC.String(fragment)))
	}
	return kept
}

func isNoise(fragment string) bool {
	if strings.TrimSpace(fragment) == "" || strings.Contains(fragment, "\n") {
		return true
	}
	for _, label := range noiseLabels {
		if strings.Contains(fragment, label) {
			return true
		}
	}
	return false
}

// dropHeader discards the fragments before the first one holding a year.
// Without any year the fragments are returned unchanged.
func dropHeader(fragments []string) []string {
	for i, fragment := range fragments {
		if fourDigits.MatchString(fragment) {
			return fragments[i:]
		}
	}
	return fragments
}
