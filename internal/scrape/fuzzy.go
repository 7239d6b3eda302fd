package scrape

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/unicode/norm"
)

// MatchThreshold is the score a candidate must exceed to be followed
const MatchThreshold = 90

// tokens returns the distinct lower-cased alphanumeric words of s, sorted
func tokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(norm.NFC.String(s)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

// Score rates how well two names match on a 0..100 scale by comparing their
// word sets. The shared words alone, and the shared words followed by each
// side's remaining words, are compared pairwise; the best ratio wins. A name
// whose words are all contained in the other scores 100.
func Score(a, b string) int {
	ta, tb := tokens(a), tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	inB := make(map[string]bool, len(tb))
	for _, t := range tb {
		inB[t] = true
	}

	var common, onlyA []string
	for _, t := range ta {
		if inB[t] {
			common = append(common, t)
			delete(inB, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	var onlyB []string
	for _, t := range tb {
		if inB[t] {
			onlyB = append(onlyB, t)
		}
	}

	sect := strings.Join(common, " ")
	withA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	return max(ratio(sect, withA), ratio(sect, withB), ratio(withA, withB))
}

// ratio is the indel similarity of two strings: twice their longest common
// subsequence over their combined length, scaled to 0..100
func ratio(a, b string) int {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 0
	}
	lcs := matchr.LongestCommonSubsequence(a, b)
	return int(math.Round(float64(200*lcs) / float64(total)))
}

// BestMatch returns the index of the candidate scoring highest against
// query, with its score. Ties keep the earliest candidate. Returns -1 when
// there are no candidates or none scores above zero.
func BestMatch(query string, candidates []string) (int, int) {
	bestIndex, bestScore := -1, 0
	for i, c := range candidates {
		if s := Score(query, c); s > bestScore {
			bestIndex, bestScore = i, s
		}
	}
	return bestIndex, bestScore
}
