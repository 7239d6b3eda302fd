package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/franz/lute-composers/internal/util"
)

const (
	ClassicalName = "classical"

	// DefaultClassicalSearchURL is the site search; the query is appended
	DefaultClassicalSearchURL = "http://search.freefind.com/find.html?id=596354&pageid=r&mode=ALL&query="
)

// ClassicalSource finds a composer through the site search and reads the
// one-line biography at the top of the composer page.
type ClassicalSource struct {
	client    *http.Client
	searchURL string
	retry     *util.RetryConfig
}

// NewClassicalSource creates the classical source. An empty searchURL uses
// DefaultClassicalSearchURL.
func NewClassicalSource(client *http.Client, searchURL string, retry *util.RetryConfig) *ClassicalSource {
	if searchURL == "" {
		searchURL = DefaultClassicalSearchURL
	}
	return &ClassicalSource{client: client, searchURL: searchURL, retry: retry}
}

func (s *ClassicalSource) Name() string { return ClassicalName }

// SearchURL returns the search page URL for a composer, spaces as '+'
func (s *ClassicalSource) SearchURL(composer string) string {
	return s.searchURL + url.QueryEscape(composer)
}

type searchHit struct {
	text string
	href string
}

// Scrape searches for composer, follows the best hit if it scores above
// MatchThreshold and returns the page's first font text as the biography.
func (s *ClassicalSource) Scrape(ctx context.Context, composer string) (*Result, error) {
	searchURL := s.SearchURL(composer)
	body, err := util.FetchBytes(ctx, s.client, searchURL, s.retry)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", composer, err)
	}
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	hits := classicalHits(doc)
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.text
	}
	best, score := BestMatch(composer, texts)
	if best < 0 || score <= MatchThreshold || hits[best].href == "" {
		return nil, fmt.Errorf("%q (best score %d): %w", composer, score, ErrNoMatch)
	}

	pageURL, err := resolve(searchURL, hits[best].href)
	if err != nil {
		return nil, err
	}
	body, err = util.FetchBytes(ctx, s.client, pageURL, s.retry)
	if err != nil {
		return nil, fmt.Errorf("composer page %q: %w", composer, err)
	}
	page, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	bio := classicalBiography(page)
	if bio == "" {
		return nil, fmt.Errorf("%q: no biography text at %s: %w", composer, pageURL, ErrNoMatch)
	}

	return &Result{Composer: composer, URL: pageURL, Biography: bio}, nil
}

// classicalHits lists the anchors of the search result entries
func classicalHits(doc *goquery.Document) []searchHit {
	var hits []searchHit
	doc.Find(`font[class="search-results"] > a`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		hits = append(hits, searchHit{text: a.Text(), href: href})
	})
	return hits
}

// classicalBiography returns the first direct text of the first font element
// that has one, with newlines turned into spaces.
func classicalBiography(doc *goquery.Document) string {
	var bio string
	doc.Find("font").EachWithBreak(func(_ int, font *goquery.Selection) bool {
		text, ok := firstOwnText(font.Nodes[0])
		if !ok {
			return true
		}
		bio = strings.ReplaceAll(text, "\n", " ")
		return false
	})
	return bio
}

// resolve resolves a possibly relative href against the page it appeared on
func resolve(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid link %q: %w", href, err)
	}
	return b.ResolveReference(ref).String(), nil
}
