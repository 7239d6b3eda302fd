package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/franz/lute-composers/internal/util"
)

const (
	MusicalicsName = "musicalics"

	// DefaultMusicalicsURL is the site root; search and composer links hang off it
	DefaultMusicalicsURL = "https://musicalics.com"

	musicalicsSearchPath = "/en/search/composer/"

	// musicalicsSpace is a double-encoded space, as the site search expects
	musicalicsSpace = "%2520"
)

// layoutText matches header text nodes that are markup whitespace, not names
var layoutText = regexp.MustCompile(`\n|\s\s`)

// MusicalicsSource finds a composer through the site search and collects
// the text of the birth, group and death columns of the composer page.
type MusicalicsSource struct {
	client  *http.Client
	siteURL string
	retry   *util.RetryConfig
}

// NewMusicalicsSource creates the musicalics source. An empty siteURL uses
// DefaultMusicalicsURL.
func NewMusicalicsSource(client *http.Client, siteURL string, retry *util.RetryConfig) *MusicalicsSource {
	if siteURL == "" {
		siteURL = DefaultMusicalicsURL
	}
	return &MusicalicsSource{client: client, siteURL: strings.TrimSuffix(siteURL, "/"), retry: retry}
}

func (s *MusicalicsSource) Name() string { return MusicalicsName }

// SearchURL returns the search page URL for a composer
func (s *MusicalicsSource) SearchURL(composer string) string {
	words := strings.Fields(composer)
	for i, w := range words {
		words[i] = url.PathEscape(w)
	}
	return s.siteURL + musicalicsSearchPath + strings.Join(words, musicalicsSpace)
}

// Scrape searches for composer, follows the best header match if it scores
// above MatchThreshold and collects the page's three data columns.
func (s *MusicalicsSource) Scrape(ctx context.Context, composer string) (*Result, error) {
	body, err := util.FetchBytes(ctx, s.client, s.SearchURL(composer), s.retry)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", composer, err)
	}
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	candidates := musicalicsCandidates(doc)
	best, score := BestMatch(composer, candidates)
	if best < 0 || score <= MatchThreshold {
		return nil, fmt.Errorf("%q (best score %d): %w", composer, score, ErrNoMatch)
	}

	href := anchorContaining(doc, candidates[best])
	if href == "" {
		return nil, fmt.Errorf("%q: no link for %q: %w", composer, candidates[best], ErrNoMatch)
	}
	pageURL := href
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		pageURL = s.siteURL + href
	}

	body, err = util.FetchBytes(ctx, s.client, pageURL, s.retry)
	if err != nil {
		return nil, fmt.Errorf("composer page %q: %w", composer, err)
	}
	page, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	return &Result{
		Composer: composer,
		URL:      pageURL,
		Birth:    columnText(page, "group-left"),
		Group:    columnText(page, "group-middle"),
		Death:    columnText(page, "group-right"),
	}, nil
}

// musicalicsCandidates returns the composer names of the search result headers
func musicalicsCandidates(doc *goquery.Document) []string {
	var names []string
	for _, text := range textNodes(doc.Find(`[class="group-header"]`)) {
		if layoutText.MatchString(text) {
			continue
		}
		names = append(names, text)
	}
	return names
}

// anchorContaining returns the href of the first anchor whose first text
// node contains name
func anchorContaining(doc *goquery.Document, name string) string {
	var href string
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text, ok := firstOwnText(a.Nodes[0])
		if !ok || !strings.Contains(text, name) {
			return true
		}
		href, _ = a.Attr("href")
		return false
	})
	return href
}

// columnText returns every descendant text node of the div with the given class.
// A missing column yields an empty, non-nil list.
func columnText(doc *goquery.Document, class string) []string {
	texts := textNodes(doc.Find(fmt.Sprintf(`div[class="%s"]`, class)))
	if texts == nil {
		texts = []string{}
	}
	return texts
}
