package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/franz/lute-composers/internal/report"
	"github.com/franz/lute-composers/internal/util"
)

func TestScore(t *testing.T) {
	tests := []struct {
		a, b    string
		min     int
		max     int
		comment string
	}{
		{"John Dowland", "John Dowland", 100, 100, "identical"},
		{"John Dowland", "Dowland, John", 100, 100, "word order and punctuation"},
		{"John Dowland", "John Dowland (1563-1626)", 100, 100, "contained in longer title"},
		{"Francesco da Milano", "FRANCESCO DA MILANO", 100, 100, "case"},
		{"Hans Newsidler", "Ludwig van Beethoven", 0, 70, "unrelated"},
		{"Giovanni Antonio Terzi", "Giovanni Antonio Casteliono", 84, 84, "shared first names"},
		{"Vincenzo Galilei", "Vincenzo Galilei il vecchio", 100, 100, "epithet"},
		{"", "John Dowland", 0, 0, "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.comment, func(t *testing.T) {
			got := Score(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("Score(%q, %q) = %d, want %d..%d", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

func TestBestMatch(t *testing.T) {
	i, score := BestMatch("Nicolas Vallet", []string{"Ludwig van Beethoven", "Nicolas Vallet", "Vallet, Nicolas"})
	if i != 1 || score != 100 {
		t.Errorf("BestMatch = (%d, %d), want (1, 100)", i, score)
	}

	if i, _ := BestMatch("Nicolas Vallet", nil); i != -1 {
		t.Errorf("BestMatch without candidates = %d, want -1", i)
	}
}

func TestSharedFirstNamesStayBelowThreshold(t *testing.T) {
	candidates := []string{"Giovanni Antonio Casteliono", "Giovanni Battista Granata"}
	if _, score := BestMatch("Giovanni Antonio Terzi", candidates); score > MatchThreshold {
		t.Errorf("score = %d, a different composer must not pass %d", score, MatchThreshold)
	}
}

func TestSearchURLs(t *testing.T) {
	classical := NewClassicalSource(nil, "", nil)
	want := DefaultClassicalSearchURL + "Francesco+da+Milano"
	if got := classical.SearchURL("Francesco da Milano"); got != want {
		t.Errorf("classical SearchURL = %q, want %q", got, want)
	}

	musicalics := NewMusicalicsSource(nil, "", nil)
	want = "https://musicalics.com/en/search/composer/Francesco%2520da%2520Milano"
	if got := musicalics.SearchURL("Francesco da Milano"); got != want {
		t.Errorf("musicalics SearchURL = %q, want %q", got, want)
	}
}

const classicalSearchPage = `<html><body>
<font class="search-results"><a href="/composers/%s.html">%s - Classical Composers</a></font>
<font class="search-results"><a href="/composers/other.html">Ludwig van Beethoven</a></font>
</body></html>`

const classicalComposerPage = `<html><body>
<font size="4"><b>John Dowland</b></font>
<font>1563-1626 London,
England - London, England</font>
</body></html>`

const musicalicsSearchPage = `<html><body>
<div class="group-header">
  <a href="/en/node/123">John Dowland</a>
</div>
<div class="group-header">
  <a href="/en/node/456">Robert Dowland</a>
</div>
</body></html>`

const musicalicsComposerPage = `<html><body>
<div class="group-left"><span>Birth</span>
<span>1563</span><span>London</span><span>England</span></div>
<div class="group-middle"><a>England</a></div>
<div class="group-right"><span>Death</span><span>1626</span><span>London</span></div>
</body></html>`

func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/find.html", func(w http.ResponseWriter, r *http.Request) {
		switch q := r.URL.Query().Get("query"); q {
		case "John Dowland":
			fmt.Fprintf(w, classicalSearchPage, "dowland", q)
		case "Broken Search":
			http.Error(w, "gone", http.StatusNotFound)
		default:
			fmt.Fprint(w, `<html><body><font class="search-results"><a href="/x">Ludwig van Beethoven</a></font></body></html>`)
		}
	})
	mux.HandleFunc("/composers/dowland.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, classicalComposerPage)
	})
	mux.HandleFunc("/en/search/composer/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.EscapedPath(), "/John%2520Dowland") {
			fmt.Fprint(w, musicalicsSearchPage)
			return
		}
		fmt.Fprint(w, `<html><body><p>No results</p></body></html>`)
	})
	mux.HandleFunc("/en/node/123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, musicalicsComposerPage)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testSources(srv *httptest.Server) (*ClassicalSource, *MusicalicsSource) {
	client := util.NewHTTPClient(5 * time.Second)
	retry := util.NoRetry()
	return NewClassicalSource(client, srv.URL+"/find.html?query=", retry),
		NewMusicalicsSource(client, srv.URL, retry)
}

func TestClassicalSourceScrape(t *testing.T) {
	srv := newSiteServer(t)
	classical, _ := testSources(srv)

	res, err := classical.Scrape(context.Background(), "John Dowland")
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if res.Biography != "1563-1626 London, England - London, England" {
		t.Errorf("Biography = %q", res.Biography)
	}
	if res.URL != srv.URL+"/composers/dowland.html" {
		t.Errorf("URL = %q", res.URL)
	}

	_, err = classical.Scrape(context.Background(), "Hans Newsidler")
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("low-scoring candidate: err = %v, want ErrNoMatch", err)
	}

	_, err = classical.Scrape(context.Background(), "Broken Search")
	var statusErr *util.HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("404 search: err = %v, want HTTPStatusError 404", err)
	}
}

func TestMusicalicsSourceScrape(t *testing.T) {
	srv := newSiteServer(t)
	_, musicalics := testSources(srv)

	res, err := musicalics.Scrape(context.Background(), "John Dowland")
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if res.URL != srv.URL+"/en/node/123" {
		t.Errorf("URL = %q", res.URL)
	}

	wantBirth := []string{"Birth", "\n", "1563", "London", "England"}
	if !reflect.DeepEqual(res.Birth, wantBirth) {
		t.Errorf("Birth = %q, want %q", res.Birth, wantBirth)
	}
	if !reflect.DeepEqual(res.Group, []string{"England"}) {
		t.Errorf("Group = %q", res.Group)
	}
	if !reflect.DeepEqual(res.Death, []string{"Death", "1626", "London"}) {
		t.Errorf("Death = %q", res.Death)
	}

	_, err = musicalics.Scrape(context.Background(), "Nicolas Vallet")
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("empty search: err = %v, want ErrNoMatch", err)
	}
}

func TestRunAccumulatesPerSource(t *testing.T) {
	srv := newSiteServer(t)
	classical, musicalics := testSources(srv)

	composers := []string{"Nicolas Vallet", "John Dowland", "Broken Search"}
	acc, err := Run(context.Background(), composers, Options{Concurrency: 2}, classical, musicalics)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := acc.Found(ClassicalName); got != 1 {
		t.Errorf("classical found = %d, want 1", got)
	}
	if got := acc.Found(MusicalicsName); got != 1 {
		t.Errorf("musicalics found = %d, want 1", got)
	}

	classicalData := acc.Classical()
	if keys := classicalData.Keys(); !reflect.DeepEqual(keys, []string{"John Dowland"}) {
		t.Errorf("classical keys = %v", keys)
	}

	musicalicsData := acc.Musicalics()
	for name, table := range map[string][]string{
		"birth": musicalicsData.Birth.Keys(),
		"group": musicalicsData.Group.Keys(),
		"death": musicalicsData.Death.Keys(),
	} {
		if !reflect.DeepEqual(table, []string{"John Dowland"}) {
			t.Errorf("musicalics %s keys = %v", name, table)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	srv := newSiteServer(t)
	classical, _ := testSources(srv)

	logger, err := report.NewEventLogger(t.TempDir(), report.LevelInfo)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Run(ctx, []string{"John Dowland"}, Options{Logger: logger}, classical)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	logger.Close()

	data, err := os.ReadFile(logger.Path())
	if err != nil {
		t.Fatalf("failed to read event log: %v", err)
	}
	if !strings.Contains(string(data), `"event":"error"`) || !strings.Contains(string(data), `"source":"classical"`) {
		t.Errorf("expected an error event for the aborted source, log was %q", data)
	}
}
