// Package scrape looks composers up on the two biography sites and collects
// the raw text the parser works on.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/franz/lute-composers/internal/dataset"
	"github.com/franz/lute-composers/internal/report"
	"github.com/franz/lute-composers/internal/util"
	"golang.org/x/sync/errgroup"
)

// ErrNoMatch is returned when no search candidate scores above MatchThreshold
var ErrNoMatch = util.ErrNoMatch

// Result is the raw text scraped for one composer from one source
type Result struct {
	Composer string
	URL      string

	// Biography is filled by the classical source
	Biography string

	// Birth, Group and Death are filled by the musicalics source
	Birth []string
	Group []string
	Death []string
}

// Source is one biography site
type Source interface {
	Name() string
	Scrape(ctx context.Context, composer string) (*Result, error)
}

// Accumulator holds the results of a scrape run. Each source owns one slot
// per composer, so concurrent workers never share a slot.
type Accumulator struct {
	composers []string
	slots     map[string][]*Result
}

// NewAccumulator allocates slots for every composer of every named source
func NewAccumulator(composers []string, sources ...string) *Accumulator {
	acc := &Accumulator{
		composers: composers,
		slots:     make(map[string][]*Result, len(sources)),
	}
	for _, name := range sources {
		acc.slots[name] = make([]*Result, len(composers))
	}
	return acc
}

func (a *Accumulator) put(source string, i int, r *Result) {
	a.slots[source][i] = r
}

// Results returns the non-empty results of a source in composer order
func (a *Accumulator) Results(source string) []*Result {
	var out []*Result
	for _, r := range a.slots[source] {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Found returns how many composers a source produced a result for
func (a *Accumulator) Found(source string) int {
	return len(a.Results(source))
}

// Classical builds the classical blob: composer -> biography line
func (a *Accumulator) Classical() *dataset.ClassicalData {
	data := dataset.NewOrdered[string]()
	for _, r := range a.Results(ClassicalName) {
		data.Set(r.Composer, r.Biography)
	}
	return data
}

// Musicalics builds the musicalics blob: birth/group/death -> composer -> fragments
func (a *Accumulator) Musicalics() *dataset.MusicalicsData {
	data := dataset.NewMusicalicsData()
	for _, r := range a.Results(MusicalicsName) {
		data.Birth.Set(r.Composer, r.Birth)
		data.Group.Set(r.Composer, r.Group)
		data.Death.Set(r.Composer, r.Death)
	}
	return data
}

// Options configures a scrape run
type Options struct {
	// Concurrency is the number of parallel lookups per source
	Concurrency int
	Logger      *report.EventLogger
}

// Run scrapes every composer from every source. Sources run in parallel,
// each with its own concurrency limit. A failed lookup is logged and leaves
// the composer out of that source's results; only cancellation aborts.
func Run(ctx context.Context, composers []string, opts Options, sources ...Source) (*Accumulator, error) {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	acc := NewAccumulator(composers, names...)

	limit := opts.Concurrency
	if limit <= 0 {
		limit = util.DefaultConcurrency()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		src := src
		g.Go(func() error {
			return runSource(gctx, src, composers, limit, acc, opts.Logger)
		})
	}
	if err := g.Wait(); err != nil {
		return acc, err
	}
	return acc, nil
}

func runSource(ctx context.Context, src Source, composers []string, limit int, acc *Accumulator, logger *report.EventLogger) error {
	name := src.Name()
	util.InfoLog("Scraping %d composers from %s", len(composers), name)

	var found, missed, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, composer := range composers {
		i, composer := i, composer
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := src.Scrape(gctx, composer)
			switch {
			case err == nil:
				acc.put(name, i, res)
				found.Add(1)
				util.DebugLog("%s: found %q at %s", name, composer, res.URL)
				logger.LogScrape(name, composer, res.URL, true, nil)
			case errors.Is(err, ErrNoMatch):
				missed.Add(1)
				util.DebugLog("%s: no match for %q", name, composer)
				logger.LogScrape(name, composer, "", false, nil)
			case errors.Is(err, context.Canceled):
				return err
			default:
				failed.Add(1)
				util.WarnLog("%s: failed to scrape %q: %v", name, composer, err)
				logger.LogScrape(name, composer, "", false, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.LogError(name, "", err)
		return fmt.Errorf("%s: %w", name, err)
	}

	util.InfoLog("%s: %d found, %d without match, %d failed",
		name, found.Load(), missed.Load(), failed.Load())
	return nil
}
