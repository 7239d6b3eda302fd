package main

import (
	"fmt"
	"time"

	"github.com/franz/lute-composers/internal/dataset"
	"github.com/franz/lute-composers/internal/scrape"
	"github.com/franz/lute-composers/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape composer biographies from the classical and musicalics sites",
	Long: `Look up every composer on both biography sites and save the raw text.

Composers come from --composer flags or, when none are given, from the
cleaned_name column of the composer list CSV. For each composer the site
search is queried and the closest search hit (fuzzy score above 90) is
followed. Lookups that fail or find nothing are logged and skipped.

Output:
  composer_data_classical.json   composer -> biography line
  composer_data_musicalics.json  birth/group/death -> composer -> text fragments`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringSlice("composer", nil, "composer to scrape (repeatable; default: the composer list)")
	scrapeCmd.Flags().String("composers-file", "", "composer list CSV (default <data-dir>/cleaned_composers.csv)")
	scrapeCmd.Flags().String("column", "cleaned_name", "composer name column of the list")
	scrapeCmd.Flags().StringSlice("source", []string{scrape.ClassicalName, scrape.MusicalicsName}, "sources to scrape")
	scrapeCmd.Flags().String("classical-url", "", "classical search URL prefix (default freefind search)")
	scrapeCmd.Flags().String("musicalics-url", "", "musicalics site URL (default https://musicalics.com)")
	scrapeCmd.Flags().Duration("timeout", 30*time.Second, "per-request timeout")

	bindFlags(scrapeCmd, "classical-url", "musicalics-url")
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	composers, err := scrapeComposers(cmd)
	if err != nil {
		return err
	}
	if len(composers) == 0 {
		util.WarnLog("No composers to scrape")
		return nil
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	client := util.NewHTTPClient(timeout)
	retry := util.DefaultRetryConfig()

	names, _ := cmd.Flags().GetStringSlice("source")
	var sources []scrape.Source
	for _, name := range names {
		switch name {
		case scrape.ClassicalName:
			sources = append(sources, scrape.NewClassicalSource(client, viper.GetString("classical-url"), retry))
		case scrape.MusicalicsName:
			sources = append(sources, scrape.NewMusicalicsSource(client, viper.GetString("musicalics-url"), retry))
		default:
			return fmt.Errorf("%w: unknown source %q", util.ErrInvalidConfig, name)
		}
	}

	logger := newEventLogger()
	defer logger.Close()

	util.InfoLog("=== Scraping %d composers ===", len(composers))
	start := time.Now()

	acc, err := scrape.Run(ctx, composers, scrape.Options{
		Concurrency: util.GetConcurrency(),
		Logger:      logger,
	}, sources...)
	if err != nil {
		return failStage(logger, "scrape", "", fmt.Errorf("scrape interrupted: %w", err))
	}

	for _, src := range sources {
		var path string
		var blob any
		switch src.Name() {
		case scrape.ClassicalName:
			path, blob = dataPath("", dataset.ClassicalFile), acc.Classical()
		case scrape.MusicalicsName:
			path, blob = dataPath("", dataset.MusicalicsFile), acc.Musicalics()
		}
		if err := dataset.WriteJSON(path, blob); err != nil {
			return failStage(logger, "scrape", path, fmt.Errorf("failed to write %s data: %w", src.Name(), err))
		}
		util.SuccessLog("%s: %d of %d composers found, saved to %s",
			src.Name(), acc.Found(src.Name()), len(composers), path)
	}

	util.InfoLog("Total time: %v", time.Since(start).Round(time.Millisecond))
	return nil
}

// scrapeComposers returns the --composer flags, or the composer list CSV
func scrapeComposers(cmd *cobra.Command) ([]string, error) {
	if names, _ := cmd.Flags().GetStringSlice("composer"); len(names) > 0 {
		return names, nil
	}

	file, _ := cmd.Flags().GetString("composers-file")
	path := dataPath(file, dataset.ComposersFile)
	column, _ := cmd.Flags().GetString("column")

	enc, err := csvEncoding("encoding")
	if err != nil {
		return nil, err
	}

	composers, err := dataset.ReadComposerList(path, enc, column)
	if err != nil {
		return nil, fmt.Errorf("failed to read composer list: %w", err)
	}
	util.InfoLog("Read %d composers from %s", len(composers), path)
	return composers, nil
}
