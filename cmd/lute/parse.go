package main

import (
	"fmt"

	"github.com/franz/lute-composers/internal/dataset"
	"github.com/franz/lute-composers/internal/merge"
	"github.com/franz/lute-composers/internal/parse"
	"github.com/franz/lute-composers/internal/scrape"
	"github.com/franz/lute-composers/internal/store"
	"github.com/franz/lute-composers/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse the scraped biographies and merge both sources into one CSV",
	Long: `Extract birth and death years, towns and countries from the scraped text
of both sources and merge them into merged_parsed_composer_data.csv.

Every composer of the classical data gets one row. Each field takes the
musicalics value when known, else the classical value. Nationality is the
musicalics group country, else the classical birth country, else the
classical death country. Text that cannot be parsed leaves the field empty.

The merged table is also stored in the state database for 'lute show'.`,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().String("classical", "", "classical JSON (default <data-dir>/composer_data_classical.json)")
	parseCmd.Flags().String("musicalics", "", "musicalics JSON (default <data-dir>/composer_data_musicalics.json)")
	parseCmd.Flags().String("out", "", "merged CSV (default <data-dir>/merged_parsed_composer_data.csv)")
	parseCmd.Flags().Bool("no-db", false, "do not store the merged table in the state database")
}

func runParse(cmd *cobra.Command, args []string) error {
	classicalFlag, _ := cmd.Flags().GetString("classical")
	musicalicsFlag, _ := cmd.Flags().GetString("musicalics")
	outFlag, _ := cmd.Flags().GetString("out")
	noDB, _ := cmd.Flags().GetBool("no-db")

	enc, err := csvEncoding("encoding")
	if err != nil {
		return err
	}

	classicalPath := dataPath(classicalFlag, dataset.ClassicalFile)
	classical, err := dataset.ReadClassical(classicalPath)
	if err != nil {
		return fmt.Errorf("failed to read classical data: %w", err)
	}
	musicalicsPath := dataPath(musicalicsFlag, dataset.MusicalicsFile)
	musicalics, err := dataset.ReadMusicalics(musicalicsPath)
	if err != nil {
		return fmt.Errorf("failed to read musicalics data: %w", err)
	}
	util.InfoLog("Read %d classical and %d musicalics composers",
		classical.Len(), musicalics.Birth.Len())

	logger := newEventLogger()
	defer logger.Close()

	tables := parse.BuildTables(classical, musicalics)
	if tables.Skipped > 0 {
		util.InfoLog("Skipped %d musicalics entries without a classical entry", tables.Skipped)
	}
	for _, name := range tables.Order {
		a, b := tables.Classical[name], tables.Musicalics[name]
		logger.LogParse(scrape.ClassicalName, name, a.Filled())
		logger.LogParse(scrape.MusicalicsName, name, b.Filled())
	}

	merged, stats := merge.Merge(tables.Order, tables.Classical, tables.Musicalics)
	for _, m := range merged {
		logger.LogMerge(m.Composer, m.Nationality)
	}

	outPath := dataPath(outFlag, dataset.MergedFile)
	if err := dataset.WriteMerged(outPath, enc, merged); err != nil {
		return failStage(logger, "parse", outPath, fmt.Errorf("failed to write merged data: %w", err))
	}

	if !noDB {
		dbPath := viper.GetString("db")
		db, err := store.Open(dbPath)
		if err != nil {
			return failStage(logger, "parse", dbPath, fmt.Errorf("failed to open database: %w", err))
		}
		defer db.Close()
		if err := db.ReplaceComposers(merged); err != nil {
			return failStage(logger, "parse", dbPath, fmt.Errorf("failed to store merged data: %w", err))
		}
	}

	util.InfoLog("")
	util.SuccessLog("=== Merge Summary ===")
	util.InfoLog("Composers: %d", stats.Rows)
	util.InfoLog("Fields from musicalics: %d", stats.Musicalics)
	util.InfoLog("Fields from classical: %d", stats.Classical)
	util.InfoLog("Fields unknown: %d", stats.Unknown)
	util.InfoLog("Nationality: %d group, %d birth country, %d death country, %d unknown",
		stats.NationalityGroup, stats.NationalityBirthCountry, stats.NationalityDeathCountry, stats.NationalityUnknown)
	util.SuccessLog("Saved merged data to %s", outPath)
	return nil
}
