package main

import (
	"fmt"
	"time"

	"github.com/franz/lute-composers/internal/dataset"
	"github.com/franz/lute-composers/internal/geocode"
	"github.com/franz/lute-composers/internal/store"
	"github.com/franz/lute-composers/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Geocode the birth and death towns of the merged composer table",
	Long: `Collect the distinct towns of merged_parsed_composer_data.csv and look
each one up with the positionstack forward-geocoding API.

The API key comes from --key, the positionstack_key config entry or the
LUTE_POSITIONSTACK_KEY environment variable. A town the API has no result
for is logged as a warning, a failed request as an error; both are written
with empty coordinates. Results are cached in the state database, so a
re-run only queries new towns unless --refresh is given.`,
	RunE: runGeocode,
}

func init() {
	rootCmd.AddCommand(geocodeCmd)

	geocodeCmd.Flags().String("input", "", "merged CSV (default <data-dir>/merged_parsed_composer_data.csv)")
	geocodeCmd.Flags().String("out", "", "town CSV (default <data-dir>/town_coordinates.csv)")
	geocodeCmd.Flags().String("towns-encoding", "utf-8", "text encoding of the town CSV")
	geocodeCmd.Flags().String("key", "", "positionstack access key")
	geocodeCmd.Flags().String("api-url", "", "forward endpoint (default http://api.positionstack.com/v1/forward)")
	geocodeCmd.Flags().Float64("rate", geocode.DefaultRate, "requests per second (< 0 = unlimited)")
	geocodeCmd.Flags().Bool("refresh", false, "ignore cached results")
	geocodeCmd.Flags().Bool("no-cache", false, "neither read nor write the cache")
	geocodeCmd.Flags().Duration("timeout", 30*time.Second, "per-request timeout")

	viper.BindPFlag("positionstack_key", geocodeCmd.Flags().Lookup("key"))
	bindFlags(geocodeCmd, "towns-encoding", "api-url", "rate")
}

func runGeocode(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	logger := newEventLogger()
	defer logger.Close()

	inFlag, _ := cmd.Flags().GetString("input")
	outFlag, _ := cmd.Flags().GetString("out")
	refresh, _ := cmd.Flags().GetBool("refresh")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	mergedEnc, err := csvEncoding("encoding")
	if err != nil {
		return err
	}
	townsEnc, err := csvEncoding("towns-encoding")
	if err != nil {
		return err
	}

	inPath := dataPath(inFlag, dataset.MergedFile)
	records, err := dataset.ReadMerged(inPath, mergedEnc)
	if err != nil {
		return failStage(logger, "geocode", inPath, fmt.Errorf("failed to read merged data: %w", err))
	}
	towns := geocode.CollectTowns(records)

	client, err := geocode.NewClient(geocode.ClientConfig{
		AccessKey:  viper.GetString("positionstack_key"),
		BaseURL:    viper.GetString("api-url"),
		Timeout:    timeout,
		RatePerSec: viper.GetFloat64("rate"),
	})
	if err != nil {
		return failStage(logger, "geocode", "", fmt.Errorf("%w (set --key or LUTE_POSITIONSTACK_KEY)", err))
	}

	var cache *geocode.Cache
	if !noCache {
		dbPath := viper.GetString("db")
		db, err := store.Open(dbPath)
		if err != nil {
			return failStage(logger, "geocode", dbPath, fmt.Errorf("failed to open database: %w", err))
		}
		defer db.Close()
		cache = geocode.NewCache(db)
	}

	geocoder := geocode.New(&geocode.Config{
		Client:  client,
		Cache:   cache,
		Refresh: refresh,
		Logger:  logger,
	})

	coords, err := geocoder.LookupAll(ctx, towns)
	if err != nil {
		util.WarnLog("Geocoding interrupted after %d of %d towns: %v", len(coords), len(towns), err)
		logger.LogError("geocode", "", err)
	}

	outPath := dataPath(outFlag, dataset.TownsFile)
	if werr := geocode.WriteTowns(outPath, townsEnc, coords); werr != nil {
		return failStage(logger, "geocode", outPath, fmt.Errorf("failed to write town coordinates: %w", werr))
	}
	util.SuccessLog("Saved %d town coordinates to %s", len(coords), outPath)
	return err
}
