package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/lute-composers/internal/dataset"
	"github.com/franz/lute-composers/internal/midi"
	"github.com/franz/lute-composers/internal/store"
	"github.com/franz/lute-composers/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the MIDI files of the lute tablature table",
	Long: `Fetch the URL in the Midi column of every row of lute_data.csv and save
it as <dir>/<row index>.mid, where the row index is the zero-based position
of the row in the full table.

Downloads run on a bounded worker pool. A failed download is logged and
recorded in the state database; it never stops the batch. Re-run with
--skip-existing to fetch only what is missing.`,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().String("input", "", "lute table CSV (default <data-dir>/lute_data.csv)")
	downloadCmd.Flags().String("lute-encoding", "utf-8", "text encoding of the lute table")
	downloadCmd.Flags().String("dir", "midi", "output directory for .mid files")
	downloadCmd.Flags().String("composer", "", "only rows of this composer (exact match)")
	downloadCmd.Flags().Int("limit", 0, "only the first N rows after filtering (0 = all)")
	downloadCmd.Flags().Bool("skip-existing", false, "skip rows whose file already exists")
	downloadCmd.Flags().Bool("network-mode", false, "tune for a network-mounted output directory (default: auto-detect)")
	downloadCmd.Flags().Duration("timeout", 30*time.Second, "per-request timeout")

	bindFlags(downloadCmd, "lute-encoding", "dir")
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	logger := newEventLogger()
	defer logger.Close()

	input, _ := cmd.Flags().GetString("input")
	path := dataPath(input, dataset.LuteFile)
	enc, err := csvEncoding("lute-encoding")
	if err != nil {
		return err
	}

	rows, err := dataset.ReadLuteRows(path, enc)
	if err != nil {
		return failStage(logger, "download", path, fmt.Errorf("failed to read lute table: %w", err))
	}

	composerFilter, _ := cmd.Flags().GetString("composer")
	limit, _ := cmd.Flags().GetInt("limit")
	selected := midi.Filter(rows, composerFilter, limit)
	util.InfoLog("Read %d rows from %s, %d selected", len(rows), path, len(selected))

	dir := GetConfigString("dir", "midi")
	var networkMode *bool
	if cmd.Flags().Changed("network-mode") {
		v, _ := cmd.Flags().GetBool("network-mode")
		networkMode = &v
	}
	tuning := util.TuneForDir(dir, networkMode, util.GetConcurrency())

	dbPath := viper.GetString("db")
	db, err := store.Open(dbPath)
	if err != nil {
		return failStage(logger, "download", dbPath, fmt.Errorf("failed to open database: %w", err))
	}
	defer db.Close()

	timeout, _ := cmd.Flags().GetDuration("timeout")
	skipExisting, _ := cmd.Flags().GetBool("skip-existing")

	downloader := midi.New(&midi.Config{
		Client:       util.NewHTTPClient(timeout),
		Dir:          dir,
		Concurrency:  tuning.Concurrency,
		SkipExisting: skipExisting,
		BufferSize:   tuning.BufferSize,
		Store:        db,
		Logger:       logger,
	})

	start := time.Now()
	result, err := downloader.Download(ctx, selected)
	if err != nil {
		return failStage(logger, "download", dir,
			fmt.Errorf("download interrupted after %d files: %w", result.Processed, err))
	}

	util.InfoLog("")
	util.SuccessLog("=== Download Summary ===")
	util.InfoLog("Total time: %v", time.Since(start).Round(time.Millisecond))
	util.InfoLog("Files processed: %d", result.Processed)
	util.InfoLog("  Succeeded: %d", result.Succeeded)
	util.InfoLog("  Skipped: %d", result.Skipped)
	if result.Failed > 0 {
		util.WarnLog("  Failed: %d", result.Failed)
		shown := 0
		for _, out := range result.Outcomes {
			if out.Err == nil {
				continue
			}
			if shown == 10 {
				util.WarnLog("  ... and %d more errors", result.Failed-shown)
				break
			}
			util.WarnLog("  - row %d: %v", out.Row.Index, out.Err)
			shown++
		}
	}
	util.InfoLog("Bytes written: %s", humanize.Bytes(uint64(result.BytesWritten)))

	if stats, err := db.GetDownloadStats(); err == nil {
		util.InfoLog("Ledger totals: %d downloaded, %d failed, %s",
			stats.Succeeded, stats.Failed, humanize.Bytes(uint64(stats.TotalBytes)))
	}
	if result.Failed > 0 {
		util.InfoLog("To retry failed files: lute download --skip-existing")
	}
	return nil
}
