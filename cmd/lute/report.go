package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/lute-composers/internal/report"
	"github.com/franz/lute-composers/internal/store"
	"github.com/franz/lute-composers/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a summary report from the database and an event log",
	Long: `Generate a summary report in Markdown format.

The report includes:
- Composer count and nationality breakdown
- MIDI download totals
- Geocoding cache totals
- Event counts and top errors of one run (with --event-log)

The report is saved to <artifacts>/reports/<timestamp>/summary.md`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("out", "", "output directory for report (default: <artifacts>/reports/<timestamp>)")
	reportCmd.Flags().String("event-log", "", "path to an event log file (optional)")
}

func runReport(cmd *cobra.Command, args []string) error {
	dbPath := viper.GetString("db")
	util.InfoLog("=== Generating Summary Report ===")
	util.InfoLog("Database: %s", dbPath)

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	eventLogPath, _ := cmd.Flags().GetString("event-log")
	summary, err := report.GenerateSummaryReport(db, eventLogPath)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	outputDir, _ := cmd.Flags().GetString("out")
	if outputDir == "" {
		timestamp := time.Now().Format("20060102-150405")
		outputDir = filepath.Join(GetConfigString("artifacts", "artifacts"), "reports", timestamp)
	}
	outputPath := filepath.Join(outputDir, "summary.md")

	if err := report.WriteMarkdownReport(summary, outputPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	util.SuccessLog("Report saved to: %s", outputPath)
	util.InfoLog("  Composers: %d", summary.Composers)
	util.InfoLog("  MIDI files: %d (%s)", summary.DownloadsOK, humanize.Bytes(uint64(summary.BytesWritten)))
	if summary.DownloadsFailed > 0 {
		util.WarnLog("  Failed downloads: %d", summary.DownloadsFailed)
	}
	util.InfoLog("  Towns geocoded: %d of %d", summary.TownsFound, summary.TownsCached)
	return nil
}
