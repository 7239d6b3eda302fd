package report

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/franz/lute-composers/internal/composer"
	"github.com/franz/lute-composers/internal/store"
)

func setupTestData(t *testing.T, db *store.Store) {
	t.Helper()

	err := db.ReplaceComposers([]composer.Merged{
		{Composer: "John Dowland", Nationality: "England"},
		{Composer: "Thomas Robinson", Nationality: "England"},
		{Composer: "Francesco da Milano", Nationality: "Italy"},
		{Composer: "Anonymous"},
	})
	if err != nil {
		t.Fatalf("ReplaceComposers failed: %v", err)
	}

	downloads := []*store.Download{
		{RowIndex: 0, URL: "http://x/0.mid", Path: "midi/0.mid", BytesWritten: 1500},
		{RowIndex: 1, URL: "http://x/1.mid", Path: "midi/1.mid", BytesWritten: 500},
		{RowIndex: 2, URL: "http://x/2.mid", Error: "status 404"},
	}
	for _, d := range downloads {
		d.CompletedAt = time.Now()
		if err := db.RecordDownload(d); err != nil {
			t.Fatalf("RecordDownload failed: %v", err)
		}
	}

	geocodes := map[string]*store.GeocodeEntry{
		"london":   {Town: "London", Longitude: -0.12, Latitude: 51.5, Found: true},
		"atlantis": {Town: "Atlantis", Longitude: math.NaN(), Latitude: math.NaN()},
	}
	for key, e := range geocodes {
		if err := db.PutGeocode(key, e); err != nil {
			t.Fatalf("PutGeocode failed: %v", err)
		}
	}
}

func TestGenerateSummaryReport(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	setupTestData(t, db)

	report, err := GenerateSummaryReport(db, "")
	if err != nil {
		t.Fatalf("GenerateSummaryReport failed: %v", err)
	}

	if report.Composers != 4 {
		t.Errorf("Composers = %d, want 4", report.Composers)
	}
	if len(report.Nationalities) != 3 || report.Nationalities[0].Nationality != "England" || report.Nationalities[0].Count != 2 {
		t.Errorf("Nationalities = %+v", report.Nationalities)
	}
	if report.DownloadsOK != 2 || report.DownloadsFailed != 1 || report.BytesWritten != 2000 {
		t.Errorf("downloads = %d ok, %d failed, %d bytes", report.DownloadsOK, report.DownloadsFailed, report.BytesWritten)
	}
	if report.TownsCached != 2 || report.TownsFound != 1 {
		t.Errorf("towns = %d cached, %d found", report.TownsCached, report.TownsFound)
	}
	if len(report.TopErrors) != 1 || report.TopErrors[0].Error != "status 404" {
		t.Errorf("TopErrors = %+v", report.TopErrors)
	}
	if report.GeneratedAt.IsZero() {
		t.Error("Expected GeneratedAt to be set")
	}
}

func TestGenerateSummaryReport_EventLog(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := store.Open(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	logger, err := NewEventLogger(tmpDir, LevelInfo)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	boom := errors.New("status 500")
	logger.LogScrape("classical", "John Dowland", "http://x", true, nil)
	logger.LogScrape("musicalics", "John Dowland", "http://y", false, nil)
	logger.LogDownload(1, "http://x/1.mid", "", 0, time.Second, boom)
	logger.LogDownload(2, "http://x/2.mid", "", 0, time.Second, boom)
	logger.LogGeocode("Atlantis", math.NaN(), math.NaN(), false, errors.New("timeout"))
	logger.Close()

	report, err := GenerateSummaryReport(db, logger.Path())
	if err != nil {
		t.Fatalf("GenerateSummaryReport failed: %v", err)
	}

	if report.RunID != logger.RunID() {
		t.Errorf("RunID = %q, want %q", report.RunID, logger.RunID())
	}
	if report.EventCounts[EventScrape] != 2 || report.EventCounts[EventDownload] != 2 || report.EventCounts[EventGeocode] != 1 {
		t.Errorf("EventCounts = %v", report.EventCounts)
	}
	if report.Warnings != 1 {
		t.Errorf("Warnings = %d, want 1", report.Warnings)
	}
	if len(report.TopErrors) != 2 || report.TopErrors[0].Error != "status 500" || report.TopErrors[0].Count != 2 {
		t.Errorf("TopErrors = %+v", report.TopErrors)
	}
}

func TestGenerateSummaryReport_MissingEventLog(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if _, err := GenerateSummaryReport(db, filepath.Join(t.TempDir(), "nope.jsonl")); err == nil {
		t.Error("expected error for a missing event log")
	}
}

func TestWriteMarkdownReport(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "reports", "summary.md")

	report := &SummaryReport{
		GeneratedAt:     time.Now(),
		DatabasePath:    "/test/lute.db",
		EventLogPath:    "/test/events.jsonl",
		RunID:           "run-1",
		Composers:       120,
		Nationalities:   []store.NationalityCount{{Nationality: "Italy", Count: 50}, {Nationality: "", Count: 7}},
		DownloadsOK:     300,
		DownloadsFailed: 4,
		BytesWritten:    5 * 1000 * 1000,
		TownsCached:     80,
		TownsFound:      75,
		EventCounts:     map[EventType]int{EventDownload: 304, EventGeocode: 80},
		Warnings:        5,
		TopErrors:       []ErrorSummary{{Error: "GET http://x: status 404 Not Found", Count: 4}},
	}

	if err := WriteMarkdownReport(report, outputPath); err != nil {
		t.Fatalf("WriteMarkdownReport failed: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	md := string(content)

	checks := []string{
		"# Lute Composers - Summary Report",
		"## Overview",
		"| Composers | 120 |",
		"| MIDI Downloads Failed | 4 |",
		"| Bytes Written | 5.0 MB |",
		"| Towns Geocoded | 75 of 80 |",
		"| Italy | 50 |",
		"| *unknown* | 7 |",
		"| download | 304 |",
		"| *warnings* | 5 |",
		"## Top Errors",
		"run `run-1`",
	}
	for _, want := range checks {
		if !strings.Contains(md, want) {
			t.Errorf("Report missing %q", want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 20, "short"},
		{"/very/long/path/to/some/file/that/needs/truncation.mid", 30, "/very/long/pa...runcation.mid"},
	}

	for _, tt := range tests {
		got := truncate(tt.input, tt.maxLen)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}
