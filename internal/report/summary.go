package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/lute-composers/internal/store"
)

// SummaryReport is a snapshot of the state database and, optionally, one
// run's event log
type SummaryReport struct {
	GeneratedAt  time.Time
	DatabasePath string
	EventLogPath string

	// Parse/merge results
	Composers     int
	Nationalities []store.NationalityCount

	// Downloads
	DownloadsOK     int
	DownloadsFailed int
	BytesWritten    int64

	// Geocoding
	TownsCached int
	TownsFound  int

	// Event log
	RunID       string
	EventCounts map[EventType]int
	Warnings    int
	TopErrors   []ErrorSummary
}

// ErrorSummary represents an error with its count
type ErrorSummary struct {
	Error string
	Count int
}

// GenerateSummaryReport gathers statistics from the database and, when
// eventLogPath is set, from that event log.
func GenerateSummaryReport(db *store.Store, eventLogPath string) (*SummaryReport, error) {
	report := &SummaryReport{
		GeneratedAt:  time.Now(),
		DatabasePath: db.Path(),
		EventLogPath: eventLogPath,
		EventCounts:  make(map[EventType]int),
	}

	var err error
	if report.Composers, err = db.CountComposers(); err != nil {
		return nil, fmt.Errorf("failed to count composers: %w", err)
	}
	if report.Nationalities, err = db.CountByNationality(); err != nil {
		return nil, fmt.Errorf("failed to count nationalities: %w", err)
	}

	stats, err := db.GetDownloadStats()
	if err != nil {
		return nil, fmt.Errorf("failed to get download stats: %w", err)
	}
	report.DownloadsOK = stats.Succeeded
	report.DownloadsFailed = stats.Failed
	report.BytesWritten = stats.TotalBytes

	if report.TownsCached, report.TownsFound, err = db.CountGeocodes(); err != nil {
		return nil, fmt.Errorf("failed to count geocodes: %w", err)
	}

	if eventLogPath != "" {
		if err := report.readEventLog(eventLogPath, 10); err != nil {
			return nil, err
		}
	} else {
		top, err := db.TopDownloadErrors(10)
		if err != nil {
			return nil, fmt.Errorf("failed to get download errors: %w", err)
		}
		for _, ec := range top {
			report.TopErrors = append(report.TopErrors, ErrorSummary{Error: ec.Error, Count: ec.Count})
		}
	}

	return report, nil
}

// readEventLog counts events by type and collects the most common errors
func (r *SummaryReport) readEventLog(path string, limit int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	errorCounts := make(map[string]int)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue // partial last line of an interrupted run
		}
		if r.RunID == "" {
			r.RunID = e.RunID
		}
		r.EventCounts[e.Event]++
		switch e.Level {
		case LevelWarning:
			r.Warnings++
		case LevelError:
			if e.Error != "" {
				errorCounts[e.Error]++
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read event log: %w", err)
	}

	r.TopErrors = topErrors(errorCounts, limit)
	return nil
}

func topErrors(counts map[string]int, limit int) []ErrorSummary {
	errors := make([]ErrorSummary, 0, len(counts))
	for err, count := range counts {
		errors = append(errors, ErrorSummary{Error: err, Count: count})
	}

	sort.Slice(errors, func(i, j int) bool {
		if errors[i].Count != errors[j].Count {
			return errors[i].Count > errors[j].Count
		}
		return errors[i].Error < errors[j].Error
	})

	if len(errors) > limit {
		errors = errors[:limit]
	}
	return errors
}

// WriteMarkdownReport writes the summary report as Markdown
func WriteMarkdownReport(report *SummaryReport, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var md strings.Builder

	md.WriteString("# Lute Composers - Summary Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))
	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`", report.EventLogPath))
		if report.RunID != "" {
			md.WriteString(fmt.Sprintf(" (run `%s`)", report.RunID))
		}
		md.WriteString("\n\n")
	}
	md.WriteString("---\n\n")

	md.WriteString("## Overview\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Composers | %d |\n", report.Composers))
	md.WriteString(fmt.Sprintf("| MIDI Files Downloaded | %d |\n", report.DownloadsOK))
	if report.DownloadsFailed > 0 {
		md.WriteString(fmt.Sprintf("| MIDI Downloads Failed | %d |\n", report.DownloadsFailed))
	}
	md.WriteString(fmt.Sprintf("| Bytes Written | %s |\n", humanize.Bytes(uint64(report.BytesWritten))))
	md.WriteString(fmt.Sprintf("| Towns Geocoded | %d of %d |\n", report.TownsFound, report.TownsCached))
	md.WriteString("\n")

	if len(report.Nationalities) > 0 {
		md.WriteString("## Nationalities\n\n")
		md.WriteString("| Nationality | Composers |\n")
		md.WriteString("|-------------|-----------|\n")
		for _, nc := range report.Nationalities {
			name := nc.Nationality
			if name == "" {
				name = "*unknown*"
			}
			md.WriteString(fmt.Sprintf("| %s | %d |\n", name, nc.Count))
		}
		md.WriteString("\n")
	}

	if len(report.EventCounts) > 0 {
		md.WriteString("## Events\n\n")
		md.WriteString("| Event | Count |\n")
		md.WriteString("|-------|-------|\n")
		types := make([]string, 0, len(report.EventCounts))
		for t := range report.EventCounts {
			types = append(types, string(t))
		}
		sort.Strings(types)
		for _, t := range types {
			md.WriteString(fmt.Sprintf("| %s | %d |\n", t, report.EventCounts[EventType(t)]))
		}
		if report.Warnings > 0 {
			md.WriteString(fmt.Sprintf("| *warnings* | %d |\n", report.Warnings))
		}
		md.WriteString("\n")
	}

	if len(report.TopErrors) > 0 {
		md.WriteString("## Top Errors\n\n")
		md.WriteString("| Count | Error |\n")
		md.WriteString("|-------|-------|\n")
		for _, e := range report.TopErrors {
			md.WriteString(fmt.Sprintf("| %d | %s |\n", e.Count, truncate(e.Error, 120)))
		}
		md.WriteString("\n")
	}

	md.WriteString("---\n\n")
	md.WriteString("*Generated by lute*\n")

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// truncate shortens s from the middle, keeping start and end
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	start := maxLen/2 - 2
	end := len(s) - (maxLen/2 - 2)
	return s[:start] + "..." + s[end:]
}
