package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func readEvents(t *testing.T, path string) []Event {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var decoded Event
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("Failed to decode line %d: %v", len(events)+1, err)
		}
		events = append(events, decoded)
	}
	return events
}

func TestNewEventLogger(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(logger.Path()); os.IsNotExist(err) {
		t.Errorf("Event log file was not created at %s", logger.Path())
	}

	filename := filepath.Base(logger.Path())
	if len(filename) < len("events-20060102-150405.jsonl") {
		t.Errorf("Event log filename format incorrect: %s", filename)
	}

	if logger.RunID() == "" {
		t.Error("RunID is empty")
	}
}

func TestEventLogger_MultipleEventsShareRunID(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	events := []*Event{
		{Level: LevelInfo, Event: EventScrape, Source: "classical", Composer: "John Dowland"},
		{Level: LevelDebug, Event: EventParse, Composer: "John Dowland"},
		{Level: LevelWarning, Event: EventGeocode, Item: "Pressburg"},
		{Level: LevelError, Event: EventError, Item: "lute_data.csv", Error: "test error"},
	}
	for _, event := range events {
		if err := logger.Log(event); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}
	logger.Close()

	decoded := readEvents(t, logger.Path())
	if len(decoded) != len(events) {
		t.Fatalf("Expected %d events, got %d", len(events), len(decoded))
	}
	for i, event := range decoded {
		if event.Timestamp.IsZero() {
			t.Errorf("Line %d: timestamp not set", i+1)
		}
		if event.RunID != logger.RunID() {
			t.Errorf("Line %d: run_id = %q, want %q", i+1, event.RunID, logger.RunID())
		}
	}
}

func TestEventLogger_MinLevel(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelWarning)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	logger.LogParse("classical", "John Dowland", 6)
	logger.LogMerge("John Dowland", "England")
	logger.LogScrape("musicalics", "Nobody", "", false, nil)
	logger.Close()

	decoded := readEvents(t, logger.Path())
	if len(decoded) != 1 {
		t.Fatalf("Expected only the warning event, got %d events", len(decoded))
	}
	if decoded[0].Event != EventScrape || decoded[0].Level != LevelWarning {
		t.Errorf("unexpected event %+v", decoded[0])
	}
}

func TestEventLogger_LogError(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelWarning)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	logger.LogError("geocode", "data/merged_parsed_composer_data.csv", errors.New("file not found"))
	logger.Close()

	decoded := readEvents(t, logger.Path())
	if len(decoded) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(decoded))
	}
	e := decoded[0]
	if e.Event != EventError || e.Level != LevelError {
		t.Errorf("event = %s/%s, want error/error", e.Event, e.Level)
	}
	if e.Source != "geocode" || e.Item != "data/merged_parsed_composer_data.csv" || e.Error != "file not found" {
		t.Errorf("unexpected event %+v", e)
	}
}

func TestEventLogger_ConcurrentWrites(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	const numGoroutines = 10
	const eventsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				if err := logger.LogDownload(id*eventsPerGoroutine+j, "http://example.com/a.mid", "midi/a.mid", 10, time.Millisecond, nil); err != nil {
					t.Errorf("Concurrent log failed: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()
	logger.Close()

	if got := len(readEvents(t, logger.Path())); got != numGoroutines*eventsPerGoroutine {
		t.Errorf("Expected %d events, got %d", numGoroutines*eventsPerGoroutine, got)
	}
}

func TestEventLogger_LogDownload(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	duration := 250 * time.Millisecond
	if err := logger.LogDownload(7, "http://example.com/7.mid", "midi/7.mid", 4096, duration, nil); err != nil {
		t.Fatalf("LogDownload failed: %v", err)
	}
	if err := logger.LogDownload(8, "http://example.com/8.mid", "", 0, 0, errors.New("status 404")); err != nil {
		t.Fatalf("LogDownload failed: %v", err)
	}
	logger.Close()

	decoded := readEvents(t, logger.Path())
	if len(decoded) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(decoded))
	}

	ok := decoded[0]
	if ok.Event != EventDownload || ok.Level != LevelInfo {
		t.Errorf("unexpected success event %+v", ok)
	}
	if ok.Bytes != 4096 || ok.Path != "midi/7.mid" || ok.Extra["index"] != "7" {
		t.Errorf("unexpected success fields %+v", ok)
	}
	if ok.Duration != duration.Milliseconds() {
		t.Errorf("Expected duration %d ms, got %d ms", duration.Milliseconds(), ok.Duration)
	}

	failed := decoded[1]
	if failed.Level != LevelError || failed.Error == "" {
		t.Errorf("unexpected failure event %+v", failed)
	}
}

func TestEventLogger_LogGeocodeNaN(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	if err := logger.LogGeocode("Atlantis", math.NaN(), math.NaN(), false, nil); err != nil {
		t.Fatalf("LogGeocode with NaN failed: %v", err)
	}
	if err := logger.LogGeocode("London", -0.1276, 51.5072, true, nil); err != nil {
		t.Fatalf("LogGeocode failed: %v", err)
	}
	logger.Close()

	decoded := readEvents(t, logger.Path())
	if len(decoded) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(decoded))
	}
	if decoded[0].Extra["longitude"] != "NaN" {
		t.Errorf("longitude = %q, want NaN", decoded[0].Extra["longitude"])
	}
	if decoded[1].Extra["latitude"] != "51.5072" || decoded[1].Extra["cached"] != "true" {
		t.Errorf("unexpected extra %v", decoded[1].Extra)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]EventLevel{
		"debug":   LevelDebug,
		"warning": LevelWarning,
		"error":   LevelError,
		"":        LevelInfo,
		"loud":    LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEventLogger_NullLogger(t *testing.T) {
	logger := NullLogger()

	if err := logger.Log(&Event{Level: LevelInfo, Event: EventScrape}); err != nil {
		t.Errorf("NullLogger.Log should not return error, got: %v", err)
	}
	if err := logger.LogScrape("classical", "x", "", true, nil); err != nil {
		t.Errorf("NullLogger.LogScrape should not return error, got: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("NullLogger.Close should not return error, got: %v", err)
	}
	if path := logger.Path(); path != "" {
		t.Errorf("NullLogger.Path should return empty string, got: %s", path)
	}
	if id := logger.RunID(); id != "" {
		t.Errorf("NullLogger.RunID should return empty string, got: %s", id)
	}
}
