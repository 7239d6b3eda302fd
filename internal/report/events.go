package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventScrape   EventType = "scrape"
	EventParse    EventType = "parse"
	EventMerge    EventType = "merge"
	EventDownload EventType = "download"
	EventGeocode  EventType = "geocode"
	EventError    EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// ParseLevel maps a level name to an EventLevel, defaulting to info
func ParseLevel(s string) EventLevel {
	level := EventLevel(s)
	if _, ok := levelPriority[level]; ok {
		return level
	}
	return LevelInfo
}

// Event represents a single event of a pipeline run
type Event struct {
	Timestamp time.Time         `json:"ts"`
	RunID     string            `json:"run_id"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	Source    string            `json:"source,omitempty"`
	Composer  string            `json:"composer,omitempty"`
	Item      string            `json:"item,omitempty"`
	Path      string            `json:"path,omitempty"`
	Bytes     int64             `json:"bytes,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"` // in milliseconds
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	runID    string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level.
// Every event it writes carries a fresh run id.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		runID:    uuid.NewString(),
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.RunID = l.runID

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

func levelFor(err error, ok EventLevel) (EventLevel, string) {
	if err != nil {
		return LevelError, err.Error()
	}
	return ok, ""
}

// LogScrape logs the outcome of one composer lookup on one source
func (l *EventLogger) LogScrape(source, composer, url string, found bool, err error) error {
	miss := LevelInfo
	if !found {
		miss = LevelWarning
	}
	level, errMsg := levelFor(err, miss)

	return l.Log(&Event{
		Level:    level,
		Event:    EventScrape,
		Source:   source,
		Composer: composer,
		Item:     url,
		Error:    errMsg,
		Extra: map[string]string{
			"found": strconv.FormatBool(found),
		},
	})
}

// LogParse logs how many fields each source filled for a composer
func (l *EventLogger) LogParse(source, composer string, filled int) error {
	return l.Log(&Event{
		Level:    LevelDebug,
		Event:    EventParse,
		Source:   source,
		Composer: composer,
		Extra: map[string]string{
			"filled": strconv.Itoa(filled),
		},
	})
}

// LogMerge logs one merged composer row
func (l *EventLogger) LogMerge(composer, nationality string) error {
	return l.Log(&Event{
		Level:    LevelDebug,
		Event:    EventMerge,
		Composer: composer,
		Extra: map[string]string{
			"nationality": nationality,
		},
	})
}

// LogDownload logs a MIDI download
func (l *EventLogger) LogDownload(index int, url, path string, bytes int64, duration time.Duration, err error) error {
	level, errMsg := levelFor(err, LevelInfo)

	return l.Log(&Event{
		Level:    level,
		Event:    EventDownload,
		Item:     url,
		Path:     path,
		Bytes:    bytes,
		Duration: duration.Milliseconds(),
		Error:    errMsg,
		Extra: map[string]string{
			"index": strconv.Itoa(index),
		},
	})
}

// LogGeocode logs a town lookup. Coordinates go into Extra because JSON has
// no NaN.
func (l *EventLogger) LogGeocode(town string, longitude, latitude float64, cached bool, err error) error {
	level, errMsg := levelFor(err, LevelInfo)

	return l.Log(&Event{
		Level: level,
		Event: EventGeocode,
		Item:  town,
		Error: errMsg,
		Extra: map[string]string{
			"longitude": strconv.FormatFloat(longitude, 'f', -1, 64),
			"latitude":  strconv.FormatFloat(latitude, 'f', -1, 64),
			"cached":    strconv.FormatBool(cached),
		},
	})
}

// LogError logs a failure that stopped a whole stage (a source, a command)
// rather than a single item
func (l *EventLogger) LogError(stage, item string, err error) error {
	return l.Log(&Event{
		Level:  LevelError,
		Event:  EventError,
		Source: stage,
		Item:   item,
		Error:  err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// RunID returns the id shared by every event of this logger
func (l *EventLogger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
