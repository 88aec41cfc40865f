// Package diaglog provides the process-wide diagnostic log: an append-only,
// session-correlated sequence of structured records with capped retention,
// level/component filtering and JSON export. It is diagnostic storage, not
// audit-grade: nothing persists across restarts.
//
// Every record can optionally be mirrored to a log/slog handler so
// deployments that already ship structured logs get the diagnostic stream
// for free.
package diaglog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level ranks record severity.
type Level int

// Log levels ordered by increasing severity.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the canonical upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a canonical level name back to its Level. The boolean is
// false for unknown names.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	}
	return 0, false
}

// MarshalJSON encodes the level as its canonical name.
func (l Level) MarshalJSON() ([]byte, error) { return json.Marshal(l.String()) }

// UnmarshalJSON decodes a canonical level name.
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	lv, ok := ParseLevel(s)
	if !ok {
		return fmt.Errorf("diaglog: unknown level %q", s)
	}
	*l = lv
	return nil
}

// Record is one diagnostic event.
type Record struct {
	Level     Level     `json:"level"`
	Component string    `json:"component"`
	Function  string    `json:"function"`
	Message   string    `json:"message"`
	Data      *Payload  `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
}

// Filter narrows Logs results. Zero values mean "no constraint".
type Filter struct {
	Level     *Level
	Component string
}

// DefaultMaxRecords caps in-memory retention; the oldest records are
// trimmed first once the cap is reached.
const DefaultMaxRecords = 1000

// Logger is the diagnostic record store. Construct with New; the zero value
// is not usable.
type Logger struct {
	mu        sync.Mutex
	records   []Record
	sessionID string
	max       int
	mirror    *slog.Logger
	nowFn     func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

// WithMaxRecords overrides the retention cap.
func WithMaxRecords(n int) Option {
	return func(l *Logger) {
		if n > 0 {
			l.max = n
		}
	}
}

// WithMirror mirrors every record to the given slog logger.
func WithMirror(logger *slog.Logger) Option {
	return func(l *Logger) { l.mirror = logger }
}

func withNow(fn func() time.Time) Option {
	return func(l *Logger) { l.nowFn = fn }
}

// New constructs a logger with a freshly generated session identifier.
func New(opts ...Option) *Logger {
	l := &Logger{
		sessionID: uuid.NewString(),
		max:       DefaultMaxRecords,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SessionID returns the identifier attached to every record emitted by this
// logger instance.
func (l *Logger) SessionID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionID
}

// Reset clears all retained records and issues a fresh session identifier.
// Intended for test isolation.
func (l *Logger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
	l.sessionID = uuid.NewString()
}

func (l *Logger) append(level Level, component, function, message string, data *Payload) {
	l.mu.Lock()
	rec := Record{
		Level:     level,
		Component: component,
		Function:  function,
		Message:   message,
		Data:      data,
		Timestamp: l.nowFn(),
		SessionID: l.sessionID,
	}
	l.records = append(l.records, rec)
	if len(l.records) > l.max {
		l.records = l.records[len(l.records)-l.max:]
	}
	mirror := l.mirror
	l.mu.Unlock()

	if mirror != nil {
		attrs := []any{
			slog.String("component", rec.Component),
			slog.String("function", rec.Function),
			slog.String("session_id", rec.SessionID),
		}
		if rec.Data != nil {
			attrs = append(attrs, slog.Any("data", rec.Data))
		}
		mirror.Log(context.Background(), slogLevel(level), rec.Message, attrs...)
	}
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func first(data []*Payload) *Payload {
	if len(data) == 0 {
		return nil
	}
	return data[0]
}

// Debug appends a DEBUG record.
func (l *Logger) Debug(component, function, message string, data ...*Payload) {
	l.append(LevelDebug, component, function, message, first(data))
}

// Info appends an INFO record.
func (l *Logger) Info(component, function, message string, data ...*Payload) {
	l.append(LevelInfo, component, function, message, first(data))
}

// Warn appends a WARN record.
func (l *Logger) Warn(component, function, message string, data ...*Payload) {
	l.append(LevelWarn, component, function, message, first(data))
}

// Error appends an ERROR record.
func (l *Logger) Error(component, function, message string, data ...*Payload) {
	l.append(LevelError, component, function, message, first(data))
}

// TrackUserAction records a user interaction at INFO level with a
// standardized payload shape.
func (l *Logger) TrackUserAction(component, action string, detail map[string]any) {
	l.append(LevelInfo, component, "trackUserAction",
		fmt.Sprintf("user action: %s", action), UserAction(action, detail))
}

// TrackNavigation records a page transition, logging the previous and next
// identifiers.
func (l *Logger) TrackNavigation(previous, next string) {
	l.append(LevelInfo, "navigation", "trackNavigation",
		fmt.Sprintf("navigate %s -> %s", previous, next), Navigation(previous, next))
}

// TrackWorkflow records a workflow milestone at INFO level.
func (l *Logger) TrackWorkflow(component, workflow, step string, detail map[string]any) {
	l.append(LevelInfo, component, "trackWorkflow",
		fmt.Sprintf("workflow %s: %s", workflow, step), Workflow(workflow, step, detail))
}

// TrackDataOperation records a service-level entity mutation at INFO level.
func (l *Logger) TrackDataOperation(component, operation, entity, id string) {
	l.append(LevelInfo, component, "trackDataOperation",
		fmt.Sprintf("%s %s %s", operation, entity, id), DataOperation(operation, entity, id))
}

// Logs returns retained records honoring the filter, in insertion order.
func (l *Logger) Logs(filter Filter) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, 0, len(l.records))
	for _, rec := range l.records {
		if filter.Level != nil && rec.Level != *filter.Level {
			continue
		}
		if filter.Component != "" && rec.Component != filter.Component {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Len reports the number of retained records.
func (l *Logger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Clear empties the retained record sequence. Already-exported snapshots
// are unaffected.
func (l *Logger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}

// exportDocument is the serialized export envelope.
type exportDocument struct {
	SessionID  string    `json:"session_id"`
	ExportedAt time.Time `json:"exported_at"`
	Records    []Record  `json:"records"`
}

// Export serializes the full retained record sequence, independent of any
// filter, to a re-parseable JSON document.
func (l *Logger) Export() ([]byte, error) {
	l.mu.Lock()
	doc := exportDocument{
		SessionID:  l.sessionID,
		ExportedAt: l.nowFn(),
		Records:    append([]Record(nil), l.records...),
	}
	l.mu.Unlock()
	return json.MarshalIndent(doc, "", "  ")
}

// ParseExport decodes an Export document back into its record sequence.
func ParseExport(data []byte) ([]Record, error) {
	var doc exportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("diaglog: parse export: %w", err)
	}
	return doc.Records, nil
}

// ExportFilename returns the download filename convention with the current
// ISO date embedded.
func (l *Logger) ExportFilename() string {
	return fmt.Sprintf("diagnostics-%s.json", l.nowFn().Format("2006-01-02"))
}
