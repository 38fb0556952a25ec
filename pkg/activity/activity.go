// Package activity implements the Activity Log: a bounded in-memory ring of
// recent tool calls and events for a polling UI (spec §4.B). It is a
// process-local singleton, created once at startup and passed explicitly
// to every component that logs to it.
package activity

import (
	"sync"
	"time"
)

const capacity = 200

// Entry is one activity record. Ids are strictly monotonic and never reused
// for the lifetime of the process (spec §3, §8 invariant 7).
type Entry struct {
	ID        int64          `json:"id"`
	Timestamp time.Time      `json:"ts"`
	EventType string         `json:"event_type"` // tool_call|insight_stored|pattern_stored|analysis|error|minimax
	Source    string         `json:"source"`     // primary|background|system
	Summary   string         `json:"summary"`
	Detail    string         `json:"detail,omitempty"` // truncated to 500 chars
	Metadata  map[string]any `json:"metadata,omitempty"`
}

const maxDetailLen = 500

// Log is a bounded ring buffer of the most recent `capacity` entries.
type Log struct {
	mu      sync.Mutex
	entries []Entry // oldest first
	nextID  int64
}

// New creates an empty Activity Log.
func New() *Log {
	return &Log{entries: make([]Entry, 0, capacity)}
}

// Add appends an entry, assigning it the next monotonic id. When the ring is
// full, the oldest entry is dropped.
func (l *Log) Add(eventType, source, summary, detail string, metadata map[string]any) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	if len(detail) > maxDetailLen {
		detail = detail[:maxDetailLen]
	}
	e := Entry{
		ID:        l.nextID,
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Source:    source,
		Summary:   summary,
		Detail:    detail,
		Metadata:  metadata,
	}

	if len(l.entries) >= capacity {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, e)
	return e
}

// Since returns entries with id > sinceID, newest first, capped at limit.
// limit <= 0 means no cap.
func (l *Log) Since(sinceID int64, limit int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var matched []Entry
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].ID <= sinceID {
			break // ascending ids: everything older also fails the cursor
		}
		matched = append(matched, l.entries[i])
		if limit > 0 && len(matched) >= limit {
			break
		}
	}
	return matched
}

// Count returns the number of entries currently retained (<= capacity).
func (l *Log) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
