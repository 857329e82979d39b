package core

import (
	"sync"
	"time"
)

// DefaultHistorySize bounds the transition log when no size is configured.
const DefaultHistorySize = 64

// TransitionRecord describes one state entry.
type TransitionRecord struct {
	Seq       uint64    `json:"seq" yaml:"seq"`
	From      string    `json:"from,omitempty" yaml:"from,omitempty"`
	To        string    `json:"to" yaml:"to"`
	Event     string    `json:"event,omitempty" yaml:"event,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// History is a ring buffer of the most recent TransitionRecords.
// Thread-safe for concurrent access.
type History struct {
	mu      sync.RWMutex
	records []TransitionRecord
	next    int
	full    bool
}

// NewHistory creates a History holding at most size records.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{records: make([]TransitionRecord, size)}
}

// Record appends a record, evicting the oldest when full.
func (h *History) Record(r TransitionRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records[h.next] = r
	h.next = (h.next + 1) % len(h.records)
	if h.next == 0 {
		h.full = true
	}
}

// Records returns the retained records, oldest first.
func (h *History) Records() []TransitionRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.full {
		return append([]TransitionRecord(nil), h.records[:h.next]...)
	}
	out := make([]TransitionRecord, 0, len(h.records))
	out = append(out, h.records[h.next:]...)
	return append(out, h.records[:h.next]...)
}

// Path returns the visited state names, oldest first.
func (h *History) Path() []string {
	records := h.Records()
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.To)
	}
	return out
}
