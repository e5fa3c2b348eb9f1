package lg

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one executed command.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	Timestamp time.Time `json:"timestamp"`
}

// History is an unbounded, append-only log of executed commands.
// It is safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	entries []HistoryEntry // oldest first
	now     func() time.Time
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{now: time.Now}
}

// Record appends a command label and returns the new entry. IDs are
// time-ordered UUIDs, so they sort in creation order.
func (h *History) Record(command string) HistoryEntry {
	e := HistoryEntry{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Command:   command,
		Timestamp: h.now(),
	}
	h.mu.Lock()
	h.entries = append(h.entries, e)
	h.mu.Unlock()
	return e
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Get returns the nth most recent entry (0 = most recent).
func (h *History) Get(n int) (HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n < 0 || n >= len(h.entries) {
		return HistoryEntry{}, fmt.Errorf("history %d: no such entry (have %d entries)", n, len(h.entries))
	}
	return h.entries[len(h.entries)-1-n], nil
}

// List returns all entries, most recent first.
func (h *History) List() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]HistoryEntry, len(h.entries))
	for i, e := range h.entries {
		result[len(h.entries)-1-i] = e
	}
	return result
}

// Selection is the part of the operator's selection recoverable from a
// history label. An empty Family means the label did not carry a usable one.
type Selection struct {
	Family    Family
	CommandID string
	Argument  string
}

// Replay maps a history label back to a selection.
//
// Only two command families are recognized: labels whose command starts
// with "show protocols" select CmdShowProtocols and labels starting with
// "show route" select CmdShowRoute, with the rest of the text as the
// argument. Sub-variants such as "for", "all" or "(bgpmap)" are not
// recovered and end up in the argument. ok is false when nothing maps.
func Replay(label string) (sel Selection, ok bool) {
	head, rest, found := strings.Cut(label, ": ")
	if !found {
		return Selection{}, false
	}
	if _, after, hasSlash := strings.Cut(head, "/"); hasSlash {
		name, _, _ := strings.Cut(after, "/")
		if f, err := ParseFamily(name); err == nil {
			sel.Family = f
		}
	}

	switch {
	case strings.HasPrefix(rest, CmdShowProtocols):
		sel.CommandID = CmdShowProtocols
		sel.Argument = strings.TrimSpace(strings.TrimPrefix(rest, CmdShowProtocols))
	case strings.HasPrefix(rest, CmdShowRoute):
		sel.CommandID = CmdShowRoute
		sel.Argument = strings.TrimSpace(strings.TrimPrefix(rest, CmdShowRoute))
	default:
		return Selection{}, false
	}
	return sel, true
}
