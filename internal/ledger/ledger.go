// Package ledger keeps the searchable history of completed fan-out
// batches. Entries are front-inserted so the natural order is
// most-recent-first; nothing re-sorts them. The collection is owned and
// serialized by the orchestrator.
package ledger

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/fanout-cli/internal/model"
)

var fold = cases.Fold()

// Ledger is the append-only (front-inserted), user-deletable history.
type Ledger struct {
	entries []model.HistoryEntry
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Record inserts an entry at the front.
func (l *Ledger) Record(entry model.HistoryEntry) {
	l.entries = append([]model.HistoryEntry{entry}, l.entries...)
}

// Remove deletes one entry by id.
func (l *Ledger) Remove(id string) bool {
	for i, e := range l.entries {
		if e.ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

// SetTags replaces an entry's tag set.
func (l *Ledger) SetTags(id string, tags []string) bool {
	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries[i].Tags = append([]string(nil), tags...)
			return true
		}
	}
	return false
}

// List returns all entries, most recent first.
func (l *Ledger) List() []model.HistoryEntry {
	return append([]model.HistoryEntry(nil), l.entries...)
}

// Len returns the entry count.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Search filters the ledger without mutating it, preserving ledger order.
// An entry matches when the query (case-folded substring) hits its prompt,
// any tag, or any provider identity, and when the entry carries the
// selected tag. Empty query and tag are identity filters. The result is
// recomputed from scratch on every call; the ledger is bounded by local
// session history, so no index is kept.
func (l *Ledger) Search(query, tag string) []model.HistoryEntry {
	query = fold.String(strings.TrimSpace(query))

	out := make([]model.HistoryEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if !matchesQuery(e, query) {
			continue
		}
		if tag != "" && !hasTag(e, tag) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchesQuery(e model.HistoryEntry, foldedQuery string) bool {
	if foldedQuery == "" {
		return true
	}
	if strings.Contains(fold.String(e.Prompt), foldedQuery) {
		return true
	}
	for _, t := range e.Tags {
		if strings.Contains(fold.String(t), foldedQuery) {
			return true
		}
	}
	for _, p := range e.Providers {
		if strings.Contains(fold.String(p.String()), foldedQuery) {
			return true
		}
	}
	return false
}

func hasTag(e model.HistoryEntry, tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
