// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sink writes projected rows to their destinations and keeps the
// record of every cell the workbook limit clipped.
package sink

import (
	"unicode/utf8"

	"github.com/pdiddy/starter-export/internal/fields"
	"github.com/pdiddy/starter-export/internal/metrics"
	"github.com/pdiddy/starter-export/pkg/types"
)

// Placeholder stands in for empty and null cells so a blank value is
// never confused with a missing one.
const Placeholder = " "

// Truncation lists the records clipped in one column, in first-seen order.
type Truncation struct {
	Column string   `json:"column" yaml:"column"`
	IDs    []string `json:"ids" yaml:"ids"`
}

// Tracker applies the cell size limit and remembers each (column, record)
// pair it clipped. One Tracker is shared by every sheet of a workbook so
// a pair clipped on two sheets is reported once.
type Tracker struct {
	limit   int
	marker  string
	metrics *metrics.Recorder

	order []string
	ids   map[string][]string
	seen  map[string]map[string]bool
}

// NewTracker creates a Tracker enforcing cfg.CellCharLimit.
func NewTracker(cfg types.ExportConfig, m *metrics.Recorder) *Tracker {
	return &Tracker{
		limit:   cfg.CellCharLimit,
		marker:  cfg.TruncationMarker,
		metrics: m,
		ids:     make(map[string][]string),
		seen:    make(map[string]map[string]bool),
	}
}

// Cell returns v as it should be written: empty values become the
// placeholder and text over the limit is clipped and marked.
func (t *Tracker) Cell(column, id string, v any) any {
	if v == nil {
		return Placeholder
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	if s == "" {
		return Placeholder
	}
	clipped, cut := Clip(s, t.limit, t.marker)
	if cut {
		t.record(column, id)
	}
	return clipped
}

// Emit converts a row to cell values in header order.
func (t *Tracker) Emit(row fields.Row, headers []string, id string) []any {
	out := make([]any, len(headers))
	for i, h := range headers {
		out[i] = t.Cell(h, id, row[h])
	}
	return out
}

func (t *Tracker) record(column, id string) {
	byID, ok := t.seen[column]
	if !ok {
		byID = make(map[string]bool)
		t.seen[column] = byID
		t.order = append(t.order, column)
	}
	if byID[id] {
		return
	}
	byID[id] = true
	t.ids[column] = append(t.ids[column], id)
	t.metrics.CellTruncated(column)
}

// Report returns the clipped record ids per column, columns in the order
// their first truncation happened.
func (t *Tracker) Report() []Truncation {
	out := make([]Truncation, 0, len(t.order))
	for _, col := range t.order {
		ids := make([]string, len(t.ids[col]))
		copy(ids, t.ids[col])
		out = append(out, Truncation{Column: col, IDs: ids})
	}
	return out
}

// Clip shortens s to at most limit characters, ending it with marker.
// Text at or under the limit is returned unchanged. A limit of zero or
// less disables clipping. A marker longer than limit is itself clipped.
func Clip(s string, limit int, marker string) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	mr := []rune(marker)
	if len(mr) >= limit {
		return string(mr[:limit]), true
	}
	runes := []rune(s)
	return string(runes[:limit-len(mr)]) + marker, true
}
