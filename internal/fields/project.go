// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fields

import (
	"cmp"
	"slices"

	"github.com/rs/zerolog"

	"github.com/pdiddy/starter-export/pkg/types"
)

// Row maps every column of a schema to its cell value. Cells hold a
// string, int64, float64, bool, or nil.
type Row map[string]any

// Projector builds rows for one schema.
type Projector struct {
	Columns []Column
	Logger  zerolog.Logger
}

// NewProjector resolves headers against reg.
func NewProjector(reg *Registry, headers []string, logger zerolog.Logger) *Projector {
	return &Projector{Columns: reg.Columns(headers), Logger: logger}
}

// Headers returns the schema in column order.
func (p *Projector) Headers() []string {
	out := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		out[i] = c.Name
	}
	return out
}

// Project returns a row holding a value for every column. An extractor
// that panics contributes an empty cell and the rest of the row is kept.
func (p *Projector) Project(r types.Record) Row {
	row := make(Row, len(p.Columns))
	for _, c := range p.Columns {
		v, err := c.Value(r)
		if err != nil {
			p.Logger.Debug().Str("uid", r.UID()).Str("column", c.Name).Err(err).Msg("extraction failed")
		}
		row[c.Name] = v
	}
	return row
}

// ProjectAll projects records in order.
func (p *Projector) ProjectAll(records []types.Record) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = p.Project(r)
	}
	return rows
}

// unknownYear ranks records without a usable publication year below
// every real year.
const unknownYear = -1

// SortRecords orders records by WoS citations descending, then publication
// year descending. Ties keep their fetch order.
func SortRecords(records []types.Record) {
	slices.SortStableFunc(records, func(a, b types.Record) int {
		if c := cmp.Compare(Citations(b), Citations(a)); c != 0 {
			return c
		}
		return cmp.Compare(sortYear(b), sortYear(a))
	})
}

func sortYear(r types.Record) int {
	if y, ok := PublishYear(r); ok {
		return y
	}
	return unknownYear
}

// SortDescription names the order SortRecords produces.
const SortDescription = "Sorted by: Times Cited ↓, Publication Year ↓"
