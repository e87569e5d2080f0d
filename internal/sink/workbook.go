// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/starter-export/internal/fields"
)

// Sheet names of the exported workbook.
const (
	SheetSubset  = "Starter subset"
	SheetFull    = "Core export (full)"
	SheetSummary = "Summary"
)

// Workbook builds the xlsx export. Every data cell passes through the
// shared Tracker; URL cells in hyperlink columns are written as links.
type Workbook struct {
	file    *excelize.File
	tracker *Tracker
	links   map[string]bool
	sheets  int
}

// NewWorkbook starts an empty workbook.
func NewWorkbook(tracker *Tracker, hyperlinkColumns []string) *Workbook {
	links := make(map[string]bool, len(hyperlinkColumns))
	for _, c := range hyperlinkColumns {
		links[c] = true
	}
	return &Workbook{file: excelize.NewFile(), tracker: tracker, links: links}
}

// addSheet reuses the default sheet for the first call.
func (w *Workbook) addSheet(name string) error {
	w.sheets++
	if w.sheets == 1 {
		return w.file.SetSheetName(w.file.GetSheetName(0), name)
	}
	_, err := w.file.NewSheet(name)
	return err
}

// AddSheet writes a header row followed by one row per projected record.
// The record id used for truncation notes is the row's UT, or "row<n>"
// when the UT is blank.
func (w *Workbook) AddSheet(name string, headers []string, rows []fields.Row) error {
	if err := w.addSheet(name); err != nil {
		return fmt.Errorf("adding sheet %q: %w", name, err)
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := w.file.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("writing %q header: %w", name, err)
	}

	for i, row := range rows {
		rowNum := i + 2
		id := RowID(row, rowNum-1)
		cells := w.tracker.Emit(row, headers, id)

		start, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		if err := w.file.SetSheetRow(name, start, &cells); err != nil {
			return fmt.Errorf("writing %q row %d: %w", name, rowNum, err)
		}

		for col, h := range headers {
			url, ok := cells[col].(string)
			if !w.links[h] || !ok || !IsURL(url) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return err
			}
			if err := w.file.SetCellHyperLink(name, cell, url, "External"); err != nil {
				return fmt.Errorf("linking %s!%s: %w", name, cell, err)
			}
		}
	}
	return nil
}

// AddSummary writes lines under a "Summary" header in column A. Blank
// lines are written as the placeholder.
func (w *Workbook) AddSummary(lines []string) error {
	if err := w.addSheet(SheetSummary); err != nil {
		return fmt.Errorf("adding summary sheet: %w", err)
	}
	if err := w.file.SetCellStr(SheetSummary, "A1", "Summary"); err != nil {
		return err
	}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			line = Placeholder
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := w.file.SetCellStr(SheetSummary, cell, line); err != nil {
			return fmt.Errorf("writing summary line %d: %w", i+1, err)
		}
	}
	return nil
}

// SaveAs writes the workbook to path.
func (w *Workbook) SaveAs(path string) error {
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

// Close releases the workbook's temporary files.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// RowID identifies a row in truncation notes.
func RowID(row fields.Row, n int) string {
	if ut, ok := row[fields.ColUT].(string); ok && strings.TrimSpace(ut) != "" {
		return ut
	}
	return fmt.Sprintf("row%d", n)
}

// IsURL reports whether s is an http(s) URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
