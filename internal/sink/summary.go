// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Summary describes one export run. It feeds the workbook's Summary sheet
// and the optional YAML manifest.
type Summary struct {
	RunID        string       `yaml:"run_id"`
	Query        string       `yaml:"query"`
	LocalTime    string       `yaml:"local_time"`
	TotalRecords int          `yaml:"total_records"`
	SortNote     string       `yaml:"sort_note"`
	CellLimit    int          `yaml:"cell_limit"`
	Authors      string       `yaml:"authors"`
	CSVEnabled   bool         `yaml:"csv_enabled"`
	Workbook     string       `yaml:"workbook,omitempty"`
	CSVPath      string       `yaml:"csv_path,omitempty"`
	ParquetPath  string       `yaml:"parquet_path,omitempty"`
	Truncations  []Truncation `yaml:"truncations,omitempty"`

	// Preview bounds how many ids each truncation note lists.
	Preview int `yaml:"-"`
}

// SortNote combines the sort order with the hyperlink policy in effect.
func SortNote(sortDescription string, doiOnly bool) string {
	if doiOnly {
		return sortDescription + " — Links: DOI only (limit avoidance)"
	}
	return sortDescription + " — Links: DOI + WoS record"
}

// Lines renders the summary as the Summary sheet shows it.
func (s Summary) Lines() []string {
	csvStatus := "disabled"
	if s.CSVEnabled {
		csvStatus = "enabled"
	}
	lines := []string{
		"Query: " + s.Query,
		"Local Time: " + s.LocalTime,
	}
	if s.RunID != "" {
		lines = append(lines, "Run ID: "+s.RunID)
	}
	lines = append(lines,
		fmt.Sprintf("Total Records: %d", s.TotalRecords),
		s.SortNote,
		fmt.Sprintf("Excel cell text limit enforced at %d characters.", s.CellLimit),
		"Authors shown: "+s.Authors,
		"CSV output: "+csvStatus,
	)

	if len(s.Truncations) > 0 {
		lines = append(lines, "", "Truncation notes (cells exceeded Excel limit):")
		for _, t := range s.Truncations {
			lines = append(lines, TruncationNote(t, s.Preview))
		}
	}

	if s.CSVPath != "" {
		lines = append(lines, "", "CSV written (full text, no truncation):", "- Starter subset: "+s.CSVPath)
	}
	return lines
}

// TruncationNote formats one column's entry, listing at most preview ids.
func TruncationNote(t Truncation, preview int) string {
	shown := t.IDs
	more := ""
	if preview > 0 && len(shown) > preview {
		more = fmt.Sprintf(" (+%d more)", len(shown)-preview)
		shown = shown[:preview]
	}
	return fmt.Sprintf("- %s: %d row(s) truncated. UTs: %s%s",
		t.Column, len(t.IDs), strings.Join(shown, "; "), more)
}

// WriteManifest saves the summary as YAML.
func WriteManifest(path string, s Summary) error {
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &s, nil
}
