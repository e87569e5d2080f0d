// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/pdiddy/starter-export/internal/fields"
)

// CellRecord is one non-empty cell of the reduced rows in long form.
type CellRecord struct {
	Row    int64  `parquet:"row"`
	UID    string `parquet:"uid"`
	Column string `parquet:"column"`
	Value  string `parquet:"value"`
}

// Cells flattens rows into long form, skipping empty cells. Row is the
// 1-based row position so the wide table can be rebuilt in order.
func Cells(headers []string, rows []fields.Row) []CellRecord {
	var out []CellRecord
	for i, row := range rows {
		uid := FormatValue(row[fields.ColUT])
		for _, h := range headers {
			v := FormatValue(row[h])
			if v == "" {
				continue
			}
			out = append(out, CellRecord{Row: int64(i + 1), UID: uid, Column: h, Value: v})
		}
	}
	return out
}

// WriteParquet writes the rows to path in long form. Like the CSV, the
// values are not clipped.
func WriteParquet(path string, headers []string, rows []fields.Row) error {
	if err := parquet.WriteFile(path, Cells(headers, rows)); err != nil {
		return fmt.Errorf("writing parquet %s: %w", path, err)
	}
	return nil
}
