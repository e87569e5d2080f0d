// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// TimestampLayout stamps output names and the summary's local time.
const TimestampLayout = "20060102_150405"

const (
	filePrefix     = "WOSExcelStarter_"
	maxQueryInName = 20
)

// SafeQuery reduces a query to letters, digits and underscores, keeping
// at most the first 20 characters. An empty result becomes "query".
func SafeQuery(query string) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, query)
	safe := []rune(strings.Join(strings.Fields(clean), "_"))
	if len(safe) > maxQueryInName {
		safe = safe[:maxQueryInName]
	}
	if len(safe) == 0 {
		return "query"
	}
	return string(safe)
}

// AutoFilename names the workbook after the query and the run time.
func AutoFilename(query, outDir string, now time.Time) string {
	name := filePrefix + SafeQuery(query) + "_" + now.Format(TimestampLayout) + ".xlsx"
	return filepath.Join(outDir, name)
}

// BasePath strips the extension so sibling outputs share the workbook's stem.
func BasePath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// CSVPath is the companion CSV of a workbook.
func CSVPath(workbook string) string {
	return BasePath(workbook) + "_full.csv"
}
