// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/starter-export/internal/fields"
	"github.com/pdiddy/starter-export/internal/metrics"
	"github.com/pdiddy/starter-export/internal/sink"
	"github.com/pdiddy/starter-export/internal/starter"
	"github.com/pdiddy/starter-export/pkg/types"
)

var runTime = time.Date(2026, 3, 14, 9, 30, 5, 0, time.Local)

type fakeSource struct {
	records []types.Record
	err     error
	queries []string
	uts     []string
}

func (f *fakeSource) FetchAll(_ context.Context, query string) ([]types.Record, error) {
	f.queries = append(f.queries, query)
	return f.records, f.err
}

func (f *fakeSource) FetchByUT(_ context.Context, uts []string) ([]types.Record, string, error) {
	f.uts = uts
	q, err := starter.UTQuery(uts)
	if err != nil {
		return nil, "", err
	}
	return f.records, q, f.err
}

func hit(uid string, cites, year int, authors int) types.Record {
	names := make([]any, authors)
	for i := range names {
		names[i] = map[string]any{
			"displayName": fmt.Sprintf("Author %d", i),
			"wosStandard": fmt.Sprintf("Author, %d", i),
		}
	}
	r := types.NewRecord(map[string]any{
		"uid":         uid,
		"title":       "Title " + uid,
		"sourceTypes": []any{"Article"},
		"source":      map[string]any{"publishYear": json.Number(strconv.Itoa(year))},
		"names":       map[string]any{"authors": names},
		"identifiers": map[string]any{"doi": "10.1/" + uid},
		"citations":   []any{map[string]any{"db": "WOS", "count": json.Number(strconv.Itoa(cites))}},
	})
	return r
}

func newTestExporter(src Source, cfg types.ExportConfig) *Exporter {
	e := New(src, cfg, zerolog.Nop(), nil)
	e.Now = func() time.Time { return runTime }
	e.NewRunID = func() string { return "run-test" }
	return e
}

func withTotal(records []types.Record, total int) []types.Record {
	for i := range records {
		records[i].DeclaredTotal = total
	}
	return records
}

func TestRunWritesWorkbookAndCompanions(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{records: withTotal([]types.Record{
		hit("WOS:low", 1, 2020, 2),
		hit("WOS:high", 50, 2019, 2),
		hit("WOS:mid", 10, 2021, 2),
	}, 3)}

	e := newTestExporter(src, types.DefaultExportConfig())
	res, err := e.Run(context.Background(), Options{
		Query:        "TS=(graph neural)",
		AuthorLimit:  fields.Unbounded(),
		OutDir:       dir,
		WriteCSV:     true,
		ParquetPath:  filepath.Join(dir, "cells.parquet"),
		ManifestPath: filepath.Join(dir, "run.yaml"),
	})
	require.NoError(t, err)
	require.False(t, res.Empty)

	wantBook := filepath.Join(dir, "WOSExcelStarter_TSgraph_neural_20260314_093005.xlsx")
	assert.Equal(t, wantBook, res.Workbook)
	assert.Equal(t, filepath.Join(dir, "WOSExcelStarter_TSgraph_neural_20260314_093005_full.csv"), res.CSVPath)
	for _, p := range []string{res.Workbook, res.CSVPath, res.ParquetPath, res.ManifestPath} {
		assert.FileExists(t, p)
	}
	assert.Equal(t, []string{"TS=(graph neural)"}, src.queries)

	f, err := excelize.OpenFile(res.Workbook)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{sink.SheetSubset, sink.SheetFull, sink.SheetSummary}, f.GetSheetList())

	// Sorted by citations descending.
	subset, err := f.GetRows(sink.SheetSubset)
	require.NoError(t, err)
	require.Len(t, subset, 4)
	assert.Equal(t, fields.SubsetHeaders(), subset[0])
	assert.Equal(t, "WOS:high", subset[1][0])
	assert.Equal(t, "WOS:mid", subset[2][0])
	assert.Equal(t, "WOS:low", subset[3][0])

	full, err := f.GetRows(sink.SheetFull)
	require.NoError(t, err)
	assert.Equal(t, fields.FullHeaders(false), full[0])

	// Small runs link both URL columns.
	linkCol := indexOf(fields.SubsetHeaders(), fields.ColRecordLink) + 1
	cell, err := excelize.CoordinatesToCellName(linkCol, 2)
	require.NoError(t, err)
	ok, link, err := f.GetCellHyperLink(sink.SheetSubset, cell)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://www.webofscience.com/wos/woscc/full-record/WOS:high", link)

	lines := res.Summary.Lines()
	assert.Contains(t, lines, "Query: TS=(graph neural)")
	assert.Contains(t, lines, "Local Time: 20260314_093005")
	assert.Contains(t, lines, "Total Records: 3")
	assert.Contains(t, lines, "Sorted by: Times Cited ↓, Publication Year ↓ — Links: DOI + WoS record")
	assert.Contains(t, lines, "- Starter subset: "+res.CSVPath)

	manifest, err := sink.ReadManifest(res.ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, "run-test", manifest.RunID)
	assert.Equal(t, 3, manifest.TotalRecords)
	assert.True(t, manifest.CSVEnabled)
}

func TestRunReportsTruncation(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{records: withTotal([]types.Record{
		hit("WOS:many", 5, 2020, 30),
		hit("WOS:few", 4, 2020, 1),
	}, 2)}

	cfg := types.DefaultExportConfig()
	cfg.CellCharLimit = 100
	m := metrics.New()
	e := newTestExporter(src, cfg)
	e.Metrics = m

	res, err := e.Run(context.Background(), Options{
		UTs:         []string{"WOS:many", "WOS:few"},
		AuthorLimit: fields.Unbounded(),
		OutPath:     filepath.Join(dir, "named.xlsx"),
		WriteCSV:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "UT=(WOS:many WOS:few)", res.Summary.Query)
	assert.Equal(t, filepath.Join(dir, "named_full.csv"), res.CSVPath)

	// Both author columns overflow on both sheets but each id is listed once.
	assert.Equal(t, []sink.Truncation{
		{Column: "Authors", IDs: []string{"WOS:many"}},
		{Column: "Author Full Names", IDs: []string{"WOS:many"}},
	}, res.Summary.Truncations)

	// The CSV keeps the full author list.
	data, err := os.ReadFile(res.CSVPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Author 29")
	assert.NotContains(t, string(data), "[truncated]")
}

func TestRunDOIOnlyLinksAboveThreshold(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{records: withTotal([]types.Record{hit("WOS:1", 1, 2020, 1)}, 40000)}

	e := newTestExporter(src, types.DefaultExportConfig())
	res, err := e.Run(context.Background(), Options{Query: "TS=(x)", OutPath: filepath.Join(dir, "o.xlsx")})
	require.NoError(t, err)
	assert.Equal(t, "Sorted by: Times Cited ↓, Publication Year ↓ — Links: DOI only (limit avoidance)", res.Summary.SortNote)
	// Total Records counts what was fetched, not the declared total.
	assert.Equal(t, 1, res.Summary.TotalRecords)
}

func TestRunEmptyResultWritesNothing(t *testing.T) {
	dir := t.TempDir()
	e := newTestExporter(&fakeSource{}, types.DefaultExportConfig())

	res, err := e.Run(context.Background(), Options{Query: "TS=(nothing)", OutDir: dir, WriteCSV: true})
	require.NoError(t, err)
	assert.True(t, res.Empty)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunFetchErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	cause := &starter.OversizedResultSetError{Total: 60000, Max: 50000}
	e := newTestExporter(&fakeSource{err: cause}, types.DefaultExportConfig())

	res, err := e.Run(context.Background(), Options{Query: "TS=(all)", OutDir: dir, WriteCSV: true})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, starter.ErrOversizedResultSet)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunRequiresQuery(t *testing.T) {
	e := newTestExporter(&fakeSource{}, types.DefaultExportConfig())
	_, err := e.Run(context.Background(), Options{Query: "   "})
	assert.True(t, errors.Is(err, ErrNoQuery))
}

func TestRunAgainstStarterAPI(t *testing.T) {
	var (
		mu    sync.Mutex
		pages []string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		mu.Lock()
		pages = append(pages, page)
		mu.Unlock()
		n, _ := strconv.Atoi(page)
		var hits []string
		for i := 0; i < 2 && (n-1)*2+i < 3; i++ {
			id := (n-1)*2 + i
			hits = append(hits, fmt.Sprintf(`{"uid":"WOS:%d","citations":[{"db":"WOS","count":%d}]}`, id, id))
		}
		fmt.Fprintf(w, `{"metadata":{"total":3},"hits":[%s]}`, strings.Join(hits, ","))
	}))
	defer ts.Close()

	scfg := types.DefaultStarterConfig()
	scfg.BaseURL = ts.URL
	scfg.PageSize = 2
	scfg.Retry.MinInterval = 0
	client := starter.NewClient(scfg, starter.Options{})
	fetcher := starter.NewFetcher(client, scfg, zerolog.Nop(), nil)

	dir := t.TempDir()
	e := newTestExporter(fetcher, types.DefaultExportConfig())
	res, err := e.Run(context.Background(), Options{Query: "TS=(x)", OutPath: filepath.Join(dir, "api.xlsx")})
	require.NoError(t, err)
	mu.Lock()
	assert.Equal(t, []string{"1", "2"}, pages)
	mu.Unlock()
	assert.Equal(t, 3, res.Records)

	f, err := excelize.OpenFile(res.Workbook)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sink.SheetSubset)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "WOS:2", rows[1][0])
}

func TestSafeQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TS=(graph neural networks)", "TSgraph_neural_netwo"},
		{"  AB=Pie ", "ABPie"},
		{"=()", "query"},
		{"TI=(Café résumé)", "TICafé_résumé"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeQuery(tt.in))
		})
	}
}

func TestAutoFilename(t *testing.T) {
	got := AutoFilename("OG=(University of Quebec)", "/out", runTime)
	assert.Equal(t, filepath.Join("/out", "WOSExcelStarter_OGUniversity_of_Queb_20260314_093005.xlsx"), got)
	assert.Equal(t, "/out/x_full.csv", CSVPath("/out/x.xlsx"))
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
