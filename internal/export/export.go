// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export runs one export: fetch every matching record, sort,
// project into the subset and full schemas, and write the workbook with
// its optional CSV, Parquet and manifest companions. Nothing is written
// unless the fetch completes.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/starter-export/internal/fields"
	"github.com/pdiddy/starter-export/internal/metrics"
	"github.com/pdiddy/starter-export/internal/sink"
	"github.com/pdiddy/starter-export/pkg/types"
)

// ErrNoQuery is returned when neither a query nor UT identifiers are given.
var ErrNoQuery = errors.New("provide a query or UT identifiers")

// Source fetches records. *starter.Fetcher implements it.
type Source interface {
	FetchAll(ctx context.Context, query string) ([]types.Record, error)
	FetchByUT(ctx context.Context, uts []string) ([]types.Record, string, error)
}

// Options selects what to fetch and where to write it.
type Options struct {
	// Query is a Starter API query. Ignored when UTs is set.
	Query string

	// UTs fetches these records instead of running Query.
	UTs []string

	AuthorLimit fields.AuthorLimit

	// OutPath is the workbook path. Empty derives one in OutDir.
	OutPath string
	OutDir  string

	// WriteCSV also writes <base>_full.csv with the subset rows.
	WriteCSV bool

	// ParquetPath, when set, receives the subset rows in long form.
	ParquetPath string

	// ManifestPath, when set, receives the run summary as YAML.
	ManifestPath string
}

// Result reports what a run produced. Empty is true when the query
// matched nothing; no files are written then.
type Result struct {
	Empty        bool
	Records      int
	Workbook     string
	CSVPath      string
	ParquetPath  string
	ManifestPath string
	Summary      sink.Summary
}

// Exporter wires a Source to the sinks.
type Exporter struct {
	Source   Source
	Config   types.ExportConfig
	Logger   zerolog.Logger
	Metrics  *metrics.Recorder
	Now      func() time.Time
	NewRunID func() string
}

// New creates an Exporter with the wall clock and random run ids.
func New(src Source, cfg types.ExportConfig, logger zerolog.Logger, m *metrics.Recorder) *Exporter {
	return &Exporter{
		Source:   src,
		Config:   cfg,
		Logger:   logger.With().Str("component", "export").Logger(),
		Metrics:  m,
		Now:      time.Now,
		NewRunID: func() string { return uuid.NewString() },
	}
}

// Run performs one export.
func (e *Exporter) Run(ctx context.Context, opts Options) (*Result, error) {
	records, query, err := e.fetch(ctx, opts)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Result{Empty: true}, nil
	}

	now := e.now()
	runID := e.runID()
	log := e.Logger.With().Str("run_id", runID).Logger()

	total := records[0].DeclaredTotal
	if total == 0 {
		total = len(records)
	}
	links := fields.HyperlinkColumns(total, e.Config.HyperlinkThreshold)

	fields.SortRecords(records)

	outPath := opts.OutPath
	if outPath == "" {
		outPath = AutoFilename(query, opts.OutDir, now)
	}

	reg := fields.NewRegistry(opts.AuthorLimit, func() time.Time { return now })
	subset := fields.NewProjector(reg, fields.SubsetHeaders(), log)
	full := fields.NewProjector(reg, fields.FullHeaders(e.Config.CoreLayout), log)
	subsetRows := subset.ProjectAll(records)
	fullRows := full.ProjectAll(records)

	res := &Result{Records: len(records), Workbook: outPath}
	summary := sink.Summary{
		RunID:        runID,
		Query:        query,
		LocalTime:    now.Format(TimestampLayout),
		TotalRecords: len(records),
		SortNote:     sink.SortNote(fields.SortDescription, len(links) == 1),
		CellLimit:    e.Config.CellCharLimit,
		Authors:      opts.AuthorLimit.Describe(),
		CSVEnabled:   opts.WriteCSV,
		Workbook:     outPath,
		Preview:      e.Config.ReportPreview,
	}

	tracker := sink.NewTracker(e.Config, e.Metrics)
	wb := sink.NewWorkbook(tracker, links)
	defer wb.Close()

	if err := wb.AddSheet(sink.SheetSubset, subset.Headers(), subsetRows); err != nil {
		return nil, err
	}
	if err := wb.AddSheet(sink.SheetFull, full.Headers(), fullRows); err != nil {
		return nil, err
	}
	summary.Truncations = tracker.Report()
	for _, t := range summary.Truncations {
		log.Warn().Str("column", t.Column).Int("rows", len(t.IDs)).Msg("cells truncated to the workbook limit")
	}

	if opts.WriteCSV {
		res.CSVPath = CSVPath(outPath)
		summary.CSVPath = res.CSVPath
	}
	if opts.ParquetPath != "" {
		res.ParquetPath = opts.ParquetPath
		summary.ParquetPath = opts.ParquetPath
	}

	if err := wb.AddSummary(summary.Lines()); err != nil {
		return nil, err
	}
	if err := wb.SaveAs(outPath); err != nil {
		return nil, err
	}
	log.Info().Str("path", outPath).Int("records", len(records)).Msg("workbook written")

	if res.CSVPath != "" {
		if err := sink.WriteCSV(res.CSVPath, subset.Headers(), subsetRows); err != nil {
			return nil, err
		}
		log.Info().Str("path", res.CSVPath).Msg("csv written")
	}
	if res.ParquetPath != "" {
		if err := sink.WriteParquet(res.ParquetPath, subset.Headers(), subsetRows); err != nil {
			return nil, err
		}
		log.Info().Str("path", res.ParquetPath).Msg("parquet written")
	}
	if opts.ManifestPath != "" {
		if err := sink.WriteManifest(opts.ManifestPath, summary); err != nil {
			return nil, err
		}
		res.ManifestPath = opts.ManifestPath
	}

	res.Summary = summary
	return res, nil
}

// fetch runs the UT lookup when identifiers are given, else the query.
func (e *Exporter) fetch(ctx context.Context, opts Options) ([]types.Record, string, error) {
	if len(opts.UTs) > 0 {
		records, query, err := e.Source.FetchByUT(ctx, opts.UTs)
		if err != nil {
			return nil, query, fmt.Errorf("fetching by UT: %w", err)
		}
		return records, query, nil
	}

	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return nil, "", ErrNoQuery
	}
	records, err := e.Source.FetchAll(ctx, query)
	if err != nil {
		return nil, query, fmt.Errorf("fetching %q: %w", query, err)
	}
	return records, query, nil
}

func (e *Exporter) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Exporter) runID() string {
	if e.NewRunID == nil {
		return uuid.NewString()
	}
	return e.NewRunID()
}
