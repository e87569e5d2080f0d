package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/starter-export/internal/export"
	"github.com/pdiddy/starter-export/internal/fields"
	"github.com/pdiddy/starter-export/internal/logging"
	"github.com/pdiddy/starter-export/internal/metrics"
	"github.com/pdiddy/starter-export/internal/secrets"
	"github.com/pdiddy/starter-export/internal/starter"
	"github.com/pdiddy/starter-export/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Fetch Starter API results and write the workbook",
	Long: `Export runs a Starter API query (or fetches a list of UT identifiers),
sorts the records by times cited and publication year, and writes an .xlsx
workbook. Cells longer than the spreadsheet limit are clipped and listed in
the Summary sheet; --csv also writes the subset rows in full.

Examples:
  starter-export export -q "TS=(graph neural networks)" --authors 50
  starter-export export -q "OG=(University of Quebec)" --authors ALL --csv true
  starter-export export --ut "WOS:000123 WOS:000456" --out picks.xlsx`,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringP("key", "k", "", "Starter API key (overrides STARTER_APIKEY and .secrets/starter-api-key)")
	f.StringP("query", "q", "", "Starter API query, e.g. TS=(graph neural networks)")
	f.String("ut", "", "space-separated UT identifiers; overrides --query")
	f.String("authors", "ALL", `author limit: an integer N (first N + last) or "ALL"`)
	f.String("csv", "false", "also write <workbook>_full.csv of the Starter subset: true or false")
	f.String("out", "", "output .xlsx path (default: auto-named from the query)")
	f.String("outdir", ".", "directory for the auto-named workbook")
	f.String("parquet", "", "also write the Starter subset as long-form Parquet to this path")
	f.String("manifest", "", "also write the run summary as YAML to this path")
	f.Bool("core-layout", false, "keep the columns Starter cannot fill as blank columns in the full sheet")
	f.String("metrics-file", "", "write request and retry counters in Prometheus text format to this path")
	f.Int("page-size", 50, "records per page (max 50)")
	f.String("db", "WOS", "Starter database code")
	f.String("base-url", types.DefaultStarterConfig().BaseURL, "Starter API base URL")

	for key, flag := range map[string]string{
		"apikey":       "key",
		"query":        "query",
		"ut":           "ut",
		"author_limit": "authors",
		"write_csv":    "csv",
		"out":          "out",
		"outdir":       "outdir",
		"parquet":      "parquet",
		"manifest":     "manifest",
		"core_layout":  "core-layout",
		"metrics_file": "metrics-file",
		"page_size":    "page-size",
		"db":           "db",
		"base_url":     "base-url",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	apiKey, err := secrets.APIKey(secrets.DefaultDir, viper.GetString("apikey"))
	if err != nil {
		return err
	}
	if apiKey == "" {
		return errors.New("missing API key: set STARTER_APIKEY in .env, pass -k/--key, or add .secrets/starter-api-key")
	}

	limit, err := fields.ParseAuthorLimit(viper.GetString("author_limit"))
	if err != nil {
		return err
	}
	writeCSV, err := parseSwitch(viper.GetString("write_csv"))
	if err != nil {
		return fmt.Errorf("--csv: %w", err)
	}

	scfg := starterConfig(apiKey)
	ecfg := types.DefaultExportConfig()
	ecfg.CoreLayout = viper.GetBool("core_layout")

	logger := log.Logger
	m := metrics.New()
	client := starter.NewClient(scfg, starter.Options{Logger: &logger, Metrics: m})
	fetcher := starter.NewFetcher(client, scfg, logger, m)
	exporter := export.New(fetcher, ecfg, logger, m)

	res, runErr := exporter.Run(cmd.Context(), export.Options{
		Query:        viper.GetString("query"),
		UTs:          strings.Fields(viper.GetString("ut")),
		AuthorLimit:  limit,
		OutPath:      viper.GetString("out"),
		OutDir:       viper.GetString("outdir"),
		WriteCSV:     writeCSV,
		ParquetPath:  viper.GetString("parquet"),
		ManifestPath: viper.GetString("manifest"),
	})

	if path := viper.GetString("metrics_file"); path != "" {
		if err := m.WriteTextfile(path); err != nil {
			clog := logging.Component("cli")
			clog.Error().Err(err).Str("path", path).Msg("writing metrics file")
		}
	}

	if runErr != nil {
		return runErr
	}
	if res.Empty {
		fmt.Fprintln(cmd.OutOrStdout(), "No results were retrieved for this query.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s\n", filepath.Base(res.Workbook))
	for _, p := range []string{res.CSVPath, res.ParquetPath, res.ManifestPath} {
		if p != "" {
			fmt.Fprintf(out, "Wrote %s\n", filepath.Base(p))
		}
	}
	return nil
}

// starterConfig applies the configured overrides to the API defaults.
func starterConfig(apiKey string) types.StarterConfig {
	cfg := types.DefaultStarterConfig()
	cfg.APIKey = apiKey
	if v := viper.GetString("base_url"); v != "" {
		cfg.BaseURL = v
	}
	if v := viper.GetString("db"); v != "" {
		cfg.DB = v
	}
	if v := viper.GetInt("page_size"); v > 0 {
		cfg.PageSize = min(v, 50)
	}
	return cfg
}

// parseSwitch reads an on/off setting. Empty means off.
func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "", "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("want true or false, got %q", s)
}
