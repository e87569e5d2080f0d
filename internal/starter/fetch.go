// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package starter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/starter-export/internal/metrics"
	"github.com/pdiddy/starter-export/pkg/types"
)

const documentsPath = "documents"

// Requester issues one logical GET. *Client implements it.
type Requester interface {
	Get(ctx context.Context, path string, params url.Values) (map[string]any, error)
}

// PaginationState tracks one paginated fetch.
type PaginationState struct {
	// Total is the result count declared on the first page.
	Total int

	// Page is the 1-based page most recently requested.
	Page int

	// Records holds every record accumulated so far, in server order.
	Records []types.Record
}

// Done reports whether the loop should stop after a page that carried
// lastBatch records: the declared total is reached or the page was empty.
func (s *PaginationState) Done(lastBatch int) bool {
	return len(s.Records) >= s.Total || lastBatch == 0
}

// Fetcher drives a Requester across result pages.
type Fetcher struct {
	Client   Requester
	DB       string
	PageSize int
	MaxTotal int
	Logger   zerolog.Logger
	Metrics  *metrics.Recorder
}

// NewFetcher builds a Fetcher from the Starter settings.
func NewFetcher(client Requester, cfg types.StarterConfig, logger zerolog.Logger, m *metrics.Recorder) *Fetcher {
	return &Fetcher{
		Client:   client,
		DB:       cfg.DB,
		PageSize: cfg.PageSize,
		MaxTotal: cfg.MaxTotal,
		Logger:   logger.With().Str("component", "fetch").Logger(),
		Metrics:  m,
	}
}

// FetchAll returns every record matching query in server order, each
// stamped with the declared total. A zero total returns no records and no
// error. A total above MaxTotal fails with *OversizedResultSetError before
// a second page is requested.
func (f *Fetcher) FetchAll(ctx context.Context, query string) ([]types.Record, error) {
	state := &PaginationState{Page: 1}

	batch, total, err := f.page(ctx, query, state.Page)
	if err != nil {
		return nil, err
	}
	state.Total = total

	if state.Total == 0 {
		f.Logger.Info().Str("query", query).Msg("No results were retrieved for this query.")
		return nil, nil
	}
	if f.MaxTotal > 0 && state.Total > f.MaxTotal {
		return nil, &OversizedResultSetError{Total: state.Total, Max: f.MaxTotal}
	}

	f.Logger.Info().Int("total", state.Total).Msgf("Found %d records for this search.", state.Total)
	f.accumulate(state, batch)

	for !state.Done(len(batch)) {
		state.Page++
		batch, _, err = f.page(ctx, query, state.Page)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			f.Logger.Debug().Int("page", state.Page).Msg("empty page before declared total")
			break
		}
		f.accumulate(state, batch)
	}

	for i := range state.Records {
		state.Records[i].DeclaredTotal = state.Total
	}
	return state.Records, nil
}

// FetchByUT fetches the records with the given UT identifiers. It returns
// the query it built alongside the records.
func (f *Fetcher) FetchByUT(ctx context.Context, uts []string) ([]types.Record, string, error) {
	query, err := UTQuery(uts)
	if err != nil {
		return nil, "", err
	}
	records, err := f.FetchAll(ctx, query)
	return records, query, err
}

// UTQuery builds the UT=(...) query for a list of identifiers, dropping
// blanks.
func UTQuery(uts []string) (string, error) {
	clean := make([]string, 0, len(uts))
	for _, ut := range uts {
		if ut = strings.TrimSpace(ut); ut != "" {
			clean = append(clean, ut)
		}
	}
	if len(clean) == 0 {
		return "", fmt.Errorf("no UT identifiers given")
	}
	return "UT=(" + strings.Join(clean, " ") + ")", nil
}

func (f *Fetcher) accumulate(state *PaginationState, batch []types.Record) {
	state.Records = append(state.Records, batch...)
	f.Metrics.RecordsFetched(len(batch))
	f.Logger.Info().
		Int("page", state.Page).
		Int("retrieved", len(state.Records)).
		Int("total", state.Total).
		Msgf("Retrieved %d/%d ...", len(state.Records), state.Total)
}

// page requests one page and returns its hits and the declared total. A
// missing total falls back to the number of hits on the page.
func (f *Fetcher) page(ctx context.Context, query string, page int) ([]types.Record, int, error) {
	limit := f.PageSize
	if limit <= 0 {
		limit = 50
	}
	params := url.Values{
		"q":     {query},
		"limit": {strconv.Itoa(limit)},
		"page":  {strconv.Itoa(page)},
	}
	if f.DB != "" {
		params.Set("db", f.DB)
	}

	f.Logger.Debug().Int("page", page).Msg("requesting page")
	data, err := f.Client.Get(ctx, documentsPath, params)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching page %d: %w", page, err)
	}

	hits, _ := data["hits"].([]any)
	batch := make([]types.Record, 0, len(hits))
	for _, h := range hits {
		if obj, ok := h.(map[string]any); ok {
			batch = append(batch, types.NewRecord(obj))
		}
	}

	total := len(batch)
	if meta, ok := data["metadata"].(map[string]any); ok {
		if n, ok := toInt(meta["total"]); ok {
			total = n
		}
	}
	return batch, total, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if fl, err := n.Float64(); err == nil {
			return int(fl), true
		}
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}
