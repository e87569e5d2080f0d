// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fields

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/starter-export/pkg/types"
)

func decode(t *testing.T, raw string) types.Record {
	t.Helper()
	r, err := types.DecodeRecord([]byte(raw))
	require.NoError(t, err)
	return r
}

func fixedNow() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }

const sampleHit = `{
  "uid": "WOS:000123",
  "title": "Graph neural networks",
  "sourceTypes": ["Article", "Article"],
  "source": {
    "sourceTitle": "Neural Computing",
    "publishYear": 2021,
    "publishMonth": "MAR",
    "volume": "12",
    "issue": "3",
    "pages": {"begin": "100", "end": "110", "count": 11}
  },
  "names": {
    "authors": [
      {"displayName": "Smith, John", "wosStandard": "Smith, J", "researcherId": "A-1"},
      {"displayName": "Doe, Jane", "wosStandard": "Doe, J"},
      {"displayName": "Roe, Rick", "wosStandard": "Roe, R", "researcherId": "C-3"}
    ],
    "corp": [],
    "groupAuthors": [{"displayName": "GNN Consortium"}],
    "books": ["Editor One", {"displayName": "Editor Two"}]
  },
  "identifiers": {"doi": "10.1/abc", "issn": "1234-5678", "pmid": "999"},
  "keywords": {"authorKeywords": ["graphs", "GNN", "graphs"]},
  "citations": [{"db": "PPRN", "count": 3}, {"db": "wos", "count": 42}]
}`

func TestParseAuthorLimit(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		bounded bool
		wantErr bool
	}{
		{"ALL", "ALL", false, false},
		{" all ", "ALL", false, false},
		{"50", "50", true, false},
		{"0", "0", false, false},
		{"-3", "-3", false, false},
		{"many", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			l, err := ParseAuthorLimit(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, l.String())
			assert.Equal(t, !tt.bounded, l.IsUnbounded())
		})
	}
}

func TestAuthorLimitApply(t *testing.T) {
	five := []string{"a", "b", "c", "d", "e"}
	tests := []struct {
		name  string
		limit AuthorLimit
		items []string
		want  string
	}{
		{"unbounded", Unbounded(), five, "a; b; c; d; e"},
		{"limit above length", Limit(10), five, "a; b; c; d; e"},
		{"limit equals length", Limit(5), five, "a; b; c; d; e"},
		{"cut keeps head and last", Limit(2), five, "a; b; ...; e"},
		{"limit one", Limit(1), five, "a; ...; e"},
		{"zero is unbounded", Limit(0), five, "a; b; c; d; e"},
		{"negative is unbounded", Limit(-1), five, "a; b; c; d; e"},
		{"empty", Limit(2), nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.limit.Apply(tt.items))
		})
	}
}

func TestAuthorLimitDescribe(t *testing.T) {
	assert.Equal(t, "ALL", Unbounded().Describe())
	assert.Equal(t, "First 20 + last (if longer)", Limit(20).Describe())
}

func TestPublicationType(t *testing.T) {
	tests := []struct {
		name  string
		types string
		want  string
	}{
		{"book", `["Book"]`, "B"},
		{"book with chapter", `["Book", "Book Chapter"]`, "B"},
		{"book beats proceedings", `["Proceedings Paper", "Book"]`, "B"},
		{"proceedings only", `["Proceedings Paper"]`, "C"},
		{"proceedings repeated", `["Proceedings Paper", "Proceedings Paper", ""]`, "C"},
		{"proceedings and article", `["Proceedings Paper", "Article"]`, "J"},
		{"article", `["Article"]`, "J"},
		{"empty", `[]`, "J"},
		{"scalar proceedings", `"Proceedings Paper"`, "C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := decode(t, `{"sourceTypes": `+tt.types+`}`)
			assert.Equal(t, tt.want, PublicationType(r))
		})
	}
	assert.Equal(t, "J", PublicationType(types.NewRecord(nil)))
}

func TestCitations(t *testing.T) {
	tests := []struct {
		name  string
		cites string
		want  int
	}{
		{"wos preferred", `[{"db":"PPRN","count":3},{"db":"WOS","count":42}]`, 42},
		{"case insensitive", `[{"db":"wos","count":"7"}]`, 7},
		{"first fallback", `[{"db":"PPRN","count":3},{"db":"BIOSIS","count":9}]`, 3},
		{"empty", `[]`, 0},
		{"missing count", `[{"db":"WOS"}]`, 0},
		{"malformed count", `[{"db":"WOS","count":"many"}]`, 0},
		{"not objects", `["x", 4]`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := decode(t, `{"citations": `+tt.cites+`}`)
			assert.Equal(t, tt.want, Citations(r))
		})
	}
	assert.Equal(t, 0, Citations(types.NewRecord(nil)))
}

func TestResearcherIDs(t *testing.T) {
	r := decode(t, `{"names":{"authors":[
		{"displayName":"A","researcherId":"R1"},
		{"wosStandard":"B, X","researcherId":"R2"},
		{"displayName":"C"},
		{"researcherId":"R4"},
		{"displayName":"E","researcherId":"R5"}
	]}}`)

	assert.Equal(t, "A/R1; B, X/R2; R4; E/R5", ResearcherIDs(r, Unbounded()))
	assert.Equal(t, "A/R1; B, X/R2; ...; E/R5", ResearcherIDs(r, Limit(2)))
	assert.Equal(t, "A/R1; ...; E/R5", ResearcherIDs(r, Limit(1)))

	noTail := decode(t, `{"names":{"authors":[
		{"displayName":"A","researcherId":"R1"},
		{"displayName":"B"},
		{"displayName":"C"}
	]}}`)
	assert.Equal(t, "A/R1; ...", ResearcherIDs(noTail, Limit(1)))

	none := decode(t, `{"names":{"authors":[{"displayName":"A"},{"displayName":"B"}]}}`)
	assert.Equal(t, "", ResearcherIDs(none, Limit(1)))
	assert.Equal(t, "", ResearcherIDs(types.NewRecord(nil), Unbounded()))
}

func TestNameListFallback(t *testing.T) {
	r := decode(t, sampleHit)
	assert.Equal(t, []string{"GNN Consortium"}, NameList(r, "corp", "groupAuthors"))
	assert.Equal(t, []string{"Editor One", "Editor Two"}, NameList(r, "books", ""))
	assert.Empty(t, NameList(r, "bookEditors", ""))
}

func TestScalar(t *testing.T) {
	assert.Equal(t, int64(2021), Scalar(json.Number("2021")))
	assert.Equal(t, 1.5, Scalar(json.Number("1.5")))
	assert.Equal(t, int64(3), Scalar(float64(3)))
	assert.Equal(t, "x", Scalar("x"))
	assert.Equal(t, "a; b", Scalar([]any{"a", nil, "b", "a"}))
	assert.Nil(t, Scalar(nil))
	assert.Nil(t, Scalar(map[string]any{"k": "v"}))
}

func TestSchemas(t *testing.T) {
	assert.Len(t, AllHeaders, 72)
	assert.Len(t, NeverHeaders, 37)

	full := FullHeaders(false)
	assert.Len(t, full, 35)
	for _, h := range full {
		assert.False(t, Unavailable(h), h)
	}
	assert.Equal(t, AllHeaders, FullHeaders(true))

	subset := SubsetHeaders()
	assert.Len(t, subset, 33)
	assert.Equal(t, ColUT, subset[0])
	assert.NotContains(t, subset, ColPublicationType)
	assert.NotContains(t, subset, ColORCIDs)
	for _, h := range subset {
		assert.Contains(t, full, h)
	}

	reg := NewRegistry(Unbounded(), fixedNow)
	for _, h := range full {
		_, ok := reg.Lookup(h)
		assert.True(t, ok, "no extractor for %q", h)
	}
}

func TestHyperlinkColumns(t *testing.T) {
	assert.Equal(t, []string{ColDOILink, ColRecordLink}, HyperlinkColumns(100, 32765))
	assert.Equal(t, []string{ColDOILink, ColRecordLink}, HyperlinkColumns(32765, 32765))
	assert.Equal(t, []string{ColDOILink}, HyperlinkColumns(32766, 32765))
}

func TestProjectSampleRecord(t *testing.T) {
	reg := NewRegistry(Limit(1), fixedNow)
	p := NewProjector(reg, FullHeaders(false), zerolog.Nop())
	row := p.Project(decode(t, sampleHit))

	want := map[string]any{
		"Publication Type":       "J",
		"Authors":                "Smith, J; ...; Roe, R",
		"Author Full Names":      "Smith, John; ...; Roe, Rick",
		"Book Authors":           "Editor One; Editor Two",
		"Book Author Full Names": "Editor One; Editor Two",
		"Book Editors":           "",
		"Group Authors":          "GNN Consortium",
		"Researcher Ids":         "Smith, John/A-1; ...; Roe, Rick/C-3",
		"ORCIDs":                 "",
		"Article Title":          "Graph neural networks",
		"Source Title":           "Neural Computing",
		"Document Type":          "Article",
		"Author Keywords":        "graphs; GNN",
		"Times Cited, WoS Core":  int64(42),
		"ISSN":                   "1234-5678",
		"eISSN":                  nil,
		"DOI":                    "10.1/abc",
		"DOI Link":               "https://doi.org/10.1/abc",
		"Pubmed Id":              "999",
		"Publication Date":       "MAR",
		"Publication Year":       int64(2021),
		"Start Page":             "100",
		"End Page":               "110",
		"Number of Pages":        int64(11),
		"Meeting Abstract":       "",
		"Date of Export":         "2026-03-14",
		"UT (Unique WOS ID)":     "WOS:000123",
		"Web of Science Record":  "https://www.webofscience.com/wos/woscc/full-record/WOS:000123",
	}
	for col, v := range want {
		assert.Equal(t, v, row[col], col)
	}
}

func TestProjectIsTotal(t *testing.T) {
	reg := NewRegistry(Unbounded(), fixedNow)
	for _, coreLayout := range []bool{false, true} {
		headers := FullHeaders(coreLayout)
		p := NewProjector(reg, headers, zerolog.Nop())
		for _, raw := range []string{`{}`, `{"names": 5, "source": [], "citations": "x"}`, sampleHit} {
			row := p.Project(decode(t, raw))
			assert.Len(t, row, len(headers))
			for _, h := range headers {
				assert.Contains(t, row, h)
			}
		}
	}
}

func TestProjectRecoversPanickingExtractor(t *testing.T) {
	p := &Projector{
		Columns: []Column{
			{Name: "boom", Extract: func(types.Record) any { panic("bad data") }},
			{Name: "UT", Extract: func(r types.Record) any { return r.UID() }},
		},
		Logger: zerolog.Nop(),
	}
	row := p.Project(types.NewRecord(map[string]any{"uid": "WOS:1"}))
	assert.Equal(t, "", row["boom"])
	assert.Equal(t, "WOS:1", row["UT"])
	assert.Equal(t, []string{"boom", "UT"}, p.Headers())
}

func TestSortRecords(t *testing.T) {
	rec := func(uid string, cites int, year any) types.Record {
		src := map[string]any{}
		if year != nil {
			src["publishYear"] = year
		}
		return types.NewRecord(map[string]any{
			"uid":       uid,
			"citations": []any{map[string]any{"db": "WOS", "count": json.Number(itoa(cites))}},
			"source":    src,
		})
	}
	records := []types.Record{
		rec("a", 5, json.Number("2019")),
		rec("b", 10, nil),
		rec("c", 5, json.Number("2021")),
		rec("d", 5, "n/a"),
		rec("e", 10, json.Number("1999")),
		rec("f", 5, json.Number("2021")),
		rec("g", 5, nil),
	}
	SortRecords(records)

	var got []string
	for _, r := range records {
		got = append(got, r.UID())
	}
	assert.Equal(t, []string{"e", "b", "c", "f", "a", "d", "g"}, got)
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
