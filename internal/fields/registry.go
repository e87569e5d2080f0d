// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fields

import (
	"fmt"
	"time"

	"github.com/pdiddy/starter-export/pkg/types"
)

// Extractor derives one cell from a record. It must not mutate the record.
type Extractor func(types.Record) any

// Column is a header paired with its extractor. A nil Extract always
// yields an empty cell.
type Column struct {
	Name    string
	Extract Extractor
}

// Value runs the extractor, converting a panic into an empty cell.
func (c Column) Value(r types.Record) (v any, err error) {
	if c.Extract == nil {
		return "", nil
	}
	defer func() {
		if p := recover(); p != nil {
			v, err = "", fmt.Errorf("column %q: %v", c.Name, p)
		}
	}()
	return c.Extract(r), nil
}

// Registry is the ordered table of every column the exporter can fill.
type Registry struct {
	columns []Column
	index   map[string]int
}

func path(keys ...string) Extractor {
	return func(r types.Record) any { return Scalar(r.Get(keys...)) }
}

func joined(f func(types.Record) []string) Extractor {
	return func(r types.Record) any {
		names := f(r)
		vals := make([]any, len(names))
		for i, n := range names {
			vals[i] = n
		}
		return JoinUnique(vals)
	}
}

// NewRegistry builds the column table. limit applies to the author name
// and researcher id columns; now stamps the Date of Export column.
func NewRegistry(limit AuthorLimit, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	bookAuthors := joined(func(r types.Record) []string { return NameList(r, "books", "") })

	cols := []Column{
		{ColPublicationType, func(r types.Record) any { return PublicationType(r) }},
		{"Authors", func(r types.Record) any { return AuthorNames(r, "wosStandard", limit) }},
		{"Book Authors", bookAuthors},
		{"Book Editors", joined(func(r types.Record) []string { return NameList(r, "bookEditors", "") })},
		{"Book Group Authors", joined(func(r types.Record) []string { return NameList(r, "bookCorp", "") })},
		{"Author Full Names", func(r types.Record) any { return AuthorNames(r, "displayName", limit) }},
		{"Book Author Full Names", bookAuthors},
		{"Group Authors", joined(func(r types.Record) []string { return NameList(r, "corp", "groupAuthors") })},
		{"Article Title", path("title")},
		{"Source Title", path("source", "sourceTitle")},
		{"Document Type", func(r types.Record) any { return JoinUnique(r.List("sourceTypes")) }},
		{"Author Keywords", func(r types.Record) any { return JoinUnique(r.List("keywords", "authorKeywords")) }},
		{"Researcher Ids", func(r types.Record) any { return ResearcherIDs(r, limit) }},
		{ColORCIDs, func(types.Record) any { return "" }},
		{"Times Cited, WoS Core", func(r types.Record) any { return int64(Citations(r)) }},
		{"ISSN", path("identifiers", "issn")},
		{"eISSN", path("identifiers", "eissn")},
		{"ISBN", path("identifiers", "isbn")},
		{"Publication Date", path("source", "publishMonth")},
		{"Publication Year", path("source", "publishYear")},
		{"Volume", path("source", "volume")},
		{"Issue", path("source", "issue")},
		{"Supplement", path("source", "supplement")},
		{"Special Issue", path("source", "specialIssue")},
		{"Meeting Abstract", func(r types.Record) any { return MeetingAbstract(r) }},
		{"Start Page", path("source", "pages", "begin")},
		{"End Page", path("source", "pages", "end")},
		{"Article Number", path("source", "articleNumber")},
		{"DOI", path("identifiers", "doi")},
		{ColDOILink, func(r types.Record) any { return DOILink(r) }},
		{"Number of Pages", path("source", "pages", "count")},
		{"Pubmed Id", path("identifiers", "pmid")},
		{"Date of Export", func(types.Record) any { return now().Format(time.DateOnly) }},
		{ColUT, func(r types.Record) any { return r.UID() }},
		{ColRecordLink, func(r types.Record) any { return RecordLink(r) }},
	}

	reg := &Registry{columns: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		reg.index[c.Name] = i
	}
	return reg
}

// Lookup returns the column registered under name.
func (r *Registry) Lookup(name string) (Column, bool) {
	i, ok := r.index[name]
	if !ok {
		return Column{Name: name}, false
	}
	return r.columns[i], true
}

// Names lists the registered columns in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.columns))
	for i, c := range r.columns {
		out[i] = c.Name
	}
	return out
}

// Columns resolves headers into columns in header order. Headers without
// an extractor become blank columns.
func (r *Registry) Columns(headers []string) []Column {
	out := make([]Column, len(headers))
	for i, h := range headers {
		out[i], _ = r.Lookup(h)
	}
	return out
}
