// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fields

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/starter-export/pkg/types"
)

const (
	doiBase    = "https://doi.org/"
	recordBase = "https://www.webofscience.com/wos/woscc/full-record/"

	citationDB = "WOS"
)

// Scalar normalizes a raw JSON value into a cell value: string, int64,
// float64, bool, or nil. Integral numbers become int64. Lists are joined
// and de-duplicated. Objects have no cell form and yield nil.
func Scalar(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < math.MaxInt64 {
			return int64(x)
		}
		return x
	case int:
		return int64(x)
	case int64:
		return x
	case bool:
		return x
	case []any:
		return JoinUnique(x)
	default:
		return nil
	}
}

// JoinUnique joins the non-null values with "; ", keeping the first
// occurrence of each.
func JoinUnique(vals []any) string {
	seen := make(map[string]bool, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		s := text(v)
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return strings.Join(out, listSep)
}

func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i), true
		}
		if f, err := x.Float64(); err == nil {
			return int(f), true
		}
	case float64:
		return int(x), true
	case int:
		return x, true
	case int64:
		return int(x), true
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// Citations returns the WoS citation count: the entry whose db is WOS,
// else the first entry, else 0. Malformed counts yield 0.
func Citations(r types.Record) int {
	cites := r.List("citations")
	if len(cites) == 0 {
		return 0
	}
	pick := cites[0]
	for _, c := range cites {
		obj, ok := c.(map[string]any)
		if ok && strings.EqualFold(str(obj["db"]), citationDB) {
			pick = c
			break
		}
	}
	obj, ok := pick.(map[string]any)
	if !ok {
		return 0
	}
	if obj["count"] == nil {
		return 0
	}
	n, ok := toInt(obj["count"])
	if !ok {
		return 0
	}
	return n
}

// PublishYear returns source.publishYear as an integer, or false when it
// is missing or unparsable.
func PublishYear(r types.Record) (int, bool) {
	return toInt(r.Get("source", "publishYear"))
}

// sourceTypes returns the record's source types as strings.
func sourceTypes(r types.Record) []string {
	raw := r.List("sourceTypes")
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// PublicationType classifies a record as B (book), C (proceedings only),
// or J (everything else). The book rule is checked first.
func PublicationType(r types.Record) string {
	st := sourceTypes(r)
	clean := make(map[string]bool, len(st))
	for _, s := range st {
		if s == "Book" {
			return "B"
		}
		if s != "" {
			clean[s] = true
		}
	}
	if len(clean) == 1 && clean["Proceedings Paper"] {
		return "C"
	}
	return "J"
}

// MeetingAbstract is "Yes" when the source types include Meeting Abstract.
func MeetingAbstract(r types.Record) string {
	for _, s := range sourceTypes(r) {
		if s == "Meeting Abstract" {
			return "Yes"
		}
	}
	return ""
}

// DOILink is the resolver URL for the record's DOI, or "" without one.
func DOILink(r types.Record) string {
	v := Scalar(r.Get("identifiers", "doi"))
	if v == nil || v == "" {
		return ""
	}
	return doiBase + text(v)
}

// RecordLink is the Web of Science full-record URL, or "" without a uid.
func RecordLink(r types.Record) string {
	uid := r.UID()
	if uid == "" {
		return ""
	}
	return recordBase + uid
}

// authors returns names.authors as objects, wrapping a lone object.
func authors(r types.Record) []map[string]any {
	raw := r.List("names", "authors")
	out := make([]map[string]any, 0, len(raw))
	for _, a := range raw {
		if obj, ok := a.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// AuthorNames renders one name field of every author under limit,
// skipping authors without that field.
func AuthorNames(r types.Record, field string, limit AuthorLimit) string {
	var names []string
	for _, a := range authors(r) {
		if n := str(a[field]); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return ""
	}
	return limit.Apply(names)
}

// ResearcherIDs renders "name/rid" pairs for the authors selected by
// limit. Authors without a researcher id are skipped. When the list is
// cut, an ellipsis separates the head pairs from the last author's pair.
func ResearcherIDs(r types.Record, limit AuthorLimit) string {
	list := authors(r)
	head, tail, cut := limit.Select(len(list))

	pairs := make([]string, 0, len(head)+2)
	for _, i := range head {
		if p := researcherPair(list[i]); p != "" {
			pairs = append(pairs, p)
		}
	}
	if cut {
		last := researcherPair(list[tail])
		if len(pairs) > 0 || last != "" {
			pairs = append(pairs, Ellipsis)
		}
		if last != "" {
			pairs = append(pairs, last)
		}
	}
	return strings.Join(pairs, listSep)
}

func researcherPair(a map[string]any) string {
	rid := str(a["researcherId"])
	if rid == "" {
		return ""
	}
	name := str(a["displayName"])
	if name == "" {
		name = str(a["wosStandard"])
	}
	if name == "" {
		return rid
	}
	return name + "/" + rid
}

// NameList returns the display names under names.<primary>, falling back
// to names.<fallback> when the primary list is empty.
func NameList(r types.Record, primary, fallback string) []string {
	raw := r.List("names", primary)
	if len(raw) == 0 && fallback != "" {
		raw = r.List("names", fallback)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var n string
		if obj, ok := item.(map[string]any); ok {
			n = str(obj["displayName"])
		} else if item != nil {
			n = strings.TrimSpace(text(item))
		}
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
