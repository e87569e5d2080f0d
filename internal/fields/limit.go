// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fields maps Starter API records onto the flat WoS export columns.
// Each column is a name plus a total extraction function over one record;
// the registry keeps them in schema order so projection and tests never
// depend on map iteration.
package fields

import (
	"fmt"
	"strconv"
	"strings"
)

// Ellipsis separates the head of a limited list from its last entry.
const Ellipsis = "..."

// listSep joins list-valued cells.
const listSep = "; "

// AuthorLimit bounds how many entries list-valued author columns render.
// The zero value is unbounded.
type AuthorLimit struct {
	n       int
	bounded bool
}

// Unbounded renders every entry.
func Unbounded() AuthorLimit { return AuthorLimit{} }

// Limit renders the first n entries plus the last one. n <= 0 renders
// every entry.
func Limit(n int) AuthorLimit { return AuthorLimit{n: n, bounded: true} }

// ParseAuthorLimit accepts "ALL" (any case) or a base-10 integer.
func ParseAuthorLimit(s string) (AuthorLimit, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "ALL") {
		return Unbounded(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return AuthorLimit{}, fmt.Errorf("author limit %q: want an integer or ALL", s)
	}
	return Limit(n), nil
}

// IsUnbounded reports whether every entry is rendered regardless of length.
func (l AuthorLimit) IsUnbounded() bool { return !l.bounded || l.n <= 0 }

// N returns the head size, or 0 when unbounded.
func (l AuthorLimit) N() int {
	if l.IsUnbounded() {
		return 0
	}
	return l.n
}

// String renders the limit the way it is parsed.
func (l AuthorLimit) String() string {
	if !l.bounded {
		return "ALL"
	}
	return strconv.Itoa(l.n)
}

// Describe is the human form used in the run summary.
func (l AuthorLimit) Describe() string {
	if !l.bounded {
		return "ALL"
	}
	return fmt.Sprintf("First %d + last (if longer)", l.n)
}

// Select returns the indices of a list of length n to render. When the
// list is cut, head holds the first N indices and tail is the last index;
// otherwise head covers the whole list and cut is false.
func (l AuthorLimit) Select(n int) (head []int, tail int, cut bool) {
	if l.IsUnbounded() || n <= l.n {
		head = make([]int, n)
		for i := range head {
			head[i] = i
		}
		return head, -1, false
	}
	head = make([]int, l.n)
	for i := range head {
		head[i] = i
	}
	return head, n - 1, true
}

// Apply joins items under the limit: "a; b; ...; z" when cut.
func (l AuthorLimit) Apply(items []string) string {
	head, tail, cut := l.Select(len(items))
	parts := make([]string, 0, len(head)+2)
	for _, i := range head {
		parts = append(parts, items[i])
	}
	if cut {
		parts = append(parts, Ellipsis, items[tail])
	}
	return strings.Join(parts, listSep)
}
