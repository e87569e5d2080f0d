// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the starter-export pipeline:
// the search hit as returned by the Starter API and the immutable
// configuration values handed to each stage.
package types

import (
	"bytes"
	"encoding/json"
)

// Record is one search hit. Data is the decoded JSON object exactly as the
// API returned it; numbers are json.Number. Any nested section (names,
// source, identifiers, citations, sourceTypes, keywords) may be absent.
type Record struct {
	Data map[string]any `json:"data" yaml:"data"`

	// DeclaredTotal is the result count the API reported on the first page.
	DeclaredTotal int `json:"declared_total" yaml:"declared_total"`
}

// NewRecord wraps a decoded hit.
func NewRecord(data map[string]any) Record {
	if data == nil {
		data = map[string]any{}
	}
	return Record{Data: data}
}

// UID returns the record's unique WoS identifier, or "" when absent.
func (r Record) UID() string {
	s, _ := r.Get("uid").(string)
	return s
}

// Get walks path through nested objects and returns the value found, or
// nil when any step is missing, null, or not an object.
func (r Record) Get(path ...string) any {
	v, _ := r.Lookup(path...)
	return v
}

// Lookup is Get with an explicit presence flag. A present JSON null
// reports false.
func (r Record) Lookup(path ...string) (any, bool) {
	var cur any = r.Data
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// List returns the value at path as a slice. A scalar is wrapped in a
// one-element slice; anything missing yields nil.
func (r Record) List(path ...string) []any {
	v, ok := r.Lookup(path...)
	if !ok {
		return nil
	}
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

// DecodeRecord parses a JSON object into a Record, keeping numbers exact.
func DecodeRecord(raw []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return Record{}, err
	}
	return NewRecord(data), nil
}
