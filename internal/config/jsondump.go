package config

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// JSONDump accumulates a JSON document incrementally via tidwall/sjson,
// instead of building a Go struct purely for json.Marshal's sake — each
// caller sets only the paths it owns, without needing a single shared struct
// definition across packages. internal/types' Registry.Dump calls sjson
// directly rather than going through JSONDump.
type JSONDump struct {
	raw string
}

// NewJSONDump returns an empty `{}` document.
func NewJSONDump() *JSONDump { return &JSONDump{raw: "{}"} }

// Set writes value at path, following sjson's dotted/indexed path syntax
// (e.g. "types.0.name").
func (d *JSONDump) Set(path string, value any) error {
	next, err := sjson.Set(d.raw, path, value)
	if err != nil {
		return err
	}
	d.raw = next
	return nil
}

// SetRaw writes a pre-encoded JSON fragment at path verbatim, for callers
// that already hold a JSON array/object string (e.g. a nested dumper's own
// output) rather than a single scalar value.
func (d *JSONDump) SetRaw(path, rawJSON string) error {
	next, err := sjson.SetRaw(d.raw, path, rawJSON)
	if err != nil {
		return err
	}
	d.raw = next
	return nil
}

// String returns the accumulated JSON document.
func (d *JSONDump) String() string { return d.raw }

// Query extracts one value from a JSON document by gjson path (e.g.
// "types.0.name").
func Query(jsonDoc, path string) gjson.Result {
	return gjson.Get(jsonDoc, path)
}
