// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// AbsentValue marks a field the schema declares but the response item did
// not contain. It is a distinct type so callers can tell "field missing
// from the device output" apart from an empty string the device returned.
type AbsentValue struct{}

// Absent is the singleton absent marker inserted by normalization.
var Absent = AbsentValue{}

func (AbsentValue) String() string { return "<absent>" }

// MarshalJSON renders the absent marker as JSON null.
func (AbsentValue) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// MarshalYAML renders the absent marker as a YAML null.
func (AbsentValue) MarshalYAML() (interface{}, error) { return nil, nil }

// IsAbsent reports whether v is the absent marker.
func IsAbsent(v any) bool {
	_, ok := v.(AbsentValue)
	return ok
}

// Pair is one extracted (field name, value) pair within a raw item. Value
// is a string for scalar fields, []string for multi-valued fields, or
// []RawItem for nested-table fields.
type Pair struct {
	Name  string `json:"name" yaml:"name"`
	Value any    `json:"value" yaml:"value"`
}

// RawItem is the unnormalized extraction output for one repeating element
// of a device response: the item's key plus its field pairs in schema
// declaration order.
type RawItem struct {
	// Key is the value of the schema's key locator for this item, or ""
	// when the schema declares no key.
	Key string `json:"key" yaml:"key"`

	// Fields holds the extracted pairs in field-rule declaration order.
	Fields []Pair `json:"fields" yaml:"fields"`
}

// Record is one canonical normalized record: every field name the schema
// declares maps to its extracted value or to Absent.
type Record map[string]any

// ResponseType selects the shape of the extraction output.
type ResponseType string

const (
	// ResponseRecords returns canonical normalized records.
	ResponseRecords ResponseType = "records"

	// ResponseItems returns the raw item/pairs structure unchanged, for
	// consumers that want the original key grouping.
	ResponseItems ResponseType = "items"
)

// ParseResponseType validates a response-type string from a flag or config.
func ParseResponseType(s string) (ResponseType, error) {
	switch ResponseType(s) {
	case ResponseRecords, ResponseItems:
		return ResponseType(s), nil
	}
	return "", fmt.Errorf("invalid response type %q (expected %q or %q)", s, ResponseRecords, ResponseItems)
}

// Result is the terminal output of one extraction run. Exactly one of
// Records or Items is populated, selected by Type.
type Result struct {
	// Table is the schema name the run used.
	Table string `json:"table" yaml:"table"`

	// Host is the device endpoint the data came from.
	Host string `json:"host" yaml:"host"`

	// Count is the number of items the response produced.
	Count int `json:"count" yaml:"count"`

	// Type records which output shape was requested.
	Type ResponseType `json:"response_type" yaml:"response_type"`

	// Fields lists the schema's declared field names in order, so map
	// output can be rendered in a stable column order.
	Fields []string `json:"fields" yaml:"fields"`

	// Records holds canonical records when Type is ResponseRecords.
	Records []Record `json:"records,omitempty" yaml:"records,omitempty"`

	// Items holds raw items when Type is ResponseItems.
	Items []RawItem `json:"items,omitempty" yaml:"items,omitempty"`
}
