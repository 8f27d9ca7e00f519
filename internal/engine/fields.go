// Package engine contains the catalog core: the attribute value store,
// real-time field discovery, field configuration, and the search compiler.
// Nothing in here caches a schema; the set of fields a tenant has is always
// recomputed from live data.
package engine

import (
	"strconv"
	"strings"
)

// Field value types
const (
	FieldTypeString  = "string"
	FieldTypeNumber  = "number"
	FieldTypeBoolean = "boolean"
)

// StandardFieldNames lists the fixed product columns, in display order.
// Every other field a tenant uses lives in product_attributes.
var StandardFieldNames = []string{
	"sku_id",
	"price",
	"manufacturer",
	"supplier",
	"image_url",
	"category_id",
}

// standardFieldTypes maps each standard column to its declared type
var standardFieldTypes = map[string]string{
	"sku_id":       FieldTypeString,
	"price":        FieldTypeNumber,
	"manufacturer": FieldTypeString,
	"supplier":     FieldTypeString,
	"image_url":    FieldTypeString,
	"category_id":  FieldTypeNumber,
}

// IsStandardField reports whether name is one of the fixed product columns
func IsStandardField(name string) bool {
	_, ok := standardFieldTypes[name]
	return ok
}

// StandardFieldType returns the declared type of a standard column
func StandardFieldType(name string) string {
	if t, ok := standardFieldTypes[name]; ok {
		return t
	}
	return FieldTypeString
}

// =============================================================================
// TYPED VALUES
// =============================================================================

// TypedValue is the tagged union for one stored attribute value. The tag is
// inferred from the upload pipeline's hint at write time and re-validated
// against the raw text at read time, so comparisons never dispatch on an
// untyped blob.
type TypedValue struct {
	Kind string  `json:"kind"`
	Str  string  `json:"str,omitempty"`
	Num  float64 `json:"num,omitempty"`
	Bool bool    `json:"bool,omitempty"`
}

// NewTypedValue builds a TypedValue from raw text and a type hint. A hint
// the raw text does not satisfy falls back to string.
func NewTypedValue(raw, hint string) TypedValue {
	raw = strings.TrimSpace(raw)
	switch hint {
	case FieldTypeNumber:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return TypedValue{Kind: FieldTypeNumber, Num: n}
		}
	case FieldTypeBoolean:
		if b, ok := parseBoolToken(raw); ok {
			return TypedValue{Kind: FieldTypeBoolean, Bool: b}
		}
	}
	return TypedValue{Kind: FieldTypeString, Str: raw}
}

// String returns the raw text form of the value
func (v TypedValue) String() string {
	switch v.Kind {
	case FieldTypeNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case FieldTypeBoolean:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// InferType guesses a type hint from raw text. Used when the upload
// pipeline supplies none (e.g. rows pulled from an import source).
func InferType(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return FieldTypeString
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return FieldTypeNumber
	}
	if _, ok := parseBoolToken(raw); ok {
		return FieldTypeBoolean
	}
	return FieldTypeString
}

func parseBoolToken(raw string) (bool, bool) {
	switch strings.ToLower(raw) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// splitFilterValues splits a comma-separated filter value into trimmed,
// non-empty candidates. An empty result means "no filter", never
// "match nothing".
func splitFilterValues(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			values = append(values, v)
		}
	}
	return values
}
