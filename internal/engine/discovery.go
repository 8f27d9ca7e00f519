// Package engine - Field Discovery
// Computes, on every call, the set of field names actually in use for a
// tenant. There is no cached schema: products are uploaded asynchronously
// and fields appear and disappear as data changes.
package engine

import (
	"github.com/google/uuid"
)

// FieldInfo describes one discovered field
type FieldInfo struct {
	FieldName  string `json:"field_name"`
	IsStandard bool   `json:"is_standard"`
	SampleType string `json:"sample_type"`
}

// DiscoveryEngine derives the live field set from the attribute store
type DiscoveryEngine struct {
	attrs *AttributeStore
}

// NewDiscoveryEngine creates a new discovery engine
func NewDiscoveryEngine(attrs *AttributeStore) *DiscoveryEngine {
	return &DiscoveryEngine{attrs: attrs}
}

// Discover returns the standard columns first, then the dynamic fields
// currently present in the tenant's data, alphabetically. A tenant with no
// products gets just the standard columns; that is not an error.
func (e *DiscoveryEngine) Discover(tenantID uuid.UUID) ([]FieldInfo, error) {
	fields := make([]FieldInfo, 0, len(StandardFieldNames))
	for _, name := range StandardFieldNames {
		fields = append(fields, FieldInfo{
			FieldName:  name,
			IsStandard: true,
			SampleType: StandardFieldType(name),
		})
	}

	entries, err := e.attrs.GetAll(tenantID)
	if err != nil {
		return nil, err
	}

	// GetAll orders by field_name, so one pass per field suffices.
	// A dynamic field shadowed by a standard name is skipped; the standard
	// column always wins.
	var current string
	var values []TypedValue
	flush := func() {
		if current != "" && !IsStandardField(current) {
			fields = append(fields, FieldInfo{
				FieldName:  current,
				SampleType: sampleType(values),
			})
		}
		values = values[:0]
	}
	for _, entry := range entries {
		if entry.FieldName != current {
			flush()
			current = entry.FieldName
		}
		values = append(values, entry.Value)
	}
	flush()

	return fields, nil
}

// FieldSet returns the discovered fields keyed by name
func (e *DiscoveryEngine) FieldSet(tenantID uuid.UUID) (map[string]FieldInfo, error) {
	fields, err := e.Discover(tenantID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]FieldInfo, len(fields))
	for _, f := range fields {
		set[f.FieldName] = f
	}
	return set, nil
}

// sampleType infers a field's type from its observed values: number if all
// values are numeric, boolean if restricted to true/false tokens, string
// otherwise.
func sampleType(values []TypedValue) string {
	if len(values) == 0 {
		return FieldTypeString
	}
	allNumber, allBool := true, true
	for _, v := range values {
		raw := v.String()
		if InferType(raw) != FieldTypeNumber {
			allNumber = false
		}
		if _, ok := parseBoolToken(raw); !ok {
			allBool = false
		}
		if !allNumber && !allBool {
			return FieldTypeString
		}
	}
	if allNumber {
		return FieldTypeNumber
	}
	return FieldTypeBoolean
}
