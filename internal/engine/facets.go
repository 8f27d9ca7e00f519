// Package engine - Filter facets
package engine

import (
	catalogerrors "github.com/aethra/catalog/internal/errors"
	"github.com/aethra/catalog/internal/models"
	"github.com/aethra/catalog/internal/security"
	"github.com/google/uuid"
)

// ListFacets returns the distinct values of one searchable field, or of all
// of them when fieldName is empty. Used to populate filter dropdowns.
func (e *SearchEngine) ListFacets(tenantID uuid.UUID, fieldName string) (map[string][]string, error) {
	searchable, err := e.configs.SearchableFields(tenantID)
	if err != nil {
		return nil, err
	}

	var names []string
	if fieldName != "" {
		if _, ok := searchable[fieldName]; !ok {
			return nil, catalogerrors.NewUnknownFieldError(fieldName)
		}
		names = []string{fieldName}
	} else {
		names = sortedKeys(searchable)
	}

	facets := make(map[string][]string, len(names))
	for _, name := range names {
		var values []string
		if IsStandardField(name) {
			values, err = e.standardDistinct(tenantID, name)
		} else {
			values, err = e.attrs.DistinctValues(tenantID, name)
		}
		if err != nil {
			return nil, err
		}
		facets[name] = values
	}
	return facets, nil
}

// standardDistinct scans one structured column for its distinct values.
// The column name comes from the fixed standard set, but is still validated
// before it reaches generated SQL.
func (e *SearchEngine) standardDistinct(tenantID uuid.UUID, name string) ([]string, error) {
	col, err := security.SafeIdentifier(name)
	if err != nil {
		return nil, err
	}

	expr := col
	if StandardFieldType(name) == FieldTypeNumber {
		expr = "CAST(" + col + " AS TEXT)"
	}

	var values []string
	err = e.db.Model(&models.Product{}).
		Distinct(expr).
		Where("tenant_id = ?", tenantID).
		Where(col + " IS NOT NULL").
		Order(expr).
		Pluck(expr, &values).Error
	if err != nil {
		return nil, err
	}

	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}
