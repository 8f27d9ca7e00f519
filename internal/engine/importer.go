// Package engine - Import from external sources
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	catalogerrors "github.com/aethra/catalog/internal/errors"
	"github.com/aethra/catalog/internal/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Importer pulls product rows out of a tenant's import source and feeds
// them through the standard upload pipeline.
type Importer struct {
	db       *gorm.DB
	cm       *ConnectionManager
	products *ProductEngine
}

// NewImporter creates a new importer
func NewImporter(db *gorm.DB, cm *ConnectionManager, products *ProductEngine) *Importer {
	return &Importer{db: db, cm: cm, products: products}
}

// ImportFromSource reads the configured table of one import source and
// ingests its rows. Returns the number of products written. Source table
// and column names are validated before any SQL is generated against the
// external database.
func (im *Importer) ImportFromSource(ctx context.Context, tenantID, sourceID uuid.UUID) (int, error) {
	src, err := im.cm.GetSource(tenantID, sourceID)
	if err != nil {
		return 0, err
	}
	if src.SourceTable == "" || len(src.Columns) == 0 {
		return 0, catalogerrors.NewValidationError("source", "import source has no table or columns configured")
	}

	table, err := security.SafeIdentifier(src.SourceTable)
	if err != nil {
		return 0, catalogerrors.NewValidationError("table_name", err.Error())
	}
	quoted := make([]string, 0, len(src.Columns))
	skuIdx := -1
	for i, col := range src.Columns {
		q, err := security.SafeIdentifier(col)
		if err != nil {
			return 0, catalogerrors.NewValidationError("columns", err.Error())
		}
		if col == "sku_id" {
			skuIdx = i
		}
		quoted = append(quoted, q)
	}
	if skuIdx < 0 {
		return 0, catalogerrors.NewValidationError("columns", "a sku_id column is required")
	}

	conn, err := im.cm.GetConnection(ctx, tenantID, sourceID)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), table)
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []ImportRow
	for rows.Next() {
		values := make([]sql.NullString, len(src.Columns))
		ptrs := make([]interface{}, len(values))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return 0, err
		}
		batch = append(batch, buildImportRow(src.Columns, values))
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	imported, err := im.products.ImportRows(tenantID, batch)
	if err != nil {
		return 0, err
	}

	if err := im.db.Model(src).Update("last_imported_at", gorm.Expr("CURRENT_TIMESTAMP")).Error; err != nil {
		return 0, err
	}
	return len(imported), nil
}

// buildImportRow splits one scanned row into standard columns and dynamic
// attributes, the same shape the upload pipeline delivers. Type hints are
// inferred from the raw text since external sources carry none.
func buildImportRow(columns []string, values []sql.NullString) ImportRow {
	var row ImportRow
	for i, col := range columns {
		if !values[i].Valid {
			continue
		}
		raw := strings.TrimSpace(values[i].String)
		if raw == "" {
			continue
		}
		switch col {
		case "sku_id":
			row.Product.SkuID = raw
		case "price":
			if v := NewTypedValue(raw, FieldTypeNumber); v.Kind == FieldTypeNumber {
				price := v.Num
				row.Product.Price = &price
			}
		case "category_id":
			if v := NewTypedValue(raw, FieldTypeNumber); v.Kind == FieldTypeNumber && v.Num >= 0 {
				id := uint(v.Num)
				row.Product.CategoryID = &id
			}
		case "manufacturer":
			row.Product.Manufacturer = raw
		case "supplier":
			row.Product.Supplier = raw
		case "image_url":
			row.Product.ImageURL = raw
		default:
			row.Attributes = append(row.Attributes, AttributeInput{
				FieldName: col,
				Value:     raw,
				TypeHint:  InferType(raw),
			})
		}
	}
	return row
}
