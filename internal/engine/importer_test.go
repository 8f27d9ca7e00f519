package engine

import (
	"database/sql"
	"testing"
)

func TestBuildImportRow(t *testing.T) {
	columns := []string{"sku_id", "price", "manufacturer", "brand", "weight", "empty_col"}
	values := []sql.NullString{
		{String: "SKU-1", Valid: true},
		{String: "19.99", Valid: true},
		{String: "Sony", Valid: true},
		{String: "Alpha", Valid: true},
		{String: "12.5", Valid: true},
		{Valid: false},
	}

	row := buildImportRow(columns, values)

	if row.Product.SkuID != "SKU-1" {
		t.Errorf("sku = %q", row.Product.SkuID)
	}
	if row.Product.Price == nil || *row.Product.Price != 19.99 {
		t.Errorf("price = %v, want 19.99", row.Product.Price)
	}
	if row.Product.Manufacturer != "Sony" {
		t.Errorf("manufacturer = %q", row.Product.Manufacturer)
	}

	if len(row.Attributes) != 2 {
		t.Fatalf("attributes = %+v, want brand and weight", row.Attributes)
	}
	if row.Attributes[0].FieldName != "brand" || row.Attributes[0].TypeHint != FieldTypeString {
		t.Errorf("attr 0 = %+v", row.Attributes[0])
	}
	if row.Attributes[1].FieldName != "weight" || row.Attributes[1].TypeHint != FieldTypeNumber {
		t.Errorf("attr 1 = %+v", row.Attributes[1])
	}
}

func TestBuildImportRow_BadNumericColumns(t *testing.T) {
	columns := []string{"sku_id", "price"}
	values := []sql.NullString{
		{String: "SKU-1", Valid: true},
		{String: "call us", Valid: true},
	}

	row := buildImportRow(columns, values)
	if row.Product.Price != nil {
		t.Errorf("unparseable price kept: %v", *row.Product.Price)
	}
}
