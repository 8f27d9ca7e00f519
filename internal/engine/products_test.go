package engine

import (
	"sort"
	"testing"

	"github.com/aethra/catalog/internal/config"
	catalogerrors "github.com/aethra/catalog/internal/errors"
	"github.com/aethra/catalog/internal/models"
)

func TestProduct_CreateAndGet(t *testing.T) {
	e := setupEngines(t)
	tenantID := newTestTenant(t, e.db)

	product, err := e.products.Create(tenantID, ProductInput{
		SkuID:        "SKU-1",
		Price:        floatPtr(19.99),
		Manufacturer: "Sony",
		Attributes: []AttributeInput{
			{FieldName: "color", Value: "black"},
		},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if product.ID == 0 {
		t.Fatal("product got no ID")
	}
	if len(product.Attributes) != 1 || product.Attributes[0].FieldName != "color" {
		t.Errorf("attributes = %+v, want color", product.Attributes)
	}

	_, err = e.products.Create(tenantID, ProductInput{})
	if err == nil {
		t.Fatal("expected validation error for missing sku_id")
	}
}

func TestProduct_UpdatePatchSemantics(t *testing.T) {
	e := setupEngines(t)
	tenantID := newTestTenant(t, e.db)
	product := seedProduct(t, e, tenantID, ProductInput{
		SkuID:        "SKU-1",
		Price:        floatPtr(10),
		Manufacturer: "Sony",
	})

	updated, err := e.products.Update(tenantID, product.ID, ProductPatch{
		Price: floatPtr(12),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Price == nil || *updated.Price != 12 {
		t.Errorf("price = %v, want 12", updated.Price)
	}
	// Untouched fields survive
	if updated.Manufacturer != "Sony" {
		t.Errorf("manufacturer = %q, want Sony untouched", updated.Manufacturer)
	}
}

func TestProduct_UpdateRejectsNonEditable(t *testing.T) {
	e := setupEngines(t)
	tenantID := newTestTenant(t, e.db)
	product := seedProduct(t, e, tenantID, ProductInput{
		SkuID: "SKU-1",
		Price: floatPtr(10),
		Attributes: []AttributeInput{
			{FieldName: "brand", Value: "Sony"},
		},
	})

	for _, name := range []string{"price", "brand"} {
		if _, err := e.configs.UpsertOne(tenantID, name, FieldConfigInput{IsEditable: boolPtr(false)}); err != nil {
			t.Fatalf("config failed: %v", err)
		}
	}

	_, err := e.products.Update(tenantID, product.ID, ProductPatch{
		Price:        floatPtr(99),
		Manufacturer: strPtr("Acme"),
		Attributes: []AttributeInput{
			{FieldName: "brand", Value: "Samsung"},
		},
	})
	if err == nil {
		t.Fatal("expected not-editable rejection")
	}
	ce, ok := err.(catalogerrors.CatalogError)
	if !ok || ce.Code() != "NOT_EDITABLE" {
		t.Fatalf("got %v, want NOT_EDITABLE", err)
	}
	// Every offending field is named, not just the first
	ne := err.(*catalogerrors.NotEditableError)
	sort.Strings(ne.FieldNames)
	if len(ne.FieldNames) != 2 || ne.FieldNames[0] != "brand" || ne.FieldNames[1] != "price" {
		t.Errorf("offending fields = %v, want [brand price]", ne.FieldNames)
	}

	// Nothing was written, not even the editable manufacturer
	current, err := e.products.Get(tenantID, product.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if *current.Price != 10 || current.Manufacturer != "" {
		t.Errorf("rejected update leaked writes: price=%v manufacturer=%q", *current.Price, current.Manufacturer)
	}
	attrs, _ := e.attrs.Get(tenantID, product.ID)
	if attrs[0].Value.String() != "Sony" {
		t.Errorf("attribute changed to %q despite rejection", attrs[0].Value.String())
	}
}

func TestProduct_UpdateUntouchedNonEditableOK(t *testing.T) {
	e := setupEngines(t)
	tenantID := newTestTenant(t, e.db)
	product := seedProduct(t, e, tenantID, ProductInput{SkuID: "SKU-1", Price: floatPtr(10)})

	if _, err := e.configs.UpsertOne(tenantID, "price", FieldConfigInput{IsEditable: boolPtr(false)}); err != nil {
		t.Fatalf("config failed: %v", err)
	}

	// Locked fields only block when the patch touches them
	updated, err := e.products.Update(tenantID, product.ID, ProductPatch{
		Manufacturer: strPtr("Sony"),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Manufacturer != "Sony" {
		t.Errorf("manufacturer = %q, want Sony", updated.Manufacturer)
	}
}

func TestProduct_DeleteCascadesAttributes(t *testing.T) {
	e := setupEngines(t)
	tenantID := newTestTenant(t, e.db)
	product := seedProduct(t, e, tenantID, ProductInput{
		SkuID: "SKU-1",
		Attributes: []AttributeInput{
			{FieldName: "color", Value: "red"},
			{FieldName: "brand", Value: "Sony"},
		},
	})

	if err := e.products.Delete(tenantID, product.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := e.products.Get(tenantID, product.ID); err == nil {
		t.Error("product still retrievable after delete")
	}
	var orphans int64
	e.db.Model(&models.ProductAttribute{}).Where("product_id = ?", product.ID).Count(&orphans)
	if orphans != 0 {
		t.Errorf("found %d orphaned attribute rows", orphans)
	}
}

func TestProduct_TenantScoping(t *testing.T) {
	e := setupEngines(t)
	tenantA := newTestTenant(t, e.db)
	tenantB := newTestTenant(t, e.db)
	product := seedProduct(t, e, tenantA, ProductInput{SkuID: "SKU-1"})

	if _, err := e.products.Get(tenantB, product.ID); err == nil {
		t.Error("cross-tenant get must fail")
	}
	if err := e.products.Delete(tenantB, product.ID); err == nil {
		t.Error("cross-tenant delete must fail")
	}
}

func TestProduct_ImportRowsUpsertBySku(t *testing.T) {
	e := setupEngines(t)
	tenantID := newTestTenant(t, e.db)

	first, err := e.products.ImportRows(tenantID, []ImportRow{
		{Product: ProductInput{SkuID: "SKU-1", Price: floatPtr(10)}, Attributes: []AttributeInput{
			{FieldName: "brand", Value: "Sony"},
		}},
		{Product: ProductInput{SkuID: "SKU-2", Price: floatPtr(20)}},
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("imported %d products, want 2", len(first))
	}

	// Re-import with the same sku updates in place
	second, err := e.products.ImportRows(tenantID, []ImportRow{
		{Product: ProductInput{SkuID: "SKU-1", Price: floatPtr(15)}, Attributes: []AttributeInput{
			{FieldName: "brand", Value: "Samsung"},
		}},
	})
	if err != nil {
		t.Fatalf("re-import failed: %v", err)
	}
	if second[0].ID != first[0].ID {
		t.Errorf("re-import created a new product: %d != %d", second[0].ID, first[0].ID)
	}
	if *second[0].Price != 15 {
		t.Errorf("price = %v, want 15", *second[0].Price)
	}

	var total int64
	e.db.Model(&models.Product{}).Where("tenant_id = ?", tenantID).Count(&total)
	if total != 2 {
		t.Errorf("product count = %d, want 2", total)
	}
	attrs, _ := e.attrs.Get(tenantID, first[0].ID)
	if len(attrs) != 1 || attrs[0].Value.String() != "Samsung" {
		t.Errorf("attributes = %+v, want overwritten brand", attrs)
	}
}

func TestProduct_ListPaginationClamping(t *testing.T) {
	e := setupEngines(t)
	tenantID := newTestTenant(t, e.db)
	if err := e.db.AutoMigrate(&config.SystemConfig{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	cfg := config.NewService(e.db)
	if err := cfg.Set(config.KeyMaxPageSize, "2", "search", false); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	products := NewProductEngine(e.db, e.attrs, e.configs, cfg)

	for _, sku := range []string{"SKU-1", "SKU-2", "SKU-3"} {
		seedProduct(t, e, tenantID, ProductInput{SkuID: sku})
	}

	// Oversized limit clamps to the configured maximum, not the default
	page, total, err := products.List(tenantID, -5, 100000)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(page) != 2 {
		t.Errorf("page size = %d, want clamped to 2", len(page))
	}
	if page[0].SkuID != "SKU-1" {
		t.Errorf("first sku = %q, want SKU-1 with negative skip clamped to 0", page[0].SkuID)
	}
}

func TestProduct_ImportRowsRejectNonEditable(t *testing.T) {
	e := setupEngines(t)
	tenantID := newTestTenant(t, e.db)
	product := seedProduct(t, e, tenantID, ProductInput{
		SkuID: "SKU-1",
		Price: floatPtr(10),
		Attributes: []AttributeInput{
			{FieldName: "brand", Value: "Sony"},
		},
	})

	for _, name := range []string{"price", "brand"} {
		if _, err := e.configs.UpsertOne(tenantID, name, FieldConfigInput{IsEditable: boolPtr(false)}); err != nil {
			t.Fatalf("config failed: %v", err)
		}
	}

	// Re-importing the existing sku is an update and honors is_editable;
	// the fresh sku in the same batch must not be written either
	_, err := e.products.ImportRows(tenantID, []ImportRow{
		{Product: ProductInput{SkuID: "SKU-1", Price: floatPtr(99)}, Attributes: []AttributeInput{
			{FieldName: "brand", Value: "Samsung"},
		}},
		{Product: ProductInput{SkuID: "SKU-2", Price: floatPtr(20)}},
	})
	if err == nil {
		t.Fatal("expected not-editable rejection")
	}
	ne, ok := err.(*catalogerrors.NotEditableError)
	if !ok {
		t.Fatalf("got %v, want NOT_EDITABLE", err)
	}
	if len(ne.FieldNames) != 2 || ne.FieldNames[0] != "brand" || ne.FieldNames[1] != "price" {
		t.Errorf("offending fields = %v, want [brand price]", ne.FieldNames)
	}

	current, err := e.products.Get(tenantID, product.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if *current.Price != 10 {
		t.Errorf("price = %v despite rejection", *current.Price)
	}
	attrs, _ := e.attrs.Get(tenantID, product.ID)
	if attrs[0].Value.String() != "Sony" {
		t.Errorf("attribute changed to %q despite rejection", attrs[0].Value.String())
	}
	var count int64
	e.db.Model(&models.Product{}).Where("tenant_id = ?", tenantID).Count(&count)
	if count != 1 {
		t.Errorf("rejected import wrote %d products, want 1", count)
	}
}

func TestProduct_ImportRowsNewSkusUnaffectedByLocks(t *testing.T) {
	e := setupEngines(t)
	tenantID := newTestTenant(t, e.db)
	seedProduct(t, e, tenantID, ProductInput{SkuID: "SKU-1", Attributes: []AttributeInput{
		{FieldName: "brand", Value: "Sony"},
	}})
	if _, err := e.configs.UpsertOne(tenantID, "brand", FieldConfigInput{IsEditable: boolPtr(false)}); err != nil {
		t.Fatalf("config failed: %v", err)
	}

	// Locked fields only guard updates; a batch of fresh skus imports fine
	products, err := e.products.ImportRows(tenantID, []ImportRow{
		{Product: ProductInput{SkuID: "SKU-2"}, Attributes: []AttributeInput{
			{FieldName: "brand", Value: "Canon"},
		}},
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("imported %d products, want 1", len(products))
	}
}

func TestProduct_ImportRowsRequireSku(t *testing.T) {
	e := setupEngines(t)
	tenantID := newTestTenant(t, e.db)

	_, err := e.products.ImportRows(tenantID, []ImportRow{
		{Product: ProductInput{SkuID: "SKU-1"}},
		{Product: ProductInput{}},
	})
	if err == nil {
		t.Fatal("expected validation error for missing sku")
	}
	var count int64
	e.db.Model(&models.Product{}).Where("tenant_id = ?", tenantID).Count(&count)
	if count != 0 {
		t.Errorf("rejected import wrote %d products", count)
	}
}
