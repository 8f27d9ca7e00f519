package engine

import (
	"testing"

	"github.com/aethra/catalog/internal/auth"
	"github.com/aethra/catalog/internal/models"
)

func TestTenant_CreateWithAdmin(t *testing.T) {
	e := setupEngines(t)
	tenants := NewTenantEngine(e.db)

	tenant, err := tenants.CreateTenant("Acme", "admin@acme.test", "s3cret-pass")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	var user models.User
	if err := e.db.Where("tenant_id = ?", tenant.ID).First(&user).Error; err != nil {
		t.Fatalf("admin user not created: %v", err)
	}
	if user.Email != "admin@acme.test" {
		t.Errorf("email = %q", user.Email)
	}
	if !auth.CheckPassword("s3cret-pass", user.PasswordHash) {
		t.Error("password hash does not verify")
	}

	if _, err := tenants.CreateTenant("", "a@b.c", "x"); err == nil {
		t.Error("expected validation error for empty name")
	}
}

func TestTenant_DeleteCascades(t *testing.T) {
	e := setupEngines(t)
	tenants := NewTenantEngine(e.db)

	tenant, err := tenants.CreateTenant("Acme", "admin@acme.test", "s3cret-pass")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	seedProduct(t, e, tenant.ID, ProductInput{SkuID: "SKU-1", Attributes: []AttributeInput{
		{FieldName: "brand", Value: "Sony"},
	}})
	markSearchable(t, e, tenant.ID, "brand")

	if err := tenants.DeleteTenant(tenant.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	counts := map[string]int64{}
	for name, model := range map[string]interface{}{
		"products":             &models.Product{},
		"product_attributes":   &models.ProductAttribute{},
		"field_configurations": &models.FieldConfiguration{},
		"users":                &models.User{},
	} {
		var n int64
		e.db.Model(model).Where("tenant_id = ?", tenant.ID).Count(&n)
		counts[name] = n
	}
	for name, n := range counts {
		if n != 0 {
			t.Errorf("%s: %d rows survived tenant deletion", name, n)
		}
	}
	if _, err := tenants.GetTenant(tenant.ID); err == nil {
		t.Error("tenant still retrievable after delete")
	}
}
