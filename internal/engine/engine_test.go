package engine

import (
	"testing"

	"github.com/aethra/catalog/internal/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.ProductAttribute{},
		&models.FieldConfiguration{},
		&models.ImportSource{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// testEngines bundles the full engine stack over one database
type testEngines struct {
	db        *gorm.DB
	attrs     *AttributeStore
	discovery *DiscoveryEngine
	configs   *FieldConfigEngine
	search    *SearchEngine
	products  *ProductEngine
}

func setupEngines(t *testing.T) *testEngines {
	db := setupTestDB(t)
	attrs := NewAttributeStore(db)
	discovery := NewDiscoveryEngine(attrs)
	configs := NewFieldConfigEngine(db, discovery)
	search := NewSearchEngine(db, attrs, discovery, configs, nil)
	products := NewProductEngine(db, attrs, configs, nil)
	return &testEngines{
		db:        db,
		attrs:     attrs,
		discovery: discovery,
		configs:   configs,
		search:    search,
		products:  products,
	}
}

func newTestTenant(t *testing.T, db *gorm.DB) uuid.UUID {
	tenant := models.Tenant{ID: uuid.New(), Name: "test-tenant", IsActive: true}
	if err := db.Create(&tenant).Error; err != nil {
		t.Fatalf("failed to create tenant: %v", err)
	}
	return tenant.ID
}

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }
func boolPtr(b bool) *bool        { return &b }
func intPtr(i int) *int           { return &i }

// seedProduct inserts one product with attributes through the product engine
func seedProduct(t *testing.T, e *testEngines, tenantID uuid.UUID, input ProductInput) *models.Product {
	t.Helper()
	product, err := e.products.Create(tenantID, input)
	if err != nil {
		t.Fatalf("failed to seed product %s: %v", input.SkuID, err)
	}
	return product
}

// markSearchable flags a field searchable through the config engine
func markSearchable(t *testing.T, e *testEngines, tenantID uuid.UUID, fieldName string) {
	t.Helper()
	_, err := e.configs.UpsertOne(tenantID, fieldName, FieldConfigInput{
		IsSearchable: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("failed to mark %s searchable: %v", fieldName, err)
	}
}
