// Package engine - Attribute Value Store
// Sparse per-product key/value persistence. No field-name validation happens
// here; this layer is a pure store keyed by (tenant, product, field_name).
package engine

import (
	"github.com/aethra/catalog/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttributeInput is one already-extracted (fieldName, value) pair plus the
// upload pipeline's type hint.
type AttributeInput struct {
	FieldName string `json:"field_name"`
	Value     string `json:"value"`
	TypeHint  string `json:"type,omitempty"`
}

// AttributeEntry is one stored attribute, with its value re-validated into
// the typed form.
type AttributeEntry struct {
	ProductID uint       `json:"product_id"`
	FieldName string     `json:"field_name"`
	Value     TypedValue `json:"value"`
}

// AttributeStore persists and retrieves EAV rows
type AttributeStore struct {
	db *gorm.DB
}

// NewAttributeStore creates a new attribute store
func NewAttributeStore(db *gorm.DB) *AttributeStore {
	return &AttributeStore{db: db}
}

// WithTx returns a store bound to the given transaction
func (s *AttributeStore) WithTx(tx *gorm.DB) *AttributeStore {
	return &AttributeStore{db: tx}
}

// Get returns all attributes of one product
func (s *AttributeStore) Get(tenantID uuid.UUID, productID uint) ([]AttributeEntry, error) {
	var rows []models.ProductAttribute
	err := s.db.Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Order("field_name").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toEntries(rows), nil
}

// GetAll returns all attributes across all of a tenant's products
func (s *AttributeStore) GetAll(tenantID uuid.UUID) ([]AttributeEntry, error) {
	var rows []models.ProductAttribute
	err := s.db.Where("tenant_id = ?", tenantID).
		Order("field_name, product_id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toEntries(rows), nil
}

// Put upserts one attribute. Last writer wins per (tenant, product, field).
func (s *AttributeStore) Put(tenantID uuid.UUID, productID uint, fieldName, value, typeHint string) error {
	typed := NewTypedValue(value, typeHint)
	row := models.ProductAttribute{
		TenantID:   tenantID,
		ProductID:  productID,
		FieldName:  fieldName,
		FieldValue: typed.String(),
		FieldType:  typed.Kind,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"}, {Name: "product_id"}, {Name: "field_name"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"field_value", "field_type", "updated_at"}),
	}).Create(&row).Error
}

// PutMany upserts a batch of attributes for one product
func (s *AttributeStore) PutMany(tenantID uuid.UUID, productID uint, inputs []AttributeInput) error {
	for _, in := range inputs {
		if err := s.Put(tenantID, productID, in.FieldName, in.Value, in.TypeHint); err != nil {
			return err
		}
	}
	return nil
}

// DeleteForProduct removes all attributes of one product. Invoked on
// product deletion.
func (s *AttributeStore) DeleteForProduct(productID uint) error {
	return s.db.Where("product_id = ?", productID).
		Delete(&models.ProductAttribute{}).Error
}

// DistinctFieldNames returns the dynamic field names currently present in a
// tenant's data, alphabetically.
func (s *AttributeStore) DistinctFieldNames(tenantID uuid.UUID) ([]string, error) {
	var names []string
	err := s.db.Model(&models.ProductAttribute{}).
		Distinct("field_name").
		Where("tenant_id = ?", tenantID).
		Order("field_name").
		Pluck("field_name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// DistinctValues returns the distinct values of one field within a tenant,
// used to populate filter facets.
func (s *AttributeStore) DistinctValues(tenantID uuid.UUID, fieldName string) ([]string, error) {
	var values []string
	err := s.db.Model(&models.ProductAttribute{}).
		Distinct("field_value").
		Where("tenant_id = ? AND field_name = ? AND field_value <> ''", tenantID, fieldName).
		Order("field_value").
		Pluck("field_value", &values).Error
	if err != nil {
		return nil, err
	}
	return values, nil
}

func toEntries(rows []models.ProductAttribute) []AttributeEntry {
	entries := make([]AttributeEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, AttributeEntry{
			ProductID: r.ProductID,
			FieldName: r.FieldName,
			Value:     NewTypedValue(r.FieldValue, r.FieldType),
		})
	}
	return entries
}
