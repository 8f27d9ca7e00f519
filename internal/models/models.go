// Package models contains the core catalog data structures
package models

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SYSTEM MODELS
// =============================================================================

// Tenant represents a customer/organization in the multi-tenant system
type Tenant struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	LogoURL   string    `json:"logo_url" gorm:"size:512"`
	Settings  JSONB     `json:"settings" gorm:"type:jsonb;default:'{}'"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Users    []User    `json:"users,omitempty" gorm:"foreignKey:TenantID"`
	Products []Product `json:"products,omitempty" gorm:"foreignKey:TenantID"`
}

// User represents a system user
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID  `json:"tenant_id" gorm:"type:uuid;index"`
	Email        string     `json:"email" gorm:"not null;size:255"`
	PasswordHash string     `json:"-" gorm:"size:255"`
	FirstName    string     `json:"first_name" gorm:"size:100"`
	LastName     string     `json:"last_name" gorm:"size:100"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}

// =============================================================================
// CATALOG MODELS
// =============================================================================

// Category groups products within a tenant. The Schema blob carries the
// category-level attribute layout used by upload tooling.
type Category struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	TenantID    uuid.UUID `json:"tenant_id" gorm:"type:uuid;index;not null"`
	Name        string    `json:"name" gorm:"not null;size:255"`
	Description string    `json:"description"`
	Schema      JSONB     `json:"schema" gorm:"column:schema_json;type:jsonb;default:'{}'"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Product is the structured row. Everything beyond these standard columns
// lives in ProductAttribute rows.
type Product struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	TenantID     uuid.UUID `json:"tenant_id" gorm:"type:uuid;index;not null"`
	CategoryID   *uint     `json:"category_id" gorm:"index"`
	SkuID        string    `json:"sku_id" gorm:"column:sku_id;not null;size:255;index"`
	Price        *float64  `json:"price"`
	Manufacturer string    `json:"manufacturer" gorm:"size:255"`
	Supplier     string    `json:"supplier" gorm:"size:255"`
	ImageURL     string    `json:"image_url" gorm:"size:512"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Attributes []ProductAttribute `json:"attributes,omitempty" gorm:"foreignKey:ProductID"`
	Category   *Category          `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// ProductAttribute is one dynamic property of one product (EAV row).
// Uniqueness over (tenant_id, product_id, field_name) gives Put its
// last-writer-wins upsert semantics.
type ProductAttribute struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	TenantID   uuid.UUID `json:"tenant_id" gorm:"type:uuid;uniqueIndex:idx_attr_tenant_product_field;index:idx_attr_tenant_field"`
	ProductID  uint      `json:"product_id" gorm:"uniqueIndex:idx_attr_tenant_product_field;index"`
	FieldName  string    `json:"field_name" gorm:"not null;size:255;uniqueIndex:idx_attr_tenant_product_field;index:idx_attr_tenant_field"`
	FieldValue string    `json:"field_value"`
	FieldType  string    `json:"field_type" gorm:"size:20;default:'string'"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FieldConfiguration holds per-tenant display and behavior metadata for one
// field name, standard or dynamic. Existence of the field itself is always
// re-checked against live data, never assumed from this row.
type FieldConfiguration struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	TenantID     uuid.UUID `json:"tenant_id" gorm:"type:uuid;uniqueIndex:idx_fieldconfig_tenant_field"`
	FieldName    string    `json:"field_name" gorm:"not null;size:255;uniqueIndex:idx_fieldconfig_tenant_field"`
	FieldLabel   string    `json:"field_label" gorm:"size:255"`
	FieldType    string    `json:"field_type" gorm:"size:20;default:'string'"`
	IsSearchable bool      `json:"is_searchable" gorm:"default:false"`
	IsEditable   bool      `json:"is_editable"`
	IsPrimary    bool      `json:"is_primary" gorm:"default:false"`
	IsSecondary  bool      `json:"is_secondary" gorm:"default:false"`
	DisplayOrder int       `json:"display_order" gorm:"default:0"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
