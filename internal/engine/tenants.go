// Package engine - Tenant lifecycle
package engine

import (
	"errors"

	"github.com/aethra/catalog/internal/auth"
	catalogerrors "github.com/aethra/catalog/internal/errors"
	"github.com/aethra/catalog/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantEngine handles tenant creation and teardown
type TenantEngine struct {
	db *gorm.DB
}

// NewTenantEngine creates a new tenant engine
func NewTenantEngine(db *gorm.DB) *TenantEngine {
	return &TenantEngine{db: db}
}

// CreateTenant creates a tenant with its initial admin user
func (e *TenantEngine) CreateTenant(name, adminEmail, adminPassword string) (*models.Tenant, error) {
	if name == "" {
		return nil, catalogerrors.NewValidationError("name", "tenant name is required")
	}
	if adminEmail == "" {
		return nil, catalogerrors.NewValidationError("email", "admin email is required")
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return nil, err
	}

	tenant := models.Tenant{
		ID:       uuid.New(),
		Name:     name,
		IsActive: true,
	}
	err = e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}
		user := models.User{
			ID:           uuid.New(),
			TenantID:     tenant.ID,
			Email:        adminEmail,
			PasswordHash: hash,
			IsActive:     true,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetTenant returns one tenant
func (e *TenantEngine) GetTenant(tenantID uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	err := e.db.First(&tenant, "id = ?", tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalogerrors.NewNotFoundError("tenant")
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// DeleteTenant removes a tenant and everything it owns. The cascade is
// mirrored here explicitly rather than left to foreign keys alone, so no
// orphaned attribute rows or configurations can survive the tenant.
func (e *TenantEngine) DeleteTenant(tenantID uuid.UUID) error {
	if _, err := e.GetTenant(tenantID); err != nil {
		return err
	}
	return e.db.Transaction(func(tx *gorm.DB) error {
		steps := []interface{}{
			&models.ProductAttribute{},
			&models.FieldConfiguration{},
			&models.Product{},
			&models.Category{},
			&models.ImportSource{},
			&models.User{},
		}
		for _, model := range steps {
			if err := tx.Where("tenant_id = ?", tenantID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Tenant{}, "id = ?", tenantID).Error
	})
}
