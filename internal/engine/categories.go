package engine

import (
	"errors"

	catalogerrors "github.com/aethra/catalog/internal/errors"
	"github.com/aethra/catalog/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name        string       `json:"name" binding:"required"`
	Description string       `json:"description"`
	Schema      models.JSONB `json:"schema"`
}

// CategoryEngine manages tenant categories.
type CategoryEngine struct {
	db *gorm.DB
}

// NewCategoryEngine creates a category engine.
func NewCategoryEngine(db *gorm.DB) *CategoryEngine {
	return &CategoryEngine{db: db}
}

// Create adds a category for the tenant.
func (e *CategoryEngine) Create(tenantID uuid.UUID, input CategoryInput) (*models.Category, error) {
	category := &models.Category{
		TenantID:    tenantID,
		Name:        input.Name,
		Description: input.Description,
		Schema:      input.Schema,
	}
	if category.Schema == nil {
		category.Schema = models.JSONB{}
	}
	if err := e.db.Create(category).Error; err != nil {
		return nil, catalogerrors.NewInternalError(err)
	}
	return category, nil
}

// Get returns one category, tenant-scoped.
func (e *CategoryEngine) Get(tenantID uuid.UUID, categoryID uint) (*models.Category, error) {
	var category models.Category
	err := e.db.Where("tenant_id = ? AND id = ?", tenantID, categoryID).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalogerrors.NewNotFoundError("category")
	}
	if err != nil {
		return nil, catalogerrors.NewInternalError(err)
	}
	return &category, nil
}

// List returns all categories for the tenant ordered by name.
func (e *CategoryEngine) List(tenantID uuid.UUID) ([]models.Category, error) {
	var categories []models.Category
	err := e.db.Where("tenant_id = ?", tenantID).Order("name ASC").Find(&categories).Error
	if err != nil {
		return nil, catalogerrors.NewInternalError(err)
	}
	return categories, nil
}

// Update replaces the writable fields of a category.
func (e *CategoryEngine) Update(tenantID uuid.UUID, categoryID uint, input CategoryInput) (*models.Category, error) {
	category, err := e.Get(tenantID, categoryID)
	if err != nil {
		return nil, err
	}
	category.Name = input.Name
	category.Description = input.Description
	if input.Schema != nil {
		category.Schema = input.Schema
	}
	if err := e.db.Save(category).Error; err != nil {
		return nil, catalogerrors.NewInternalError(err)
	}
	return category, nil
}

// Delete removes a category. Products keep their rows; the category
// reference is cleared.
func (e *CategoryEngine) Delete(tenantID uuid.UUID, categoryID uint) error {
	if _, err := e.Get(tenantID, categoryID); err != nil {
		return err
	}
	return e.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Product{}).
			Where("tenant_id = ? AND category_id = ?", tenantID, categoryID).
			Update("category_id", nil).Error
		if err != nil {
			return catalogerrors.NewInternalError(err)
		}
		err = tx.Where("tenant_id = ? AND id = ?", tenantID, categoryID).
			Delete(&models.Category{}).Error
		if err != nil {
			return catalogerrors.NewInternalError(err)
		}
		return nil
	})
}
