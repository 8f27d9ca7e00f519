// Package engine - Product lifecycle
// Create/update/delete for structured product rows, including the editable
// enforcement against field configurations and the attribute cascade on
// delete. The upload pipeline lands here too: it delivers already-extracted
// rows; file parsing is someone else's job.
package engine

import (
	"errors"
	"sort"
	"strconv"

	"github.com/aethra/catalog/internal/config"
	catalogerrors "github.com/aethra/catalog/internal/errors"
	"github.com/aethra/catalog/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductInput carries the standard columns for a create
type ProductInput struct {
	SkuID        string           `json:"sku_id"`
	CategoryID   *uint            `json:"category_id,omitempty"`
	Price        *float64         `json:"price,omitempty"`
	Manufacturer string           `json:"manufacturer"`
	Supplier     string           `json:"supplier"`
	ImageURL     string           `json:"image_url"`
	Attributes   []AttributeInput `json:"attributes,omitempty"`
}

// ProductPatch carries a partial update. Nil means "not touched"; editable
// enforcement only looks at touched fields.
type ProductPatch struct {
	SkuID        *string          `json:"sku_id,omitempty"`
	CategoryID   *uint            `json:"category_id,omitempty"`
	Price        *float64         `json:"price,omitempty"`
	Manufacturer *string          `json:"manufacturer,omitempty"`
	Supplier     *string          `json:"supplier,omitempty"`
	ImageURL     *string          `json:"image_url,omitempty"`
	Attributes   []AttributeInput `json:"attributes,omitempty"`
}

// ImportRow is one parsed upload row: standard columns plus the
// non-standard (fieldName, value, typeHint) pairs.
type ImportRow struct {
	Product    ProductInput     `json:"product"`
	Attributes []AttributeInput `json:"attributes"`
}

// ProductEngine handles product lifecycle operations
type ProductEngine struct {
	db      *gorm.DB
	attrs   *AttributeStore
	configs *FieldConfigEngine
	cfg     *config.Service
}

// NewProductEngine creates a new product engine
func NewProductEngine(db *gorm.DB, attrs *AttributeStore, configs *FieldConfigEngine, cfg *config.Service) *ProductEngine {
	return &ProductEngine{db: db, attrs: attrs, configs: configs, cfg: cfg}
}

// Create inserts one product with its attributes in a single transaction
func (e *ProductEngine) Create(tenantID uuid.UUID, input ProductInput) (*models.Product, error) {
	if input.SkuID == "" {
		return nil, catalogerrors.NewValidationError("sku_id", "sku_id is required")
	}

	product := models.Product{
		TenantID:     tenantID,
		CategoryID:   input.CategoryID,
		SkuID:        input.SkuID,
		Price:        input.Price,
		Manufacturer: input.Manufacturer,
		Supplier:     input.Supplier,
		ImageURL:     input.ImageURL,
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		return e.attrs.WithTx(tx).PutMany(tenantID, product.ID, input.Attributes)
	})
	if err != nil {
		return nil, err
	}
	return e.Get(tenantID, product.ID)
}

// Get returns one product with its attributes, tenant-scoped
func (e *ProductEngine) Get(tenantID uuid.UUID, productID uint) (*models.Product, error) {
	var product models.Product
	err := e.db.Preload("Attributes").
		Where("tenant_id = ? AND id = ?", tenantID, productID).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalogerrors.NewNotFoundError("product")
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns a stable page of the tenant's products
func (e *ProductEngine) List(tenantID uuid.UUID, skip, limit int) ([]models.Product, int64, error) {
	skip, limit = clampPagination(e.cfg, skip, limit)

	query := e.db.Model(&models.Product{}).Where("tenant_id = ?", tenantID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := query.Preload("Attributes").
		Order("id ASC").
		Offset(skip).Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Update applies a patch, enforcing is_editable. A payload touching any
// non-editable field is rejected wholesale with every offending name; no
// column is written.
func (e *ProductEngine) Update(tenantID uuid.UUID, productID uint, patch ProductPatch) (*models.Product, error) {
	product, err := e.Get(tenantID, productID)
	if err != nil {
		return nil, err
	}

	blocked, err := e.configs.NonEditableFields(tenantID)
	if err != nil {
		return nil, err
	}

	var offending []string
	touch := func(name string, touched bool) {
		if touched && blocked[name] {
			offending = append(offending, name)
		}
	}
	touch("sku_id", patch.SkuID != nil)
	touch("category_id", patch.CategoryID != nil)
	touch("price", patch.Price != nil)
	touch("manufacturer", patch.Manufacturer != nil)
	touch("supplier", patch.Supplier != nil)
	touch("image_url", patch.ImageURL != nil)
	for _, attr := range patch.Attributes {
		touch(attr.FieldName, true)
	}
	if len(offending) > 0 {
		return nil, catalogerrors.NewNotEditableError(offending...)
	}

	if patch.SkuID != nil {
		product.SkuID = *patch.SkuID
	}
	if patch.CategoryID != nil {
		product.CategoryID = patch.CategoryID
	}
	if patch.Price != nil {
		product.Price = patch.Price
	}
	if patch.Manufacturer != nil {
		product.Manufacturer = *patch.Manufacturer
	}
	if patch.Supplier != nil {
		product.Supplier = *patch.Supplier
	}
	if patch.ImageURL != nil {
		product.ImageURL = *patch.ImageURL
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(product).Error; err != nil {
			return err
		}
		return e.attrs.WithTx(tx).PutMany(tenantID, productID, patch.Attributes)
	})
	if err != nil {
		return nil, err
	}
	return e.Get(tenantID, productID)
}

// Delete removes one product and cascades to its attribute rows
func (e *ProductEngine) Delete(tenantID uuid.UUID, productID uint) error {
	if _, err := e.Get(tenantID, productID); err != nil {
		return err
	}
	return e.db.Transaction(func(tx *gorm.DB) error {
		if err := e.attrs.WithTx(tx).DeleteForProduct(productID); err != nil {
			return err
		}
		return tx.Where("tenant_id = ? AND id = ?", tenantID, productID).
			Delete(&models.Product{}).Error
	})
}

// rowAttributes returns the dynamic attribute pairs of one upload row
func rowAttributes(row ImportRow) []AttributeInput {
	if len(row.Attributes) > 0 {
		return row.Attributes
	}
	return row.Product.Attributes
}

// ImportRows ingests a batch of parsed upload rows in one transaction.
// Products are upserted by (tenant, sku_id); attribute puts keep their
// last-writer-wins upsert semantics. Rows landing on an existing sku are
// updates and go through the same is_editable scan as Update: one blocked
// field anywhere rejects the whole batch before a single write.
func (e *ProductEngine) ImportRows(tenantID uuid.UUID, rows []ImportRow) ([]models.Product, error) {
	for i, row := range rows {
		if row.Product.SkuID == "" {
			return nil, catalogerrors.NewValidationError("sku_id", "sku_id is required on every row, missing at row "+strconv.Itoa(i+1))
		}
	}

	blocked, err := e.configs.NonEditableFields(tenantID)
	if err != nil {
		return nil, err
	}

	offending := make(map[string]bool)
	for _, row := range rows {
		var count int64
		err := e.db.Model(&models.Product{}).
			Where("tenant_id = ? AND sku_id = ?", tenantID, row.Product.SkuID).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		if count == 0 {
			continue
		}
		touch := func(name string, touched bool) {
			if touched && blocked[name] {
				offending[name] = true
			}
		}
		touch("category_id", row.Product.CategoryID != nil)
		touch("price", row.Product.Price != nil)
		touch("manufacturer", row.Product.Manufacturer != "")
		touch("supplier", row.Product.Supplier != "")
		touch("image_url", row.Product.ImageURL != "")
		for _, attr := range rowAttributes(row) {
			touch(attr.FieldName, true)
		}
	}
	if len(offending) > 0 {
		names := make([]string, 0, len(offending))
		for name := range offending {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, catalogerrors.NewNotEditableError(names...)
	}

	var ids []uint
	err = e.db.Transaction(func(tx *gorm.DB) error {
		txAttrs := e.attrs.WithTx(tx)
		for _, row := range rows {
			var product models.Product
			err := tx.Where("tenant_id = ? AND sku_id = ?", tenantID, row.Product.SkuID).
				First(&product).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				product = models.Product{TenantID: tenantID, SkuID: row.Product.SkuID}
			} else if err != nil {
				return err
			}

			if row.Product.CategoryID != nil {
				product.CategoryID = row.Product.CategoryID
			}
			if row.Product.Price != nil {
				product.Price = row.Product.Price
			}
			if row.Product.Manufacturer != "" {
				product.Manufacturer = row.Product.Manufacturer
			}
			if row.Product.Supplier != "" {
				product.Supplier = row.Product.Supplier
			}
			if row.Product.ImageURL != "" {
				product.ImageURL = row.Product.ImageURL
			}

			if err := tx.Save(&product).Error; err != nil {
				return err
			}
			if err := txAttrs.PutMany(tenantID, product.ID, rowAttributes(row)); err != nil {
				return err
			}
			ids = append(ids, product.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var products []models.Product
	if len(ids) > 0 {
		if err := e.db.Preload("Attributes").
			Where("tenant_id = ? AND id IN ?", tenantID, ids).
			Order("id ASC").
			Find(&products).Error; err != nil {
			return nil, err
		}
	}
	return products, nil
}
