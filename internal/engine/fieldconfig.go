// Package engine - Field Configuration Store
// Per-tenant display/behavior metadata for fields. A configuration is only
// accepted for a field that discovery currently reports; stale rows for
// fields that disappeared stay stored but are excluded from listings.
package engine

import (
	"errors"

	catalogerrors "github.com/aethra/catalog/internal/errors"
	"github.com/aethra/catalog/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FieldConfigInput carries one configuration upsert. Nil pointers mean
// "leave unchanged" on update and "use the default" on create
// (is_editable defaults to true, every other flag to false).
type FieldConfigInput struct {
	FieldName    string  `json:"field_name"`
	FieldLabel   *string `json:"field_label,omitempty"`
	FieldType    *string `json:"field_type,omitempty"`
	IsSearchable *bool   `json:"is_searchable,omitempty"`
	IsEditable   *bool   `json:"is_editable,omitempty"`
	IsPrimary    *bool   `json:"is_primary,omitempty"`
	IsSecondary  *bool   `json:"is_secondary,omitempty"`
	DisplayOrder *int    `json:"display_order,omitempty"`
	Description  *string `json:"description,omitempty"`
}

// UpsertResult reports how a configuration batch was applied
type UpsertResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

// FieldConfigEngine persists field configurations
type FieldConfigEngine struct {
	db        *gorm.DB
	discovery *DiscoveryEngine
}

// NewFieldConfigEngine creates a new field configuration engine
func NewFieldConfigEngine(db *gorm.DB, discovery *DiscoveryEngine) *FieldConfigEngine {
	return &FieldConfigEngine{db: db, discovery: discovery}
}

// List returns the tenant's configurations restricted to fields discovery
// confirms to exist right now. Stale configurations are kept in storage for
// reactivation but never listed.
func (e *FieldConfigEngine) List(tenantID uuid.UUID) ([]models.FieldConfiguration, error) {
	live, err := e.discovery.FieldSet(tenantID)
	if err != nil {
		return nil, err
	}

	var configs []models.FieldConfiguration
	err = e.db.Where("tenant_id = ?", tenantID).
		Order("display_order, field_name").
		Find(&configs).Error
	if err != nil {
		return nil, err
	}

	visible := make([]models.FieldConfiguration, 0, len(configs))
	for _, cfg := range configs {
		if _, ok := live[cfg.FieldName]; ok {
			visible = append(visible, cfg)
		}
	}
	return visible, nil
}

// UpsertMany applies a configuration batch atomically. Any field name not
// currently discovered rejects the whole batch; partial success is not
// allowed.
func (e *FieldConfigEngine) UpsertMany(tenantID uuid.UUID, inputs []FieldConfigInput) (*UpsertResult, error) {
	live, err := e.discovery.FieldSet(tenantID)
	if err != nil {
		return nil, err
	}

	var unknown []string
	for _, in := range inputs {
		if _, ok := live[in.FieldName]; !ok {
			unknown = append(unknown, in.FieldName)
		}
	}
	if len(unknown) > 0 {
		return nil, catalogerrors.NewUnknownFieldError(unknown...)
	}

	result := &UpsertResult{}
	err = e.db.Transaction(func(tx *gorm.DB) error {
		for _, in := range inputs {
			created, err := upsertConfig(tx, tenantID, in, live[in.FieldName])
			if err != nil {
				return err
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Total = result.Created + result.Updated
	return result, nil
}

// UpsertOne applies a single-field configuration patch
func (e *FieldConfigEngine) UpsertOne(tenantID uuid.UUID, fieldName string, input FieldConfigInput) (*models.FieldConfiguration, error) {
	live, err := e.discovery.FieldSet(tenantID)
	if err != nil {
		return nil, err
	}
	info, ok := live[fieldName]
	if !ok {
		return nil, catalogerrors.NewUnknownFieldError(fieldName)
	}

	input.FieldName = fieldName
	if _, err := upsertConfig(e.db, tenantID, input, info); err != nil {
		return nil, err
	}

	var cfg models.FieldConfiguration
	if err := e.db.Where("tenant_id = ? AND field_name = ?", tenantID, fieldName).First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SearchableFields returns the configurations flagged is_searchable,
// restricted to currently discovered fields, keyed by field name.
func (e *FieldConfigEngine) SearchableFields(tenantID uuid.UUID) (map[string]models.FieldConfiguration, error) {
	return e.flaggedFields(tenantID, "is_searchable = ?")
}

// PrimaryFields returns the configurations flagged is_primary
func (e *FieldConfigEngine) PrimaryFields(tenantID uuid.UUID) (map[string]models.FieldConfiguration, error) {
	return e.flaggedFields(tenantID, "is_primary = ?")
}

// SecondaryFields returns the configurations flagged is_secondary
func (e *FieldConfigEngine) SecondaryFields(tenantID uuid.UUID) (map[string]models.FieldConfiguration, error) {
	return e.flaggedFields(tenantID, "is_secondary = ?")
}

// NonEditableFields returns the set of field names whose configuration has
// is_editable=false. Fields never configured default to editable.
func (e *FieldConfigEngine) NonEditableFields(tenantID uuid.UUID) (map[string]bool, error) {
	var configs []models.FieldConfiguration
	err := e.db.Where("tenant_id = ? AND is_editable = ?", tenantID, false).
		Find(&configs).Error
	if err != nil {
		return nil, err
	}
	blocked := make(map[string]bool, len(configs))
	for _, cfg := range configs {
		blocked[cfg.FieldName] = true
	}
	return blocked, nil
}

func (e *FieldConfigEngine) flaggedFields(tenantID uuid.UUID, cond string) (map[string]models.FieldConfiguration, error) {
	live, err := e.discovery.FieldSet(tenantID)
	if err != nil {
		return nil, err
	}

	var configs []models.FieldConfiguration
	err = e.db.Where("tenant_id = ?", tenantID).Where(cond, true).
		Find(&configs).Error
	if err != nil {
		return nil, err
	}

	flagged := make(map[string]models.FieldConfiguration, len(configs))
	for _, cfg := range configs {
		if _, ok := live[cfg.FieldName]; ok {
			flagged[cfg.FieldName] = cfg
		}
	}
	return flagged, nil
}

// upsertConfig writes one configuration row, reporting whether it was
// created. Defaults apply only on create.
func upsertConfig(db *gorm.DB, tenantID uuid.UUID, in FieldConfigInput, info FieldInfo) (bool, error) {
	var cfg models.FieldConfiguration
	err := db.Where("tenant_id = ? AND field_name = ?", tenantID, in.FieldName).First(&cfg).Error
	created := false
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		created = true
		cfg = models.FieldConfiguration{
			TenantID:   tenantID,
			FieldName:  in.FieldName,
			FieldLabel: in.FieldName,
			FieldType:  info.SampleType,
			IsEditable: true,
		}
	case err != nil:
		return false, err
	}

	if in.FieldLabel != nil {
		cfg.FieldLabel = *in.FieldLabel
	}
	if in.FieldType != nil {
		cfg.FieldType = *in.FieldType
	}
	if in.IsSearchable != nil {
		cfg.IsSearchable = *in.IsSearchable
	}
	if in.IsEditable != nil {
		cfg.IsEditable = *in.IsEditable
	}
	if in.IsPrimary != nil {
		cfg.IsPrimary = *in.IsPrimary
	}
	if in.IsSecondary != nil {
		cfg.IsSecondary = *in.IsSecondary
	}
	if in.DisplayOrder != nil {
		cfg.DisplayOrder = *in.DisplayOrder
	}
	if in.Description != nil {
		cfg.Description = *in.Description
	}

	if err := db.Save(&cfg).Error; err != nil {
		return false, err
	}
	return created, nil
}
