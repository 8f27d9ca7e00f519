// Package models - External import sources
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ImportSource represents an external database a tenant pulls product rows
// from. Credentials are stored encrypted; see engine.ConnectionManager.
type ImportSource struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	TenantID uuid.UUID `json:"tenant_id" gorm:"type:uuid;index;not null"`

	Name        string `json:"name" gorm:"not null;size:100"`
	Description string `json:"description"`

	// postgres or mysql
	Driver string `json:"driver" gorm:"not null;size:30"`

	Host         string `json:"host" gorm:"size:255"`
	Port         int    `json:"port"`
	DatabaseName string `json:"database_name" gorm:"size:100"`
	Username     string `json:"username" gorm:"size:100"`
	DSNEncrypted string `json:"-" gorm:"column:dsn_encrypted"`

	// Source table and the columns to pull from it. Columns not matching a
	// standard product column are ingested as dynamic attributes.
	SourceTable string         `json:"table_name" gorm:"column:table_name;size:100"`
	Columns     pq.StringArray `json:"columns" gorm:"type:text[]"`

	MaxOpenConnections int `json:"max_open_connections" gorm:"default:5"`
	MaxIdleConnections int `json:"max_idle_connections" gorm:"default:2"`

	IsActive       bool       `json:"is_active" gorm:"default:true"`
	LastImportedAt *time.Time `json:"last_imported_at"`
	LastTestResult string     `json:"last_test_result" gorm:"size:20"`
	LastTestError  string     `json:"last_test_error"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for ImportSource
func (ImportSource) TableName() string {
	return "import_sources"
}
