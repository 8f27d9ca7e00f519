// Package config provides configuration management for the catalog service
package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Runtime tunables with database-backed values.
const (
	KeyDefaultPageSize = "search_default_page_size"
	KeyMaxPageSize     = "search_max_page_size"
	KeyImportBatchSize = "import_batch_size"
)

// SystemConfig represents a configuration entry stored in database
type SystemConfig struct {
	ID        uint      `gorm:"primarykey"`
	Key       string    `gorm:"uniqueIndex;not null;size:100"`
	Value     string    `gorm:"type:text"`
	ValueType string    `gorm:"size:20"` // string, int, bool
	Category  string    `gorm:"size:50;index"`
	IsSecret  bool      `gorm:"default:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for SystemConfig
func (SystemConfig) TableName() string {
	return "system_config"
}

// Service manages configuration with an in-memory cache. Environment
// variables prefixed CATALOG_ override database values.
type Service struct {
	db    *gorm.DB
	cache map[string]string
	mu    sync.RWMutex
}

// NewService creates a new config service
func NewService(db *gorm.DB) *Service {
	svc := &Service{
		db:    db,
		cache: make(map[string]string),
	}
	svc.loadCache()
	return svc
}

// loadCache loads all config values into memory
func (s *Service) loadCache() {
	var configs []SystemConfig
	if err := s.db.Find(&configs).Error; err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cfg := range configs {
		s.cache[cfg.Key] = cfg.Value
	}
}

// Get returns a config value by key
func (s *Service) Get(key string) string {
	if envVal := os.Getenv("CATALOG_" + key); envVal != "" {
		return envVal
	}

	s.mu.RLock()
	if val, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return val
	}
	s.mu.RUnlock()

	var cfg SystemConfig
	if err := s.db.Where("key = ?", key).First(&cfg).Error; err == nil {
		s.mu.Lock()
		s.cache[key] = cfg.Value
		s.mu.Unlock()
		return cfg.Value
	}

	return ""
}

// GetWithDefault returns a config value or default if not found
func (s *Service) GetWithDefault(key, defaultValue string) string {
	if val := s.Get(key); val != "" {
		return val
	}
	return defaultValue
}

// GetInt returns a config value as int
func (s *Service) GetInt(key string, defaultValue int) int {
	val := s.Get(key)
	if val == "" {
		return defaultValue
	}
	if n, err := strconv.Atoi(val); err == nil {
		return n
	}
	return defaultValue
}

// GetBool returns a config value as bool
func (s *Service) GetBool(key string, defaultValue bool) bool {
	val := s.Get(key)
	if val == "" {
		return defaultValue
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return defaultValue
}

// Set stores a config value and refreshes the cache
func (s *Service) Set(key, value, category string, isSecret bool) error {
	cfg := SystemConfig{
		Key:       key,
		Value:     value,
		ValueType: "string",
		Category:  category,
		IsSecret:  isSecret,
	}

	err := s.db.Where("key = ?", key).
		Assign(map[string]interface{}{"value": value, "category": category, "is_secret": isSecret}).
		FirstOrCreate(&cfg).Error
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()
	return nil
}
