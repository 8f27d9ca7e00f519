// Package engine - Connection manager for external import sources
package engine

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	catalogerrors "github.com/aethra/catalog/internal/errors"
	"github.com/aethra/catalog/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// ConnectionManager manages pooled connections to tenant import sources.
// Source DSNs are stored AES-GCM encrypted.
type ConnectionManager struct {
	db            *gorm.DB
	connections   map[uuid.UUID]*sql.DB
	mu            sync.RWMutex
	encryptionKey []byte
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager(db *gorm.DB, encryptionKey string) *ConnectionManager {
	key := make([]byte, 32)
	copy(key, []byte(encryptionKey))

	return &ConnectionManager{
		db:            db,
		connections:   make(map[uuid.UUID]*sql.DB),
		encryptionKey: key,
	}
}

// SaveSource stores an import source, encrypting its DSN
func (cm *ConnectionManager) SaveSource(tenantID uuid.UUID, src *models.ImportSource, dsn string) error {
	if src.Driver != "postgres" && src.Driver != "mysql" {
		return catalogerrors.NewValidationError("driver", "driver must be postgres or mysql")
	}
	encrypted, err := cm.encrypt(dsn)
	if err != nil {
		return err
	}
	src.TenantID = tenantID
	src.DSNEncrypted = encrypted
	if src.ID == uuid.Nil {
		src.ID = uuid.New()
		return cm.db.Create(src).Error
	}
	return cm.db.Save(src).Error
}

// GetSource loads one import source, tenant-scoped
func (cm *ConnectionManager) GetSource(tenantID, sourceID uuid.UUID) (*models.ImportSource, error) {
	var src models.ImportSource
	err := cm.db.First(&src, "tenant_id = ? AND id = ?", tenantID, sourceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalogerrors.NewNotFoundError("import source")
	}
	if err != nil {
		return nil, err
	}
	return &src, nil
}

// ListSources returns a tenant's import sources
func (cm *ConnectionManager) ListSources(tenantID uuid.UUID) ([]models.ImportSource, error) {
	var sources []models.ImportSource
	err := cm.db.Where("tenant_id = ?", tenantID).Order("name").Find(&sources).Error
	return sources, err
}

// DeleteSource removes an import source and drops its cached connection
func (cm *ConnectionManager) DeleteSource(tenantID, sourceID uuid.UUID) error {
	src, err := cm.GetSource(tenantID, sourceID)
	if err != nil {
		return err
	}

	cm.mu.Lock()
	if conn, exists := cm.connections[src.ID]; exists {
		conn.Close()
		delete(cm.connections, src.ID)
	}
	cm.mu.Unlock()

	return cm.db.Delete(&models.ImportSource{}, "tenant_id = ? AND id = ?", tenantID, sourceID).Error
}

// GetConnection retrieves or creates a connection to an import source
func (cm *ConnectionManager) GetConnection(ctx context.Context, tenantID, sourceID uuid.UUID) (*sql.DB, error) {
	cm.mu.RLock()
	if conn, exists := cm.connections[sourceID]; exists {
		cm.mu.RUnlock()
		if err := conn.PingContext(ctx); err == nil {
			return conn, nil
		}
		// Connection dead, remove from cache
		cm.mu.Lock()
		delete(cm.connections, sourceID)
		cm.mu.Unlock()
	} else {
		cm.mu.RUnlock()
	}

	src, err := cm.GetSource(tenantID, sourceID)
	if err != nil {
		return nil, err
	}
	if !src.IsActive {
		return nil, catalogerrors.NewValidationError("source", "import source is not active")
	}

	conn, err := cm.createConnection(ctx, src)
	if err != nil {
		return nil, err
	}

	cm.mu.Lock()
	cm.connections[sourceID] = conn
	cm.mu.Unlock()

	return conn, nil
}

// TestConnection tests an import source and records the result
func (cm *ConnectionManager) TestConnection(ctx context.Context, tenantID, sourceID uuid.UUID) error {
	src, err := cm.GetSource(tenantID, sourceID)
	if err != nil {
		return err
	}

	conn, err := cm.createConnection(ctx, src)
	result, errMsg := "success", ""
	if err != nil {
		result, errMsg = "failed", err.Error()
	} else {
		conn.Close()
	}

	now := time.Now()
	updateErr := cm.db.Model(&models.ImportSource{}).
		Where("tenant_id = ? AND id = ?", tenantID, sourceID).
		Updates(map[string]interface{}{
			"last_test_result": result,
			"last_test_error":  errMsg,
			"updated_at":       now,
		}).Error
	if err != nil {
		return err
	}
	return updateErr
}

// Close closes all cached connections
func (cm *ConnectionManager) Close() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for id, conn := range cm.connections {
		conn.Close()
		delete(cm.connections, id)
	}
}

func (cm *ConnectionManager) createConnection(ctx context.Context, src *models.ImportSource) (*sql.DB, error) {
	dsn, err := cm.decrypt(src.DSNEncrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt source dsn: %w", err)
	}

	db, err := sql.Open(src.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	db.SetMaxOpenConns(src.MaxOpenConnections)
	db.SetMaxIdleConns(src.MaxIdleConnections)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping source: %w", err)
	}

	return db, nil
}

// encrypt encrypts plaintext with AES-GCM
func (cm *ConnectionManager) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(cm.encryptionKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts an AES-GCM ciphertext
func (cm *ConnectionManager) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(cm.encryptionKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(data) < gcm.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
