// Package api - Import source handlers
package api

import (
	"net/http"

	"github.com/aethra/catalog/internal/engine"
	"github.com/aethra/catalog/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SourceHandler manages external import sources and ingestion runs
type SourceHandler struct {
	cm       *engine.ConnectionManager
	importer *engine.Importer
}

// NewSourceHandler creates a new source handler
func NewSourceHandler(cm *engine.ConnectionManager, importer *engine.Importer) *SourceHandler {
	return &SourceHandler{cm: cm, importer: importer}
}

// ListSources returns the tenant's configured import sources
// GET /api/sources
func (h *SourceHandler) ListSources(c *gin.Context) {
	sources, err := h.cm.ListSources(tenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources, "total": len(sources)})
}

// CreateSource registers an external database as an import source.
// The DSN is accepted once on creation and stored encrypted.
// POST /api/sources
func (h *SourceHandler) CreateSource(c *gin.Context) {
	var req struct {
		Name               string   `json:"name" binding:"required"`
		Description        string   `json:"description"`
		Driver             string   `json:"driver" binding:"required"`
		DSN                string   `json:"dsn" binding:"required"`
		Host               string   `json:"host"`
		Port               int      `json:"port"`
		DatabaseName       string   `json:"database_name"`
		Username           string   `json:"username"`
		TableName          string   `json:"table_name" binding:"required"`
		Columns            []string `json:"columns" binding:"required"`
		MaxOpenConnections int      `json:"max_open_connections"`
		MaxIdleConnections int      `json:"max_idle_connections"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	src := &models.ImportSource{
		ID:                 uuid.New(),
		TenantID:           tenantID(c),
		Name:               req.Name,
		Description:        req.Description,
		Driver:             req.Driver,
		Host:               req.Host,
		Port:               req.Port,
		DatabaseName:       req.DatabaseName,
		Username:           req.Username,
		SourceTable:        req.TableName,
		Columns:            req.Columns,
		MaxOpenConnections: req.MaxOpenConnections,
		MaxIdleConnections: req.MaxIdleConnections,
		IsActive:           true,
	}
	if err := h.cm.SaveSource(tenantID(c), src, req.DSN); err != nil {
		respondError(c, err)
		return
	}

	requestLogger(c).Info("import source created",
		zap.String("source_id", src.ID.String()),
		zap.String("driver", src.Driver))
	c.JSON(http.StatusCreated, src)
}

// GetSource returns a single import source
// GET /api/sources/:id
func (h *SourceHandler) GetSource(c *gin.Context) {
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source ID"})
		return
	}
	src, err := h.cm.GetSource(tenantID(c), sourceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, src)
}

// DeleteSource removes an import source and closes any pooled connection
// DELETE /api/sources/:id
func (h *SourceHandler) DeleteSource(c *gin.Context) {
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source ID"})
		return
	}
	if err := h.cm.DeleteSource(tenantID(c), sourceID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "source deleted"})
}

// TestSource verifies connectivity to the external database
// POST /api/sources/:id/test
func (h *SourceHandler) TestSource(c *gin.Context) {
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source ID"})
		return
	}
	if err := h.cm.TestConnection(c.Request.Context(), tenantID(c), sourceID); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "failed", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunImport pulls rows from the source table and upserts them as products
// POST /api/sources/:id/import
func (h *SourceHandler) RunImport(c *gin.Context) {
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source ID"})
		return
	}

	count, err := h.importer.ImportFromSource(c.Request.Context(), tenantID(c), sourceID)
	if err != nil {
		respondError(c, err)
		return
	}

	requestLogger(c).Info("import completed",
		zap.String("source_id", sourceID.String()),
		zap.Int("imported", count))
	c.JSON(http.StatusOK, gin.H{"imported": count})
}
