// Package api contains the HTTP handlers for the catalog service
package api

import (
	"net/http"
	"strconv"

	"github.com/aethra/catalog/internal/engine"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler contains the core API handlers
type Handler struct {
	discovery *engine.DiscoveryEngine
	configs   *engine.FieldConfigEngine
	search    *engine.SearchEngine
	products  *engine.ProductEngine
}

// NewHandler creates a new API handler
func NewHandler(discovery *engine.DiscoveryEngine, configs *engine.FieldConfigEngine, search *engine.SearchEngine, products *engine.ProductEngine) *Handler {
	return &Handler{
		discovery: discovery,
		configs:   configs,
		search:    search,
		products:  products,
	}
}

// Health is the health check endpoint
// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// =============================================================================
// FIELD ENDPOINTS
// =============================================================================

// DiscoverFields returns the live field set for the tenant
// GET /api/fields
func (h *Handler) DiscoverFields(c *gin.Context) {
	fields, err := h.discovery.Discover(tenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

// ListFieldConfigurations returns the tenant's configurations for fields
// that currently exist
// GET /api/field-configurations
func (h *Handler) ListFieldConfigurations(c *gin.Context) {
	configs, err := h.configs.List(tenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configurations": configs})
}

// SetFieldConfigurations applies a configuration batch atomically
// PUT /api/field-configurations
func (h *Handler) SetFieldConfigurations(c *gin.Context) {
	var req struct {
		Configurations []engine.FieldConfigInput `json:"configurations"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.configs.UpsertMany(tenantID(c), req.Configurations)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateFieldConfiguration patches a single field's configuration
// PATCH /api/field-configurations/:field
func (h *Handler) UpdateFieldConfiguration(c *gin.Context) {
	var input engine.FieldConfigInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cfg, err := h.configs.UpsertOne(tenantID(c), c.Param("field"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// =============================================================================
// SEARCH ENDPOINTS
// =============================================================================

// searchParamKeys are reserved query parameters; everything else is a filter
var searchParamKeys = map[string]bool{
	"skip":  true,
	"limit": true,
	"q":     true,
	"mode":  true,
}

// SearchProducts runs one compiled filter request
// GET /api/products/search
func (h *Handler) SearchProducts(c *gin.Context) {
	req := engine.SearchRequest{
		Query:   c.Query("q"),
		Mode:    c.Query("mode"),
		Skip:    parseIntParam(c.Query("skip"), 0),
		Limit:   parseIntParam(c.Query("limit"), 0),
		Filters: make(map[string]string),
	}
	for key, values := range c.Request.URL.Query() {
		if searchParamKeys[key] || len(values) == 0 {
			continue
		}
		req.Filters[key] = values[0]
	}

	result, err := h.search.Search(tenantID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	requestLogger(c).Debug("search completed",
		zap.Int64("total", result.TotalCount),
		zap.Int("filters", len(req.Filters)),
	)
	c.JSON(http.StatusOK, result)
}

// ListFilterFacets returns distinct values for one or all searchable fields
// GET /api/facets
func (h *Handler) ListFilterFacets(c *gin.Context) {
	facets, err := h.search.ListFacets(tenantID(c), c.Query("field"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"facets": facets})
}

// =============================================================================
// PRODUCT ENDPOINTS
// =============================================================================

// ListProducts returns a stable page of the tenant's products
// GET /api/products
func (h *Handler) ListProducts(c *gin.Context) {
	skip := parseIntParam(c.Query("skip"), 0)
	limit := parseIntParam(c.Query("limit"), 0)

	products, total, err := h.products.List(tenantID(c), skip, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":       products,
		"total_count": total,
	})
}

// GetProduct returns one product with its attributes
// GET /api/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := parseIDParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	product, err := h.products.Get(tenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct creates one product
// POST /api/products
func (h *Handler) CreateProduct(c *gin.Context) {
	var input engine.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	product, err := h.products.Create(tenantID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct applies a patch, enforcing field editability
// PATCH /api/products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := parseIDParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	var patch engine.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	product, err := h.products.Update(tenantID(c), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct removes one product and its attribute rows
// DELETE /api/products/:id
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := parseIDParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	if err := h.products.Delete(tenantID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// UploadProducts ingests a batch of already-parsed upload rows
// POST /api/products/upload
func (h *Handler) UploadProducts(c *gin.Context) {
	var req struct {
		Rows []engine.ImportRow `json:"rows"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	products, err := h.products.ImportRows(tenantID(c), req.Rows)
	if err != nil {
		respondError(c, err)
		return
	}

	requestLogger(c).Info("products uploaded", zap.Int("count", len(products)))
	c.JSON(http.StatusOK, gin.H{
		"message":  "upload complete",
		"products": products,
	})
}

func parseIntParam(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return fallback
}

func parseIDParam(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	return uint(id), err
}
