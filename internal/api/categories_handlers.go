// Package api - Category handlers
package api

import (
	"net/http"

	"github.com/aethra/catalog/internal/engine"
	"github.com/gin-gonic/gin"
)

// CategoryHandler manages tenant categories
type CategoryHandler struct {
	categories *engine.CategoryEngine
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categories *engine.CategoryEngine) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// ListCategories returns all categories for the tenant
// GET /api/categories
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categories.List(tenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories, "total": len(categories)})
}

// GetCategory returns a single category
// GET /api/categories/:id
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, err := parseIDParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category ID"})
		return
	}
	category, getErr := h.categories.Get(tenantID(c), id)
	if getErr != nil {
		respondError(c, getErr)
		return
	}
	c.JSON(http.StatusOK, category)
}

// CreateCategory creates a category
// POST /api/categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var input engine.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category, err := h.categories.Create(tenantID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// UpdateCategory replaces the writable fields of a category
// PUT /api/categories/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, err := parseIDParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category ID"})
		return
	}
	var input engine.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category, updateErr := h.categories.Update(tenantID(c), id, input)
	if updateErr != nil {
		respondError(c, updateErr)
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory removes a category and clears product references to it
// DELETE /api/categories/:id
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, err := parseIDParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category ID"})
		return
	}
	if err := h.categories.Delete(tenantID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}
