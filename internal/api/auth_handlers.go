// Package api - Authentication handlers
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/aethra/catalog/internal/auth"
	catalogerrors "github.com/aethra/catalog/internal/errors"
	"github.com/aethra/catalog/internal/engine"
	"github.com/aethra/catalog/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthHandler handles registration, login, and token refresh
type AuthHandler struct {
	db         *gorm.DB
	tenants    *engine.TenantEngine
	jwtService *auth.JWTService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, tenants *engine.TenantEngine, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{db: db, tenants: tenants, jwtService: jwtService}
}

// Register creates a tenant with its admin user
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		TenantName string `json:"tenant_name" binding:"required"`
		Email      string `json:"email" binding:"required,email"`
		Password   string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant, err := h.tenants.CreateTenant(req.TenantName, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	requestLogger(c).Info("tenant registered", zap.String("tenant_id", tenant.ID.String()))
	c.JSON(http.StatusCreated, tenant)
}

// Login authenticates a user and issues a token pair
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	err := h.db.Where("email = ? AND is_active = ?", req.Email, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !auth.CheckPassword(req.Password, user.PasswordHash)) {
		respondError(c, catalogerrors.NewUnauthorizedError("invalid credentials"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	pair, err := h.jwtService.GenerateTokenPair(user.ID, user.TenantID, user.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	h.db.Model(&user).Update("last_login_at", &now)

	c.JSON(http.StatusOK, pair)
}

// Refresh exchanges a refresh token for a new token pair
// POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := h.jwtService.ValidateToken(req.RefreshToken)
	if err != nil {
		respondError(c, catalogerrors.NewUnauthorizedError("invalid refresh token"))
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", claims.UserID).Error; err != nil {
		respondError(c, catalogerrors.NewUnauthorizedError("invalid refresh token"))
		return
	}

	pair, err := h.jwtService.GenerateTokenPair(user.ID, user.TenantID, user.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}
