// Package api - Middleware
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/aethra/catalog/internal/auth"
	catalogerrors "github.com/aethra/catalog/internal/errors"
	"github.com/aethra/catalog/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestLogger attaches a request-scoped logger and logs each request
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)

		log := logger.L().With(
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		c.Set("logger", log)

		c.Next()

		log.Info("request completed",
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// requestLogger returns the request-scoped logger
func requestLogger(c *gin.Context) *zap.Logger {
	if log, ok := c.Get("logger"); ok {
		if l, ok := log.(*zap.Logger); ok {
			return l
		}
	}
	return logger.L()
}

// AuthMiddleware validates the bearer token and derives the tenant scope.
// The token is the only tenant source; an explicit X-Tenant-ID header that
// disagrees with it is a hard tenant mismatch, never a silent override.
func AuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondError(c, catalogerrors.NewUnauthorizedError(""))
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			respondError(c, catalogerrors.NewUnauthorizedError("invalid token"))
			c.Abort()
			return
		}

		if explicit := c.GetHeader("X-Tenant-ID"); explicit != "" {
			id, err := uuid.Parse(explicit)
			if err != nil || id != claims.TenantID {
				respondError(c, catalogerrors.NewTenantMismatchError())
				c.Abort()
				return
			}
		}

		c.Set("tenant_id", claims.TenantID)
		c.Set("user_id", claims.UserID)
		c.Next()
	}
}

// tenantID returns the authenticated tenant
func tenantID(c *gin.Context) uuid.UUID {
	return c.MustGet("tenant_id").(uuid.UUID)
}

// respondError maps typed catalog errors onto HTTP responses
func respondError(c *gin.Context, err error) {
	if cerr, ok := err.(catalogerrors.CatalogError); ok {
		c.JSON(cerr.HTTPStatus(), gin.H{"error": cerr.Error(), "code": cerr.Code()})
		return
	}
	requestLogger(c).Error("unhandled error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
