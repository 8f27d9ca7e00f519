// Package api - Router setup
package api

import (
	"os"
	"strings"
	"time"

	"github.com/aethra/catalog/internal/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(handler *Handler, authHandler *AuthHandler, categoryHandler *CategoryHandler, sourceHandler *SourceHandler, jwtService *auth.JWTService) *gin.Engine {
	r := gin.Default()

	// CORS configuration
	// When credentials are used, specific origins must be provided (not *)
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Tenant-ID", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// Get allowed origins from environment or use defaults for development
	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(allowedOrigins, ",")
	} else {
		// Development defaults - in production, set CORS_ALLOWED_ORIGINS
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:8080",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:8080",
		}
	}

	r.Use(cors.New(corsConfig))
	r.Use(RequestLogger())

	// Health check (no auth required)
	r.GET("/api/health", handler.Health)

	// ==========================================================================
	// AUTH API - Authentication endpoints (no auth required)
	// ==========================================================================
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.Refresh)
	}

	// ==========================================================================
	// TENANT API - Everything below is tenant-scoped via JWT claims
	// ==========================================================================
	api := r.Group("/api")
	api.Use(AuthMiddleware(jwtService))
	{
		// Field discovery and configuration
		api.GET("/fields", handler.DiscoverFields)
		api.GET("/field-configurations", handler.ListFieldConfigurations)
		api.PUT("/field-configurations", handler.SetFieldConfigurations)
		api.PATCH("/field-configurations/:field", handler.UpdateFieldConfiguration)

		// Search and facets
		api.GET("/products/search", handler.SearchProducts)
		api.GET("/facets", handler.ListFilterFacets)

		// Product lifecycle
		api.GET("/products", handler.ListProducts)
		api.POST("/products", handler.CreateProduct)
		api.GET("/products/:id", handler.GetProduct)
		api.PATCH("/products/:id", handler.UpdateProduct)
		api.DELETE("/products/:id", handler.DeleteProduct)
		api.POST("/products/upload", handler.UploadProducts)

		// Categories
		api.GET("/categories", categoryHandler.ListCategories)
		api.POST("/categories", categoryHandler.CreateCategory)
		api.GET("/categories/:id", categoryHandler.GetCategory)
		api.PUT("/categories/:id", categoryHandler.UpdateCategory)
		api.DELETE("/categories/:id", categoryHandler.DeleteCategory)

		// External import sources
		api.GET("/sources", sourceHandler.ListSources)
		api.POST("/sources", sourceHandler.CreateSource)
		api.GET("/sources/:id", sourceHandler.GetSource)
		api.DELETE("/sources/:id", sourceHandler.DeleteSource)
		api.POST("/sources/:id/test", sourceHandler.TestSource)
		api.POST("/sources/:id/import", sourceHandler.RunImport)
	}

	return r
}
