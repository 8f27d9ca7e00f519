package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aethra/catalog/internal/auth"
	"github.com/aethra/catalog/internal/engine"
	"github.com/aethra/catalog/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	jwt    *auth.JWTService
}

func setupServer(t *testing.T) *testServer {
	t.Setenv("JWT_SECRET", "test-secret-not-for-production")
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.ProductAttribute{},
		&models.FieldConfiguration{},
		&models.ImportSource{},
	))

	attrs := engine.NewAttributeStore(db)
	discovery := engine.NewDiscoveryEngine(attrs)
	configs := engine.NewFieldConfigEngine(db, discovery)
	search := engine.NewSearchEngine(db, attrs, discovery, configs, nil)
	products := engine.NewProductEngine(db, attrs, configs, nil)
	tenants := engine.NewTenantEngine(db)
	categories := engine.NewCategoryEngine(db)
	cm := engine.NewConnectionManager(db, "0123456789abcdef0123456789abcdef")
	importer := engine.NewImporter(db, cm, products)

	jwtService := auth.NewJWTService()
	handler := NewHandler(discovery, configs, search, products)
	authHandler := NewAuthHandler(db, tenants, jwtService)
	categoryHandler := NewCategoryHandler(categories)
	sourceHandler := NewSourceHandler(cm, importer)

	return &testServer{
		router: SetupRouter(handler, authHandler, categoryHandler, sourceHandler, jwtService),
		db:     db,
		jwt:    jwtService,
	}
}

// registerTenant creates a tenant through the API and returns its id and an
// access token for its admin user
func (s *testServer) registerTenant(t *testing.T, name string) (uuid.UUID, string) {
	w := s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"tenant_name": name,
		"email":       "admin@" + name + ".test",
		"password":    "longenoughpw",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var tenant models.Tenant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tenant))

	w = s.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"email":    "admin@" + name + ".test",
		"password": "longenoughpw",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var pair auth.TokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
	return tenant.ID, pair.AccessToken
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestAPI_AuthRequired(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/products", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_TenantHeaderMismatch(t *testing.T) {
	s := setupServer(t)
	_, token := s.registerTenant(t, "acme")

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Tenant-ID", uuid.New().String())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "TENANT_MISMATCH")
}

func TestAPI_UploadAndSearch(t *testing.T) {
	s := setupServer(t)
	_, token := s.registerTenant(t, "acme")

	w := s.do(t, http.MethodPost, "/api/products/upload", token, gin.H{
		"rows": []gin.H{
			{"product": gin.H{"sku_id": "CAM-1", "price": 199, "manufacturer": "Sony"},
				"attributes": []gin.H{{"field_name": "brand", "value": "Sony"}}},
			{"product": gin.H{"sku_id": "CAM-2", "price": 299, "manufacturer": "Samsung"},
				"attributes": []gin.H{{"field_name": "brand", "value": "Samsung"}}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Flag brand searchable, then filter on it
	w = s.do(t, http.MethodPut, "/api/field-configurations", token, gin.H{
		"configurations": []gin.H{{"field_name": "brand", "is_searchable": true}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/products/search?brand=Sony", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result engine.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Items, 1)
	assert.Equal(t, "CAM-1", result.Items[0].SkuID)
	assert.Equal(t, int64(1), result.TotalCount)
}

func TestAPI_SearchInvalidNumericFilter(t *testing.T) {
	s := setupServer(t)
	_, token := s.registerTenant(t, "acme")

	w := s.do(t, http.MethodGet, "/api/products/search?price_min=cheap", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_FILTER")
}

func TestAPI_FieldConfigurationBatchRejected(t *testing.T) {
	s := setupServer(t)
	_, token := s.registerTenant(t, "acme")

	w := s.do(t, http.MethodPut, "/api/field-configurations", token, gin.H{
		"configurations": []gin.H{
			{"field_name": "manufacturer", "is_searchable": true},
			{"field_name": "ghost"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "UNKNOWN_FIELD")

	// The valid entry must not have been written
	w = s.do(t, http.MethodGet, "/api/field-configurations", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Configurations []models.FieldConfiguration `json:"configurations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Configurations)
}

func TestAPI_FieldDiscovery(t *testing.T) {
	s := setupServer(t)
	_, token := s.registerTenant(t, "acme")

	w := s.do(t, http.MethodGet, "/api/fields", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Fields []engine.FieldInfo `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Fields, len(engine.StandardFieldNames))
}

func TestAPI_ProductLifecycle(t *testing.T) {
	s := setupServer(t)
	_, token := s.registerTenant(t, "acme")

	w := s.do(t, http.MethodPost, "/api/products", token, gin.H{
		"sku_id": "SKU-1",
		"price":  10.5,
		"attributes": []gin.H{
			{"field_name": "color", "value": "red"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var product models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
	require.NotZero(t, product.ID)

	// Lock the price column, then try to change it
	w = s.do(t, http.MethodPatch, "/api/field-configurations/price", token, gin.H{
		"is_editable": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPatch, "/api/products/1", token, gin.H{"price": 99})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_EDITABLE")

	w = s.do(t, http.MethodDelete, "/api/products/1", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/products/1", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_Facets(t *testing.T) {
	s := setupServer(t)
	_, token := s.registerTenant(t, "acme")

	w := s.do(t, http.MethodPost, "/api/products/upload", token, gin.H{
		"rows": []gin.H{
			{"product": gin.H{"sku_id": "S1"}, "attributes": []gin.H{{"field_name": "brand", "value": "Sony"}}},
			{"product": gin.H{"sku_id": "S2"}, "attributes": []gin.H{{"field_name": "brand", "value": "Canon"}}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPatch, "/api/field-configurations/brand", token, gin.H{
		"is_searchable": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/facets?field=brand", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Facets map[string][]string `json:"facets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Canon", "Sony"}, resp.Facets["brand"])
}

func TestAPI_Categories(t *testing.T) {
	s := setupServer(t)
	_, token := s.registerTenant(t, "acme")

	w := s.do(t, http.MethodPost, "/api/categories", token, gin.H{
		"name": "Cameras",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/categories", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cameras")
}

func TestAPI_RefreshToken(t *testing.T) {
	s := setupServer(t)
	_, token := s.registerTenant(t, "acme")
	_ = token

	w := s.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"email":    "admin@acme.test",
		"password": "longenoughpw",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var pair auth.TokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))

	w = s.do(t, http.MethodPost, "/auth/refresh", "", gin.H{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var refreshed auth.TokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshed))
	assert.NotEmpty(t, refreshed.AccessToken)

	// The refreshed token works against the API
	w = s.do(t, http.MethodGet, "/api/products", refreshed.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
