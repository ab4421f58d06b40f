package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/yellowcard-api/internal/models"
	"github.com/noah-isme/yellowcard-api/internal/service"
	"github.com/noah-isme/yellowcard-api/pkg/config"
	appErrors "github.com/noah-isme/yellowcard-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func protectedRouter(role models.UserRole, guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWT(stubValidator{claims: &models.JWTClaims{Role: role, Email: "staff@school.edu", RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}})}, guards...)
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.DELETE("/students/:id", handlers...)
	return r
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRequiresToken(t *testing.T) {
	r := protectedRouter(models.RoleStaff)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodDelete, "/students/1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodDelete, "/students/1", "bad").Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/students/1", "good").Code)
}

func TestRequireRoles(t *testing.T) {
	staff := protectedRouter(models.RoleStaff, RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, serve(staff, http.MethodDelete, "/students/1", "good").Code)

	admin := protectedRouter(models.RoleAdmin, RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusNoContent, serve(admin, http.MethodDelete, "/students/1", "good").Code)
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/", "").Code)
}

func TestDataSourceHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for storage, want := range map[string]string{config.StorageMemory: "Memory-Mock", config.StoragePostgres: ""} {
		r := gin.New()
		r.Use(DataSource(storage))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := serve(r, http.MethodGet, "/", "")
		assert.Equal(t, want, w.Header().Get(DataSourceHeader), storage)
	}
}

func TestAuditLogsSuccessfulRequests(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := protectedRouter(models.RoleAdmin, Audit(zap.New(core), "delete", "student"))

	require.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/students/5", "good").Code)
	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "delete", fields["action"])
	assert.Equal(t, "5", fields["resource_id"])
	assert.Equal(t, "staff@school.edu", fields["actor"])
}

func TestMetricsMiddlewareRecords(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/students", func(c *gin.Context) {
		time.Sleep(time.Millisecond)
		c.Status(http.StatusOK)
	})

	serve(r, http.MethodGet, "/students", "")

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	found := false
	for _, f := range families {
		if f.GetName() == "http_requests_total" {
			found = true
			require.Len(t, f.GetMetric(), 1)
			assert.Equal(t, float64(1), f.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found)
}

func TestMetricsMiddlewareCollapsesUnmatchedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/wp-admin", "")
	serve(r, http.MethodGet, "/.env", "")
	serve(r, http.MethodGet, "/metrics", "")

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "http_requests_total" {
			continue
		}
		require.Len(t, f.GetMetric(), 1)
		labels := map[string]string{}
		for _, l := range f.GetMetric()[0].GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		assert.Equal(t, "unmatched", labels["path"])
		assert.Equal(t, float64(2), f.GetMetric()[0].GetCounter().GetValue())
	}
}

func TestJWTRejectsMalformedHeaders(t *testing.T) {
	r := protectedRouter(models.RoleStaff)

	for _, header := range []string{"Basic good", "Bearer", "Bearer   ", "good"} {
		req := httptest.NewRequest(http.MethodDelete, "/students/1", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}

func TestJWTRejectsTokenWithoutSubject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", JWT(stubValidator{claims: &models.JWTClaims{Role: models.RoleAdmin}}), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/", "good").Code)
}

func TestCurrentUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, CurrentUser(c))

	c.Set(ContextUserKey, &models.JWTClaims{Email: "a@school.edu"})
	require.NotNil(t, CurrentUser(c))
	assert.Equal(t, "a@school.edu", CurrentUser(c).Email)
}
