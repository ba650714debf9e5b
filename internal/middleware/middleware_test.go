package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admissions-api/internal/models"
	"github.com/noah-isme/sma-admissions-api/internal/service"
)

func authFixture(t *testing.T) (*service.AuthService, func(role models.UserRole) string) {
	t.Helper()
	auth := service.NewAuthService(nil, service.AuthConfig{AccessTokenSecret: "secret"})
	issue := func(role models.UserRole) string {
		token, _, err := auth.IssueToken("u-1", role, "", time.Hour)
		require.NoError(t, err)
		return token
	}
	return auth, issue
}

func serve(router *gin.Engine, method, path, authorization string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestJWTRequiresBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth, issue := authFixture(t)

	router := gin.New()
	router.GET("/", JWT(auth), func(c *gin.Context) {
		c.String(http.StatusOK, ClaimsFromContext(c).UserID)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/", "Bearer not-a-jwt").Code)

	ok := serve(router, http.MethodGet, "/", "Bearer "+issue(models.RoleCounselor))
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "u-1", ok.Body.String())
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth, issue := authFixture(t)

	router := gin.New()
	router.GET("/", OptionalJWT(auth), func(c *gin.Context) {
		if claims := ClaimsFromContext(c); claims != nil {
			c.String(http.StatusOK, string(claims.Role))
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	assert.Equal(t, "anonymous", serve(router, http.MethodGet, "/", "").Body.String())
	assert.Equal(t, "anonymous", serve(router, http.MethodGet, "/", "Bearer garbage").Body.String())
	assert.Equal(t, "ADMIN", serve(router, http.MethodGet, "/", "Bearer "+issue(models.RoleAdmin)).Body.String())
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth, issue := authFixture(t)

	router := gin.New()
	router.GET("/admin", JWT(auth), RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/unguarded", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/admin", "Bearer "+issue(models.RoleAdmin)).Code)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodGet, "/admin", "Bearer "+issue(models.RoleCounselor)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/unguarded", "").Code)
}

func TestSharedSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/hook", SharedSecret("s3cret"), func(c *gin.Context) { c.Status(http.StatusAccepted) })
	router.POST("/off", SharedSecret(""), func(c *gin.Context) { c.Status(http.StatusAccepted) })

	assert.Equal(t, http.StatusAccepted, serve(router, http.MethodPost, "/hook", "Bearer s3cret").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodPost, "/hook", "Bearer wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodPost, "/hook", "").Code)

	off := serve(router, http.MethodPost, "/off", "Bearer ")
	assert.Equal(t, http.StatusServiceUnavailable, off.Code)
	assert.True(t, strings.Contains(off.Body.String(), "FEATURE_DISABLED"))
}

func TestMetricsMiddlewareLabelsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()

	router := gin.New()
	router.Use(Metrics(metrics))
	router.GET("/inquiries/:caseId", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, http.MethodGet, "/inquiries/S-1", "")
	serve(router, http.MethodGet, "/inquiries/S-2", "")
	serve(router, http.MethodGet, "/nowhere", "")

	count, err := testutil.GatherAndCount(metrics.Registry(), "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
