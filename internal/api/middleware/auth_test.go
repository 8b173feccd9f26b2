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

	"github.com/fmachado/propstack/internal/core"
)

const testSecret = "test-secret"

func signToken(t *testing.T, role string, tenantID int64, secret string) string {
	t.Helper()
	claims := Claims{
		UserID:   42,
		Role:     role,
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthRequired(testSecret)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"role": id.Role, "tenant_id": id.TenantID})
	})
	r.GET("/probe", handlers...)
	return r
}

func probe(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired_MissingHeader(t *testing.T) {
	w := probe(authRouter(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired_NotBearer(t *testing.T) {
	w := probe(authRouter(), "Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired_BadSignature(t *testing.T) {
	token := signToken(t, core.RoleSuperAdmin, 0, "other-secret")
	w := probe(authRouter(), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired_ExpiredToken(t *testing.T) {
	claims := Claims{
		UserID: 42,
		Role:   core.RoleOwner,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	w := probe(authRouter(), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired_ValidToken(t *testing.T) {
	token := signToken(t, core.RoleOwner, 7, testSecret)
	w := probe(authRouter(), "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tenant_id":7`)
}

func TestSuperAdminOnly(t *testing.T) {
	r := authRouter(SuperAdminOnly())

	w := probe(r, "Bearer "+signToken(t, core.RoleSuperAdmin, 0, testSecret))
	assert.Equal(t, http.StatusOK, w.Code)

	w = probe(r, "Bearer "+signToken(t, core.RoleOwner, 7, testSecret))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = probe(r, "Bearer "+signToken(t, core.RoleAgent, 7, testSecret))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTenantScoped(t *testing.T) {
	r := authRouter(TenantScoped())

	w := probe(r, "Bearer "+signToken(t, core.RoleOwner, 7, testSecret))
	assert.Equal(t, http.StatusOK, w.Code)

	// Super admins aggregate; they have no tenant to scope to.
	w = probe(r, "Bearer "+signToken(t, core.RoleSuperAdmin, 0, testSecret))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A tenant role without a tenant id is a malformed token.
	w = probe(r, "Bearer "+signToken(t, core.RoleAgent, 0, testSecret))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORS_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS())
	r.GET("/probe", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/probe", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
