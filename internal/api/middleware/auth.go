package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/fmachado/propstack/internal/core"
)

const identityKey = "identity"

// Claims is the token payload the auth layer issues. Super admins carry no
// tenant id; everyone else is scoped to exactly one tenant.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Role     string `json:"role"`
	TenantID int64  `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

func AuthRequired(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(jwtSecret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(identityKey, core.Identity{
			UserID:   claims.UserID,
			Role:     claims.Role,
			TenantID: claims.TenantID,
		})
		c.Next()
	}
}

// IdentityFrom pulls the security context set by AuthRequired.
func IdentityFrom(c *gin.Context) (core.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return core.Identity{}, false
	}
	id, ok := v.(core.Identity)
	return id, ok
}

// SuperAdminOnly gates the cross-tenant aggregation surface.
func SuperAdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok || !id.SuperAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied. Super Admin only."})
			c.Abort()
			return
		}
		c.Next()
	}
}

// TenantScoped gates the single-tenant fast path: the caller must carry a
// tenant id. Super admins have no tenant and are redirected to the
// aggregation surface instead.
func TenantScoped() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok || id.SuperAdmin() || id.TenantID == 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "Tenant-scoped access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
