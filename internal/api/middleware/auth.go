package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/printnet/printnet/internal/identity"
)

const authIDKey = "auth_id"

type AuthMiddleware struct {
	identity *identity.Service
}

func NewAuthMiddleware(svc *identity.Service) *AuthMiddleware {
	return &AuthMiddleware{identity: svc}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's auth id on the request context.
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing Authorization header"})
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must be a bearer token"})
			return
		}

		authID, err := a.identity.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(authIDKey, authID)
		c.Next()
	}
}

// AuthID returns the authenticated caller's auth id set by RequireAuth.
func AuthID(c *gin.Context) string {
	return c.GetString(authIDKey)
}
