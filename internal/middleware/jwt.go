package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"github.com/gin-gonic/gin" // Gin web framework

	"invoicing/internal/scope" // Data access scopes
	"invoicing/internal/utils" // JWT utility functions
)

// Context keys set by the auth middlewares
const (
	UserIDKey = "userID" // Authenticated user ID
	ScopeKey  = "scope"  // scope.Scope for data access
)

// JWTAuthMiddleware validates JWT tokens and binds the caller's tenant scope
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string and parse it
		claims, err := utils.ParseJWT(tokenStr, secret)       // Parse the JWT token
		if err != nil {
			// If parsing fails, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(UserIDKey, claims.UserID)              // Store userID in context
		c.Set(ScopeKey, scope.Tenant(claims.UserID)) // Tenant scope until a stronger one replaces it
		c.Next()                                     // Proceed to the next handler
	}
}

// UserID returns the authenticated user ID, zero when unauthenticated
func UserID(c *gin.Context) uint {
	return c.GetUint(UserIDKey)
}

// ScopeFrom returns the scope bound by the auth middlewares
func ScopeFrom(c *gin.Context) (scope.Scope, bool) {
	v, ok := c.Get(ScopeKey)
	if !ok {
		return nil, false
	}
	sc, ok := v.(scope.Scope)
	return sc, ok
}
