package middleware

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging

	"invoicing/internal/apperr" // Error kinds
	"invoicing/internal/scope"  // Data access scopes
	"invoicing/internal/store"  // User lookup
)

// AdminOnlyMiddleware checks the user's role from the database on each request
// and upgrades the request to the global scope
func AdminOnlyMiddleware(users *store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c) // Get userID from context
		// Check if userID exists in context
		if userID == 0 {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		user, err := users.ByID(c.Request.Context(), userID) // Fetch user from database
		if apperr.Is(err, apperr.KindNotFound) {
			// Token for an account that no longer exists
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		} else if err != nil {
			logrus.WithField("user_id", userID).WithError(err).Error("Admin check failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		// Check if user role is admin
		if !user.IsAdmin() {
			// If not admin, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Set(ScopeKey, scope.Admin(user.ID)) // Global scope for admin handlers
		c.Next()                              // If admin, proceed to the next handler
	}
}
