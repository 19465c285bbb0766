package api

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"invoicing/internal/service" // Admin and invoice use cases
)

// AdminStatsHandler returns platform-wide totals (Admin only)
func AdminStatsHandler(admin *service.Admin) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := scopeFrom(c)
		if !ok {
			return
		}
		stats, err := admin.Stats(c.Request.Context(), sc) // Cached for a minute
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// ListUsersHandler returns all users with their counts (Admin only)
func ListUsersHandler(admin *service.Admin) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := admin.Users(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

// GetUserHandler returns one user with counts (Admin only)
func GetUserHandler(admin *service.Admin) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		user, err := admin.User(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// UpdateUserHandler edits an account (Admin only)
func UpdateUserHandler(admin *service.Admin) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := scopeFrom(c)
		if !ok {
			return
		}
		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		var req adminUserRequest // Only present fields are changed
		if !bindJSON(c, &req) {
			return
		}
		user, err := admin.UpdateUser(c.Request.Context(), sc, id, service.UserUpdate{
			Name:        req.Name,
			Email:       req.Email,
			Role:        req.Role,
			CompanyName: req.CompanyName,
			Address:     req.Address,
			Phone:       req.Phone,
		})
		if err != nil {
			respondError(c, err) // Own role changes are refused
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// DeleteUserHandler removes an account and its data (Admin only)
func DeleteUserHandler(admin *service.Admin) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := scopeFrom(c)
		if !ok {
			return
		}
		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		if err := admin.DeleteUser(c.Request.Context(), sc, id); err != nil {
			respondError(c, err) // Self-deletion is refused
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ListAllInvoicesHandler lists invoices of every tenant, filtered by
// status, userId, clientId, dateFrom and dateTo (Admin only)
func ListAllInvoicesHandler(invoices *service.Invoices) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := scopeFrom(c)
		if !ok {
			return
		}
		f, err := invoiceFilter(c) // Parse query filters
		if err != nil {
			respondError(c, err)
			return
		}
		list, err := invoices.List(c.Request.Context(), sc, f)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// ListAllClientsHandler lists clients of every tenant (Admin only)
func ListAllClientsHandler(admin *service.Admin) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := scopeFrom(c)
		if !ok {
			return
		}
		list, err := admin.Clients(c.Request.Context(), sc)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}
