package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Query parsing

	"github.com/gin-gonic/gin" // Gin web framework

	"invoicing/internal/apperr"  // Error kinds
	"invoicing/internal/service" // Dashboard use cases
)

// DashboardStatsHandler returns the caller's invoice and revenue totals
func DashboardStatsHandler(d *service.Dashboard) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := scopeFrom(c)
		if !ok {
			return
		}
		stats, err := d.Stats(c.Request.Context(), sc) // Cached per tenant
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// RevenueChartHandler returns monthly paid revenue, ?months=N (default 12)
func RevenueChartHandler(d *service.Dashboard) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := scopeFrom(c)
		if !ok {
			return
		}
		months := 0
		if s := c.Query("months"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				respondError(c, apperr.Field("months", "must be a positive integer"))
				return
			}
			months = n // Capped by the service
		}
		points, err := d.Chart(c.Request.Context(), sc, months)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, points)
	}
}

// RecentInvoicesHandler returns the newest invoices
func RecentInvoicesHandler(d *service.Dashboard) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := scopeFrom(c)
		if !ok {
			return
		}
		list, err := d.Recent(c.Request.Context(), sc)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// OverdueInvoicesHandler lists open invoices past their due date
func OverdueInvoicesHandler(d *service.Dashboard) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := scopeFrom(c)
		if !ok {
			return
		}
		list, err := d.Overdue(c.Request.Context(), sc)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}
