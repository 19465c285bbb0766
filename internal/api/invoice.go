package api

import (
	"fmt"      // Header formatting
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"invoicing/internal/service" // Invoice use cases
)

// ListInvoicesHandler lists the caller's invoices, filtered by status and clientId
func ListInvoicesHandler(invoices *service.Invoices) gin.HandlerFunc {
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

// GetInvoiceHandler returns one invoice with items and reminders
func GetInvoiceHandler(invoices *service.Invoices) gin.HandlerFunc {
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
		inv, err := invoices.Get(c.Request.Context(), sc, id)
		if err != nil {
			respondError(c, err) // Not found or owned by another tenant
			return
		}
		c.JSON(http.StatusOK, inv)
	}
}

// CreateInvoiceHandler creates a numbered draft
func CreateInvoiceHandler(invoices *service.Invoices) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := scopeFrom(c)
		if !ok {
			return
		}
		var req createInvoiceRequest // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		inv, err := invoices.Create(c.Request.Context(), sc, req.input())
		if err != nil {
			respondError(c, err) // Invalid amounts or unknown client
			return
		}
		c.JSON(http.StatusCreated, inv)
	}
}

// UpdateInvoiceHandler edits a draft
func UpdateInvoiceHandler(invoices *service.Invoices) gin.HandlerFunc {
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
		var req updateInvoiceRequest
		if !bindJSON(c, &req) {
			return
		}
		inv, err := invoices.Update(c.Request.Context(), sc, id, req.update())
		if err != nil {
			respondError(c, err) // Non-draft invoices are refused
			return
		}
		c.JSON(http.StatusOK, inv)
	}
}

// DeleteInvoiceHandler removes an unpaid invoice
func DeleteInvoiceHandler(invoices *service.Invoices) gin.HandlerFunc {
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
		if err := invoices.Delete(c.Request.Context(), sc, id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// UpdateInvoiceStatusHandler marks an invoice paid or cancelled
func UpdateInvoiceStatusHandler(invoices *service.Invoices) gin.HandlerFunc {
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
		var req statusRequest
		if !bindJSON(c, &req) {
			return
		}
		inv, err := invoices.SetStatus(c.Request.Context(), sc, id, req.Status)
		if err != nil {
			respondError(c, err) // Disallowed transition
			return
		}
		c.JSON(http.StatusOK, inv)
	}
}

// InvoicePDFHandler downloads the invoice as a PDF attachment
func InvoicePDFHandler(invoices *service.Invoices) gin.HandlerFunc {
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
		name, data, err := invoices.PDF(c.Request.Context(), sc, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name)) // Download as INV-....pdf
		c.Data(http.StatusOK, "application/pdf", data)
	}
}

// SendInvoiceHandler emails the invoice to its client
func SendInvoiceHandler(invoices *service.Invoices) gin.HandlerFunc {
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
		if err := invoices.Send(c.Request.Context(), sc, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Invoice sent successfully"})
	}
}

// RemindInvoiceHandler emails a payment reminder
func RemindInvoiceHandler(invoices *service.Invoices) gin.HandlerFunc {
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
		if err := invoices.Remind(c.Request.Context(), sc, id); err != nil {
			respondError(c, err) // Paid or cancelled invoices are refused
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Reminder sent successfully"})
	}
}
