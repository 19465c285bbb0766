// Package pdf lays out invoices as PDF documents.
package pdf

import (
	"time"

	"github.com/shopspring/decimal"

	"invoicing/internal/domain"
)

// Party is an address block on the invoice.
type Party struct {
	Name    string
	Email   string
	Address string
	Phone   string
}

// Item is one row of the item table.
type Item struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// Document is a fully resolved invoice ready for layout.
type Document struct {
	Number    string
	IssueDate time.Time
	DueDate   time.Time
	From      Party
	To        Party
	Items     []Item
	Subtotal  decimal.Decimal
	TaxRate   decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
	Notes     string
}

// FromInvoice builds a Document from an invoice loaded with its User,
// Client and Items.
func FromInvoice(inv *domain.Invoice) Document {
	doc := Document{
		Number:    inv.InvoiceNumber,
		IssueDate: inv.IssueDate,
		DueDate:   inv.DueDate,
		Subtotal:  inv.Subtotal,
		TaxRate:   inv.TaxRate,
		TaxAmount: inv.TaxAmount,
		Total:     inv.Total,
		Notes:     inv.Notes,
	}
	if inv.User != nil {
		doc.From = Party{
			Name:    inv.User.DisplayName(),
			Email:   inv.User.Email,
			Address: inv.User.Address,
			Phone:   inv.User.Phone,
		}
	}
	if inv.Client != nil {
		doc.To = Party{
			Name:    inv.Client.Name,
			Email:   inv.Client.Email,
			Address: inv.Client.Address,
			Phone:   inv.Client.Phone,
		}
	}
	doc.Items = make([]Item, len(inv.Items))
	for i, it := range inv.Items {
		doc.Items[i] = Item{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       it.Total,
		}
	}
	return doc
}
