package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"invoicing/internal/apperr"
	"invoicing/internal/domain"
	"invoicing/internal/scope"
)

// Amount is the slice of an invoice the aggregations need.
type Amount struct {
	Status    domain.InvoiceStatus
	Total     decimal.Decimal
	DueDate   time.Time
	CreatedAt time.Time
}

// Amounts returns status, total and dates of every invoice visible to sc.
// Sums are taken in Go so decimal precision never depends on the driver's
// SUM result type.
func (s *Invoices) Amounts(ctx context.Context, sc scope.Scope, f InvoiceFilter) ([]Amount, error) {
	q := sc.Invoices(s.db.WithContext(ctx)).Select("invoices.status, invoices.total, invoices.due_date, invoices.created_at")
	if f.Status != "" {
		q = q.Where("invoices.status = ?", f.Status)
	}
	if !f.From.IsZero() {
		q = q.Where("invoices.created_at >= ?", f.From)
	}
	var out []Amount
	if err := q.Scan(&out).Error; err != nil {
		return nil, apperr.Internal(err, "load invoice amounts")
	}
	return out, nil
}

// Count counts clients visible to sc.
func (s *Clients) Count(ctx context.Context, sc scope.Scope) (int64, error) {
	var n int64
	if err := sc.Clients(s.db.WithContext(ctx)).Count(&n).Error; err != nil {
		return 0, apperr.Internal(err, "count clients")
	}
	return n, nil
}
