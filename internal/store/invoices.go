package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"invoicing/internal/apperr"
	"invoicing/internal/domain"
	"invoicing/internal/scope"
)

// InvoiceFilter narrows invoice listings. Zero values are ignored.
type InvoiceFilter struct {
	Status   domain.InvoiceStatus
	Statuses []domain.InvoiceStatus // any of, combined with Status
	ClientID uint
	UserID   uint      // only meaningful in a global scope
	From     time.Time // created at or after
	To       time.Time // created at or before
	Limit    int
}

// Invoices persists invoices, their items and reminders.
type Invoices struct {
	db  *gorm.DB
	seq Sequencer
}

func NewInvoices(db *gorm.DB) *Invoices {
	return &Invoices{db: db}
}

// Get loads one invoice visible to sc. preloads name associations.
func (s *Invoices) Get(ctx context.Context, sc scope.Scope, id uint, preloads ...string) (*domain.Invoice, error) {
	q := sc.Invoices(s.db.WithContext(ctx))
	for _, p := range preloads {
		q = q.Preload(p, orderFor(p))
	}
	var inv domain.Invoice
	if err := q.Where("invoices.id = ?", id).First(&inv).Error; err != nil {
		return nil, notFound(err, "Invoice")
	}
	return &inv, nil
}

// List returns invoices visible to sc, newest first, with their client.
func (s *Invoices) List(ctx context.Context, sc scope.Scope, f InvoiceFilter, preloads ...string) ([]domain.Invoice, error) {
	q := sc.Invoices(s.db.WithContext(ctx))
	if f.Status != "" {
		q = q.Where("invoices.status = ?", f.Status)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("invoices.status IN ?", f.Statuses)
	}
	if f.ClientID != 0 {
		q = q.Where("invoices.client_id = ?", f.ClientID)
	}
	if f.UserID != 0 {
		q = q.Where("invoices.user_id = ?", f.UserID)
	}
	if !f.From.IsZero() {
		q = q.Where("invoices.created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("invoices.created_at <= ?", f.To)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	for _, p := range preloads {
		q = q.Preload(p)
	}
	var out []domain.Invoice
	if err := q.Order("invoices.created_at desc").Order("invoices.id desc").Find(&out).Error; err != nil {
		return nil, apperr.Internal(err, "list invoices")
	}
	return out, nil
}

// PastDue returns open invoices whose due date is before now, oldest due first.
func (s *Invoices) PastDue(ctx context.Context, sc scope.Scope, now time.Time) ([]domain.Invoice, error) {
	var out []domain.Invoice
	err := sc.Invoices(s.db.WithContext(ctx)).
		Preload("Client").
		Where("invoices.status IN ?", []domain.InvoiceStatus{domain.StatusSent, domain.StatusOverdue}).
		Where("invoices.due_date < ?", now).
		Order("invoices.due_date asc").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Internal(err, "list overdue invoices")
	}
	return out, nil
}

// Create numbers and inserts inv with its items in one transaction.
// number renders the allocated sequence.
func (s *Invoices) Create(ctx context.Context, inv *domain.Invoice, number func(seq int64) string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := s.seq.Next(ctx, tx, inv.UserID)
		if err != nil {
			return apperr.Internal(err, "allocate invoice number")
		}
		inv.InvoiceNumber = number(seq)
		if err := tx.Create(inv).Error; err != nil {
			return apperr.Internal(err, "create invoice")
		}
		return nil
	})
}

// Update writes the editable columns of inv. When items is non-nil the
// item set is replaced wholesale.
func (s *Invoices) Update(ctx context.Context, inv *domain.Invoice, items []domain.InvoiceItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if items != nil {
			if err := tx.Where("invoice_id = ?", inv.ID).Delete(&domain.InvoiceItem{}).Error; err != nil {
				return apperr.Internal(err, "delete invoice items")
			}
			for i := range items {
				items[i].ID = 0
				items[i].InvoiceID = inv.ID
			}
			if len(items) > 0 {
				if err := tx.Create(&items).Error; err != nil {
					return apperr.Internal(err, "insert invoice items")
				}
			}
			inv.Items = items
		}
		err := tx.Model(&domain.Invoice{}).Where("id = ?", inv.ID).Select(
			"client_id", "due_date", "subtotal", "tax_rate", "tax_amount", "total",
			"notes", "is_recurring", "recurring_interval", "updated_at",
		).Updates(&domain.Invoice{
			ClientID:          inv.ClientID,
			DueDate:           inv.DueDate,
			Subtotal:          inv.Subtotal,
			TaxRate:           inv.TaxRate,
			TaxAmount:         inv.TaxAmount,
			Total:             inv.Total,
			Notes:             inv.Notes,
			IsRecurring:       inv.IsRecurring,
			RecurringInterval: inv.RecurringInterval,
			UpdatedAt:         time.Now(),
		}).Error
		if err != nil {
			return apperr.Internal(err, "update invoice")
		}
		return nil
	})
}

// SetStatus persists a status change for one invoice.
func (s *Invoices) SetStatus(ctx context.Context, id uint, status domain.InvoiceStatus) error {
	err := s.db.WithContext(ctx).Model(&domain.Invoice{}).Where("id = ?", id).Update("status", status).Error
	if err != nil {
		return apperr.Internal(err, "update invoice status")
	}
	return nil
}

// MarkOverdue flips every SENT invoice past due at now to OVERDUE and
// returns how many changed.
func (s *Invoices) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("status = ? AND due_date < ?", domain.StatusSent, now).
		Update("status", domain.StatusOverdue)
	if res.Error != nil {
		return 0, apperr.Internal(res.Error, "mark overdue invoices")
	}
	return res.RowsAffected, nil
}

// Delete removes an invoice with its items and reminders.
func (s *Invoices) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteInvoices(tx, "id = ?", id)
	})
}

// AddReminder appends a reminder to the log.
func (s *Invoices) AddReminder(ctx context.Context, r *domain.PaymentReminder) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return apperr.Internal(err, "record reminder")
	}
	return nil
}

// deleteInvoices removes the invoices matching cond and everything they own.
func deleteInvoices(tx *gorm.DB, cond string, args ...any) error {
	ids := tx.Model(&domain.Invoice{}).Select("id").Where(cond, args...)
	if err := tx.Where("invoice_id IN (?)", ids).Delete(&domain.InvoiceItem{}).Error; err != nil {
		return apperr.Internal(err, "delete invoice items")
	}
	if err := tx.Where("invoice_id IN (?)", ids).Delete(&domain.PaymentReminder{}).Error; err != nil {
		return apperr.Internal(err, "delete reminders")
	}
	if err := tx.Where(cond, args...).Delete(&domain.Invoice{}).Error; err != nil {
		return apperr.Internal(err, "delete invoices")
	}
	return nil
}

func orderFor(assoc string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch assoc {
		case "Items":
			return db.Order("position asc").Order("id asc")
		case "Reminders":
			return db.Order("created_at asc")
		}
		return db
	}
}
