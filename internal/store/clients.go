package store

import (
	"context"

	"gorm.io/gorm"

	"invoicing/internal/apperr"
	"invoicing/internal/domain"
	"invoicing/internal/scope"
)

// Clients persists client records.
type Clients struct {
	db *gorm.DB
}

func NewClients(db *gorm.DB) *Clients {
	return &Clients{db: db}
}

// Get loads one client visible to sc.
func (s *Clients) Get(ctx context.Context, sc scope.Scope, id uint) (*domain.Client, error) {
	var c domain.Client
	if err := sc.Clients(s.db.WithContext(ctx)).Where("clients.id = ?", id).First(&c).Error; err != nil {
		return nil, notFound(err, "Client")
	}
	return &c, nil
}

// GetWithRecentInvoices loads a client and its latest invoices.
func (s *Clients) GetWithRecentInvoices(ctx context.Context, sc scope.Scope, id uint, limit int) (*domain.Client, error) {
	var c domain.Client
	err := sc.Clients(s.db.WithContext(ctx)).
		Preload("Invoices", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at desc").Order("id desc").Limit(limit)
		}).
		Where("clients.id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, notFound(err, "Client")
	}
	return &c, nil
}

// List returns clients visible to sc in the given order.
func (s *Clients) List(ctx context.Context, sc scope.Scope, order string, preloads ...string) ([]domain.Client, error) {
	q := sc.Clients(s.db.WithContext(ctx)).Order(order)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	var out []domain.Client
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Internal(err, "list clients")
	}
	return out, nil
}

func (s *Clients) Create(ctx context.Context, c *domain.Client) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return apperr.Internal(err, "create client")
	}
	return nil
}

// Update writes the contact columns of c.
func (s *Clients) Update(ctx context.Context, c *domain.Client) error {
	err := s.db.WithContext(ctx).Model(&domain.Client{}).Where("id = ?", c.ID).
		Select("name", "email", "phone", "address").
		Updates(c).Error
	if err != nil {
		return apperr.Internal(err, "update client")
	}
	return nil
}

// HasPaidInvoices reports whether any invoice billed to the client is PAID.
func (s *Clients) HasPaidInvoices(ctx context.Context, clientID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("client_id = ? AND status = ?", clientID, domain.StatusPaid).
		Count(&n).Error
	if err != nil {
		return false, apperr.Internal(err, "count paid invoices")
	}
	return n > 0, nil
}

// Delete removes a client and the invoices billed to it.
func (s *Clients) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteInvoices(tx, "client_id = ?", id); err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&domain.Client{}).Error; err != nil {
			return apperr.Internal(err, "delete client")
		}
		return nil
	})
}
