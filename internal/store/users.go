package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"invoicing/internal/apperr"
	"invoicing/internal/domain"
)

// UserSummary is a user with the size of their tenant.
type UserSummary struct {
	domain.User
	InvoiceCount int64 `json:"invoiceCount"`
	ClientCount  int64 `json:"clientCount"`
}

// Users persists user accounts. Users are not tenant-owned so there is
// no scope; callers decide who may reach these methods.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (s *Users) ByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "User")
	}
	return &u, nil
}

// ByEmail looks up a user by normalized email.
func (s *Users) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error; err != nil {
		return nil, notFound(err, "User")
	}
	return &u, nil
}

// EmailTaken reports whether another account already uses email.
func (s *Users) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.User{}).
		Where("email = ? AND id <> ?", NormalizeEmail(email), exceptID).
		Count(&n).Error
	if err != nil {
		return false, apperr.Internal(err, "check email")
	}
	return n > 0, nil
}

func (s *Users) Create(ctx context.Context, u *domain.User) error {
	u.Email = NormalizeEmail(u.Email)
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return apperr.Internal(err, "create user")
	}
	return nil
}

// Update writes the named columns of u.
func (s *Users) Update(ctx context.Context, u *domain.User, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	u.Email = NormalizeEmail(u.Email)
	err := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", u.ID).
		Select(columns).Updates(u).Error
	if err != nil {
		return apperr.Internal(err, "update user")
	}
	return nil
}

// Delete removes a user and everything the tenant owns.
func (s *Users) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&domain.User{})
		if res.Error != nil {
			return apperr.Internal(res.Error, "delete user")
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("User")
		}
		if err := deleteInvoices(tx, "user_id = ?", id); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Client{}).Error; err != nil {
			return apperr.Internal(err, "delete clients")
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.InvoiceSequence{}).Error; err != nil {
			return apperr.Internal(err, "delete invoice sequence")
		}
		return nil
	})
}

// Summaries lists users newest first with invoice and client counts.
func (s *Users) Summaries(ctx context.Context) ([]UserSummary, error) {
	var users []domain.User
	if err := s.db.WithContext(ctx).Order("created_at desc").Order("id desc").Find(&users).Error; err != nil {
		return nil, apperr.Internal(err, "list users")
	}
	invoices, err := s.countBy(ctx, &domain.Invoice{})
	if err != nil {
		return nil, err
	}
	clients, err := s.countBy(ctx, &domain.Client{})
	if err != nil {
		return nil, err
	}
	out := make([]UserSummary, len(users))
	for i, u := range users {
		out[i] = UserSummary{User: u, InvoiceCount: invoices[u.ID], ClientCount: clients[u.ID]}
	}
	return out, nil
}

// Summary returns one user with counts.
func (s *Users) Summary(ctx context.Context, id uint) (*UserSummary, error) {
	u, err := s.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sum := &UserSummary{User: *u}
	db := s.db.WithContext(ctx)
	if err := db.Model(&domain.Invoice{}).Where("user_id = ?", id).Count(&sum.InvoiceCount).Error; err != nil {
		return nil, apperr.Internal(err, "count invoices")
	}
	if err := db.Model(&domain.Client{}).Where("user_id = ?", id).Count(&sum.ClientCount).Error; err != nil {
		return nil, apperr.Internal(err, "count clients")
	}
	return sum, nil
}

// Recent returns the newest n users.
func (s *Users) Recent(ctx context.Context, n int) ([]domain.User, error) {
	var out []domain.User
	if err := s.db.WithContext(ctx).Order("created_at desc").Order("id desc").Limit(n).Find(&out).Error; err != nil {
		return nil, apperr.Internal(err, "list recent users")
	}
	return out, nil
}

func (s *Users) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error; err != nil {
		return 0, apperr.Internal(err, "count users")
	}
	return n, nil
}

func (s *Users) countBy(ctx context.Context, model any) (map[uint]int64, error) {
	var rows []struct {
		UserID uint
		N      int64
	}
	err := s.db.WithContext(ctx).Model(model).
		Select("user_id, COUNT(*) AS n").
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err, "count per user")
	}
	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.UserID] = r.N
	}
	return out, nil
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
