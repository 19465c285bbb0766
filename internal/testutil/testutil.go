// Package testutil builds throwaway databases and fixtures for tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"invoicing/internal/config"
	"invoicing/internal/db"
	"invoicing/internal/domain"
)

// DB returns a migrated sqlite database that lives for the test.
func DB(t *testing.T) *gorm.DB {
	t.Helper()
	logrus.SetLevel(logrus.WarnLevel)
	gdb, err := db.Connect(&config.Config{
		DBDriver: "sqlite",
		DBName:   filepath.Join(t.TempDir(), "test.db"),
		IsProd:   true,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// Clock returns a fixed clock at t.
func Clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// User inserts a user with the given role. The password hash is not a
// valid bcrypt hash; use the auth service when a login is needed.
func User(t *testing.T, gdb *gorm.DB, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Password: "x", Name: email, Role: role}
	if err := gdb.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// Client inserts a client owned by userID.
func Client(t *testing.T, gdb *gorm.DB, userID uint, name string) *domain.Client {
	t.Helper()
	c := &domain.Client{UserID: userID, Name: name, Email: name + "@client.test"}
	if err := gdb.Create(c).Error; err != nil {
		t.Fatalf("create client: %v", err)
	}
	return c
}

// Invoice inserts an invoice directly, bypassing numbering and totals.
func Invoice(t *testing.T, gdb *gorm.DB, userID, clientID uint, number string, status domain.InvoiceStatus, total string, due time.Time) *domain.Invoice {
	t.Helper()
	amount := decimal.RequireFromString(total)
	inv := &domain.Invoice{
		UserID:        userID,
		ClientID:      clientID,
		InvoiceNumber: number,
		Status:        status,
		IssueDate:     due.AddDate(0, 0, -30),
		DueDate:       due,
		Subtotal:      amount,
		TaxRate:       decimal.Zero,
		TaxAmount:     decimal.Zero,
		Total:         amount,
	}
	if err := gdb.Create(inv).Error; err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return inv
}
