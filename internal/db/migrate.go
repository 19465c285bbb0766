package db

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"invoicing/internal/domain" // Importing domain models
)

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&domain.User{},
		&domain.Client{},
		&domain.Invoice{},
		&domain.InvoiceItem{},
		&domain.PaymentReminder{},
		&domain.InvoiceSequence{},
	}
}

// Migrate performs automatic migration for the database schema
func Migrate(gdb *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := gdb.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logrus.Info("Migration completed.")
	return nil
}
