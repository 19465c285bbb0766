package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"invoicing/internal/domain"
)

// Sequencer allocates per-owner invoice sequence numbers from a counter row.
// The increment is a single UPDATE so two concurrent creations for the
// same owner can never read the same value.
type Sequencer struct{}

// Next increments and returns the owner's sequence. It must run inside the
// transaction that inserts the invoice so a rollback releases the number.
func (Sequencer) Next(ctx context.Context, tx *gorm.DB, userID uint) (int64, error) {
	tx = tx.WithContext(ctx)
	for attempt := 0; attempt < 2; attempt++ {
		res := tx.Model(&domain.InvoiceSequence{}).
			Where("user_id = ?", userID).
			Update("last_value", gorm.Expr("last_value + 1"))
		if res.Error != nil {
			return 0, fmt.Errorf("increment invoice sequence: %w", res.Error)
		}
		if res.RowsAffected == 1 { // Counter row exists
			var seq domain.InvoiceSequence
			if err := tx.Where("user_id = ?", userID).First(&seq).Error; err != nil {
				return 0, fmt.Errorf("read invoice sequence: %w", err)
			}
			return seq.LastValue, nil
		}
		// First allocation: continue from the invoices the owner already has.
		var existing int64
		if err := tx.Model(&domain.Invoice{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
			return 0, fmt.Errorf("count invoices: %w", err)
		}
		seq := domain.InvoiceSequence{UserID: userID, LastValue: existing + 1}
		err := tx.Transaction(func(sp *gorm.DB) error { // Savepoint, keeps the outer tx usable
			return sp.Create(&seq).Error
		})
		if err == nil {
			return seq.LastValue, nil
		} else if attempt == 1 {
			return 0, fmt.Errorf("create invoice sequence: %w", err)
		}
		// Lost the race to create the row; the next pass increments it.
	}
	return 0, fmt.Errorf("allocate invoice sequence for user %d", userID)
}
