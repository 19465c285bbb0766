package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "DRAFT"     // Editable, not yet sent
	StatusSent      InvoiceStatus = "SENT"      // Delivered to the client
	StatusPaid      InvoiceStatus = "PAID"      // Settled
	StatusOverdue   InvoiceStatus = "OVERDUE"   // Sent and past due
	StatusCancelled InvoiceStatus = "CANCELLED" // Voided
)

// Valid reports whether s is a known status
func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// Invoice Model
type Invoice struct {
	ID                uint              `gorm:"primaryKey" json:"id"`                                                   // Primary key
	UserID            uint              `gorm:"not null;uniqueIndex:idx_invoices_owner_number,priority:1" json:"userId"` // Owning user
	ClientID          uint              `gorm:"index;not null" json:"clientId"`                                         // Billed client
	InvoiceNumber     string            `gorm:"size:50;not null;uniqueIndex:idx_invoices_owner_number,priority:2" json:"invoiceNumber"`
	Status            InvoiceStatus     `gorm:"size:20;not null;default:DRAFT;index" json:"status"` // Lifecycle state
	IssueDate         time.Time         `gorm:"not null" json:"issueDate"`                          // Set at creation
	DueDate           time.Time         `gorm:"not null;index" json:"dueDate"`                      // User supplied
	Subtotal          decimal.Decimal   `gorm:"type:decimal(18,4);not null" json:"subtotal"`        // Σ item totals
	TaxRate           decimal.Decimal   `gorm:"type:decimal(7,4);not null" json:"taxRate"`          // Percent, 0-100
	TaxAmount         decimal.Decimal   `gorm:"type:decimal(18,4);not null" json:"taxAmount"`       // subtotal × rate / 100
	Total             decimal.Decimal   `gorm:"type:decimal(18,4);not null" json:"total"`           // subtotal + tax
	Notes             string            `gorm:"type:text" json:"notes,omitempty"`                   // Free text
	IsRecurring       bool              `gorm:"not null;default:false" json:"isRecurring"`          // Informational only
	RecurringInterval string            `gorm:"size:50" json:"recurringInterval,omitempty"`         // Informational only
	CreatedAt         time.Time         `json:"createdAt"`                                          // Creation time
	UpdatedAt         time.Time         `json:"updatedAt"`                                          // Last update
	Client            *Client           `gorm:"foreignKey:ClientID" json:"client,omitempty"`        // Billed client
	User              *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`            // Issuer, admin views and PDF only
	Items             []InvoiceItem     `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Reminders         []PaymentReminder `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"reminders,omitempty"`
}

// InvoiceItem Model
type InvoiceItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                          // Primary key
	InvoiceID   uint            `gorm:"index;not null" json:"invoiceId"`               // Parent invoice
	Description string          `gorm:"size:500;not null" json:"description"`          // Line label
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`   // Positive
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unitPrice"`  // Non-negative
	Total       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total"`      // quantity × unitPrice, stored
	Position    int             `gorm:"not null;default:0" json:"position"`            // Display order
}

// ReminderStatus is the delivery state of a payment reminder
type ReminderStatus string

const (
	ReminderSent ReminderStatus = "SENT" // Delivered
)

// PaymentReminder Model, append-only
type PaymentReminder struct {
	ID            uint           `gorm:"primaryKey" json:"id"`               // Primary key
	InvoiceID     uint           `gorm:"index;not null" json:"invoiceId"`    // Reminded invoice
	Status        ReminderStatus `gorm:"size:20;not null" json:"status"`     // Delivery state
	ScheduledDate time.Time      `gorm:"not null" json:"scheduledDate"`      // When it was due to go out
	SentAt        *time.Time     `json:"sentAt,omitempty"`                   // When it went out
	CreatedAt     time.Time      `json:"createdAt"`                          // Record time
}

// InvoiceSequence holds the last invoice sequence issued to an owner
type InvoiceSequence struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false"` // Owning user
	LastValue int64     `gorm:"not null;default:0"`             // Last issued sequence
	UpdatedAt time.Time // Last allocation
}
