package domain

import "time"

// Client Model
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                                     // Primary key
	UserID    uint      `gorm:"index;not null" json:"userId"`                             // Owning user
	Name      string    `gorm:"size:255;not null" json:"name"`                            // Contact name
	Email     string    `gorm:"size:255;not null" json:"email"`                           // Contact email
	Phone     string    `gorm:"size:50" json:"phone,omitempty"`                           // Optional phone
	Address   string    `gorm:"type:text" json:"address,omitempty"`                       // Optional address
	CreatedAt time.Time `json:"createdAt"`                                                // Creation time
	UpdatedAt time.Time `json:"updatedAt"`                                                // Last update
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`                    // Owner, admin views only
	Invoices  []Invoice `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"invoices,omitempty"` // Billed invoices
}
