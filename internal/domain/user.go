package domain

import "time"

// Role gates administrative endpoints
type Role string

const (
	RoleUser  Role = "USER"  // Regular tenant
	RoleAdmin Role = "ADMIN" // Cross-tenant administrator
)

// User Model
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`                               // Primary key
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email"`         // Unique login email
	Password    string    `gorm:"not null" json:"-"`                                  // Hashed password
	Name        string    `gorm:"size:255;not null" json:"name"`                      // Display name
	CompanyName string    `gorm:"size:255" json:"companyName,omitempty"`              // Billing profile: company
	Address     string    `gorm:"type:text" json:"address,omitempty"`                 // Billing profile: address
	Phone       string    `gorm:"size:50" json:"phone,omitempty"`                     // Billing profile: phone
	LogoURL     string    `gorm:"size:1024" json:"logoUrl,omitempty"`                 // Billing profile: logo
	Role        Role      `gorm:"size:20;not null;default:USER;index" json:"role"`    // Role: USER or ADMIN
	CreatedAt   time.Time `json:"createdAt"`                                          // Registration time
	UpdatedAt   time.Time `json:"updatedAt"`                                          // Last profile change
	Clients     []Client  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"` // Owned clients
	Invoices    []Invoice `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"` // Owned invoices
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName is the issuer name printed on invoices
func (u *User) DisplayName() string {
	if u.CompanyName != "" {
		return u.CompanyName
	}
	return u.Name
}
