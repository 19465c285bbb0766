// Package scope carries the data-access capability selected when a request
// is authenticated. Every tenant query goes through a Scope so the owner
// predicate is applied in one place.
package scope

import (
	"gorm.io/gorm"

	"invoicing/internal/domain"
)

// Scope filters queries to the records the actor may see.
type Scope interface {
	// ActorID is the authenticated user.
	ActorID() uint
	// Global reports whether the scope spans all tenants.
	Global() bool
	Invoices(db *gorm.DB) *gorm.DB
	Clients(db *gorm.DB) *gorm.DB
}

// Tenant returns the scope of a regular user: only their own records.
func Tenant(userID uint) Scope {
	return tenant{userID: userID}
}

// Admin returns the unfiltered scope. Only the admin middleware builds it,
// after the role check.
func Admin(actorID uint) Scope {
	return global{actorID: actorID}
}

type tenant struct {
	userID uint
}

func (t tenant) ActorID() uint { return t.userID }
func (t tenant) Global() bool  { return false }

func (t tenant) Invoices(db *gorm.DB) *gorm.DB {
	return db.Model(&domain.Invoice{}).Where("invoices.user_id = ?", t.userID)
}

func (t tenant) Clients(db *gorm.DB) *gorm.DB {
	return db.Model(&domain.Client{}).Where("clients.user_id = ?", t.userID)
}

type global struct {
	actorID uint
}

func (g global) ActorID() uint { return g.actorID }
func (g global) Global() bool  { return true }

func (g global) Invoices(db *gorm.DB) *gorm.DB {
	return db.Model(&domain.Invoice{})
}

func (g global) Clients(db *gorm.DB) *gorm.DB {
	return db.Model(&domain.Client{})
}
