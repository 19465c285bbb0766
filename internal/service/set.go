package service

import (
	"time"

	"gorm.io/gorm"

	"invoicing/internal/billing"
	"invoicing/internal/cache"
	"invoicing/internal/mailer"
	"invoicing/internal/metrics"
	"invoicing/internal/pdf"
	"invoicing/internal/store"
)

// Options configures NewSet. Cache and Metrics may be nil.
type Options struct {
	DB          *gorm.DB
	Cache       *cache.Cache
	Mailer      mailer.Mailer
	Metrics     *metrics.Metrics
	Clock       billing.Clock
	JWTSecret   string
	JWTTTL      time.Duration
	MailTimeout time.Duration
	HashCost    int // bcrypt cost, zero for the default
}

// Set is every service sharing one database and its stores.
type Set struct {
	Users     *store.Users
	Auth      *Auth
	Clients   *Clients
	Invoices  *Invoices
	Dashboard *Dashboard
	Admin     *Admin
	Sweeper   *OverdueSweeper
}

func NewSet(o Options) *Set {
	users := store.NewUsers(o.DB)
	invoices := store.NewInvoices(o.DB)
	clients := store.NewClients(o.DB)
	auth := NewAuth(users, o.JWTSecret, o.JWTTTL)
	if o.HashCost > 0 {
		auth.WithHashCost(o.HashCost)
	}
	return &Set{
		Users:   users,
		Auth:    auth,
		Clients: NewClients(clients, o.Cache, o.Clock),
		Invoices: NewInvoices(InvoiceDeps{
			Invoices:    invoices,
			Clients:     clients,
			Renderer:    pdf.New(),
			Mailer:      o.Mailer,
			Cache:       o.Cache,
			Metrics:     o.Metrics,
			Clock:       o.Clock,
			MailTimeout: o.MailTimeout,
		}),
		Dashboard: NewDashboard(invoices, clients, o.Cache, o.Clock),
		Admin:     NewAdmin(users, invoices, clients, o.Cache, o.Clock),
		Sweeper:   NewOverdueSweeper(invoices, o.Metrics, o.Clock),
	}
}
