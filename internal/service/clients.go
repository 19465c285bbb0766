package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"invoicing/internal/apperr"
	"invoicing/internal/billing"
	"invoicing/internal/cache"
	"invoicing/internal/domain"
	"invoicing/internal/scope"
	"invoicing/internal/store"
)

// RecentClientInvoices is how many invoices a client view embeds.
const RecentClientInvoices = 10

type ClientInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

func (in ClientInput) validate() error {
	v := Violations{}
	v.Required("name", in.Name)
	v.Required("email", in.Email)
	return v.Err("Invalid client")
}

// Clients manages a tenant's client directory.
type Clients struct {
	clients *store.Clients
	cache   *cache.Cache
	clock   billing.Clock
}

func NewClients(clients *store.Clients, c *cache.Cache, clock billing.Clock) *Clients {
	return &Clients{clients: clients, cache: c, clock: clockOrSystem(clock)}
}

// List returns the clients visible to sc, newest first.
func (s *Clients) List(ctx context.Context, sc scope.Scope) ([]domain.Client, error) {
	return s.clients.List(ctx, sc, "clients.created_at desc")
}

// Get returns a client with its latest invoices.
func (s *Clients) Get(ctx context.Context, sc scope.Scope, id uint) (*domain.Client, error) {
	c, err := s.clients.GetWithRecentInvoices(ctx, sc, id, RecentClientInvoices)
	if err != nil {
		return nil, err
	}
	presentAll(c.Invoices, s.clock())
	return c, nil
}

// Create adds a client owned by the actor.
func (s *Clients) Create(ctx context.Context, sc scope.Scope, in ClientInput) (*domain.Client, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := &domain.Client{
		UserID:  sc.ActorID(),
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Address: in.Address,
	}
	if err := s.clients.Create(ctx, c); err != nil {
		return nil, err
	}
	s.cache.InvalidateTenant(ctx, c.UserID)
	logrus.WithFields(logrus.Fields{"user_id": c.UserID, "client_id": c.ID}).Info("Client created")
	return c, nil
}

// Update replaces the contact details of a client.
func (s *Clients) Update(ctx context.Context, sc scope.Scope, id uint, in ClientInput) (*domain.Client, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c, err := s.clients.Get(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	c.Name, c.Email, c.Phone, c.Address = in.Name, in.Email, in.Phone, in.Address
	if err := s.clients.Update(ctx, c); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": c.UserID, "client_id": c.ID}).Info("Client updated")
	return s.clients.Get(ctx, sc, id)
}

// Delete removes a client and its invoices. Clients with a paid invoice
// are kept so settled records survive.
func (s *Clients) Delete(ctx context.Context, sc scope.Scope, id uint) error {
	c, err := s.clients.Get(ctx, sc, id)
	if err != nil {
		return err
	}
	paid, err := s.clients.HasPaidInvoices(ctx, c.ID)
	if err != nil {
		return err
	}
	if paid {
		return apperr.Policy("Cannot delete a client with paid invoices")
	}
	if err := s.clients.Delete(ctx, c.ID); err != nil {
		return err
	}
	s.cache.InvalidateTenant(ctx, c.UserID)
	logrus.WithFields(logrus.Fields{"user_id": c.UserID, "client_id": c.ID}).Info("Client deleted")
	return nil
}
