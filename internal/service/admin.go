package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"invoicing/internal/apperr"
	"invoicing/internal/billing"
	"invoicing/internal/cache"
	"invoicing/internal/domain"
	"invoicing/internal/scope"
	"invoicing/internal/store"
)

// RecentUsers is how many new accounts the admin stats list.
const RecentUsers = 5

// AdminStats summarises every tenant.
type AdminStats struct {
	TotalUsers       int64                                    `json:"totalUsers"`
	TotalInvoices    int64                                    `json:"totalInvoices"`
	TotalClients     int64                                    `json:"totalClients"`
	TotalRevenue     decimal.Decimal                          `json:"totalRevenue"`
	MonthlyRevenue   decimal.Decimal                          `json:"monthlyRevenue"` // PAID invoices created this month
	InvoicesByStatus map[domain.InvoiceStatus]int64           `json:"invoicesByStatus"`
	RevenueByStatus  map[domain.InvoiceStatus]decimal.Decimal `json:"revenueByStatus"`
	RecentUsers      []domain.User                            `json:"recentUsers"`
}

// UserUpdate carries the fields an admin may change on an account. Nil
// fields are left unchanged.
type UserUpdate struct {
	Name        *string
	Email       *string
	Role        *domain.Role
	CompanyName *string
	Address     *string
	Phone       *string
}

// Admin serves the cross-tenant endpoints. Every method expects the
// global scope built by the admin middleware.
type Admin struct {
	users    *store.Users
	invoices *store.Invoices
	clients  *store.Clients
	cache    *cache.Cache
	clock    billing.Clock
}

func NewAdmin(users *store.Users, invoices *store.Invoices, clients *store.Clients, c *cache.Cache, clock billing.Clock) *Admin {
	return &Admin{users: users, invoices: invoices, clients: clients, cache: c, clock: clockOrSystem(clock)}
}

// Stats aggregates users, invoices and revenue across tenants. Status
// buckets use the effective status so derived OVERDUE is counted.
func (a *Admin) Stats(ctx context.Context, sc scope.Scope) (AdminStats, error) {
	return cache.Remember(ctx, a.cache, cache.AdminKey("stats"), func() (AdminStats, error) {
		users, err := a.users.Count(ctx)
		if err != nil {
			return AdminStats{}, err
		}
		clients, err := a.clients.Count(ctx, sc)
		if err != nil {
			return AdminStats{}, err
		}
		amounts, err := a.invoices.Amounts(ctx, sc, store.InvoiceFilter{})
		if err != nil {
			return AdminStats{}, err
		}
		recent, err := a.users.Recent(ctx, RecentUsers)
		if err != nil {
			return AdminStats{}, err
		}
		now := a.clock()
		month := monthStart(now)
		st := AdminStats{
			TotalUsers:       users,
			TotalInvoices:    int64(len(amounts)),
			TotalClients:     clients,
			TotalRevenue:     decimal.Zero,
			MonthlyRevenue:   decimal.Zero,
			InvoicesByStatus: map[domain.InvoiceStatus]int64{},
			RevenueByStatus:  map[domain.InvoiceStatus]decimal.Decimal{},
			RecentUsers:      recent,
		}
		for _, am := range amounts {
			status := billing.EffectiveStatus(am.Status, am.DueDate, now)
			st.InvoicesByStatus[status]++
			st.RevenueByStatus[status] = st.RevenueByStatus[status].Add(am.Total)
			if status == domain.StatusPaid {
				st.TotalRevenue = st.TotalRevenue.Add(am.Total)
				if !am.CreatedAt.Before(month) {
					st.MonthlyRevenue = st.MonthlyRevenue.Add(am.Total)
				}
			}
		}
		return st, nil
	})
}

// Users lists every account with invoice and client counts.
func (a *Admin) Users(ctx context.Context) ([]store.UserSummary, error) {
	return a.users.Summaries(ctx)
}

func (a *Admin) User(ctx context.Context, id uint) (*store.UserSummary, error) {
	return a.users.Summary(ctx, id)
}

// UpdateUser edits an account. Admins cannot change their own role.
func (a *Admin) UpdateUser(ctx context.Context, sc scope.Scope, id uint, upd UserUpdate) (*domain.User, error) {
	if upd.Role != nil && id == sc.ActorID() {
		return nil, apperr.Policy("Cannot change your own role")
	}
	user, err := a.users.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var columns []string
	set := func(dst *string, src *string, column string) {
		if src != nil {
			*dst = *src
			columns = append(columns, column)
		}
	}
	set(&user.Name, upd.Name, "name")
	set(&user.Email, upd.Email, "email")
	set(&user.CompanyName, upd.CompanyName, "company_name")
	set(&user.Address, upd.Address, "address")
	set(&user.Phone, upd.Phone, "phone")
	if upd.Role != nil {
		if *upd.Role != domain.RoleUser && *upd.Role != domain.RoleAdmin {
			return nil, apperr.Field("role", "must be USER or ADMIN")
		}
		user.Role = *upd.Role
		columns = append(columns, "role")
	}
	v := Violations{}
	v.Required("name", user.Name)
	v.Required("email", user.Email)
	if err := v.Err("Invalid user"); err != nil {
		return nil, err
	}
	if upd.Email != nil {
		taken, err := a.users.EmailTaken(ctx, user.Email, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Field("email", "Email already registered")
		}
	}
	if err := a.users.Update(ctx, user, columns...); err != nil {
		return nil, err
	}
	a.cache.InvalidateTenant(ctx, user.ID)
	logrus.WithFields(logrus.Fields{
		"admin_id": sc.ActorID(),
		"user_id":  user.ID,
		"columns":  columns,
	}).Info("User updated by admin")
	return a.users.ByID(ctx, id)
}

// DeleteUser removes an account and everything it owns. Admins cannot
// delete themselves.
func (a *Admin) DeleteUser(ctx context.Context, sc scope.Scope, id uint) error {
	if id == sc.ActorID() {
		return apperr.Policy("Cannot delete your own account")
	}
	if err := a.users.Delete(ctx, id); err != nil {
		return err
	}
	a.cache.InvalidateTenant(ctx, id)
	logrus.WithFields(logrus.Fields{"admin_id": sc.ActorID(), "user_id": id}).Warn("User deleted by admin")
	return nil
}

// Clients lists every client by name with its owner.
func (a *Admin) Clients(ctx context.Context, sc scope.Scope) ([]domain.Client, error) {
	return a.clients.List(ctx, sc, "clients.name asc", "User")
}
