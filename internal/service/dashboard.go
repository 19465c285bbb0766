package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"invoicing/internal/billing"
	"invoicing/internal/cache"
	"invoicing/internal/domain"
	"invoicing/internal/scope"
	"invoicing/internal/store"
)

const (
	// DefaultChartMonths is the chart window when none is requested.
	DefaultChartMonths = 12
	// MaxChartMonths caps the chart window.
	MaxChartMonths = 60
	// RecentInvoices is the size of the dashboard's recent list.
	RecentInvoices = 5
)

// Stats summarises a tenant's invoices.
type Stats struct {
	TotalInvoices   int64           `json:"totalInvoices"`
	PaidInvoices    int64           `json:"paidInvoices"`
	OverdueInvoices int64           `json:"overdueInvoices"`
	PendingInvoices int64           `json:"pendingInvoices"` // DRAFT or SENT, not yet past due
	TotalClients    int64           `json:"totalClients"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	OverdueAmount   decimal.Decimal `json:"overdueAmount"`
}

// ChartPoint is the paid revenue of one calendar month.
type ChartPoint struct {
	Month   string          `json:"month"` // YYYY-MM
	Revenue decimal.Decimal `json:"revenue"`
}

// Dashboard computes the tenant dashboard.
type Dashboard struct {
	invoices *store.Invoices
	clients  *store.Clients
	cache    *cache.Cache
	clock    billing.Clock
}

func NewDashboard(invoices *store.Invoices, clients *store.Clients, c *cache.Cache, clock billing.Clock) *Dashboard {
	return &Dashboard{invoices: invoices, clients: clients, cache: c, clock: clockOrSystem(clock)}
}

// Stats counts invoices by effective status and sums paid and overdue
// amounts.
func (d *Dashboard) Stats(ctx context.Context, sc scope.Scope) (Stats, error) {
	return cache.Remember(ctx, d.cache, cache.TenantKey(sc.ActorID(), "dashboard:stats"), func() (Stats, error) {
		amounts, err := d.invoices.Amounts(ctx, sc, store.InvoiceFilter{})
		if err != nil {
			return Stats{}, err
		}
		clients, err := d.clients.Count(ctx, sc)
		if err != nil {
			return Stats{}, err
		}
		now := d.clock()
		st := Stats{
			TotalInvoices: int64(len(amounts)),
			TotalClients:  clients,
			TotalRevenue:  decimal.Zero,
			OverdueAmount: decimal.Zero,
		}
		for _, a := range amounts {
			switch billing.EffectiveStatus(a.Status, a.DueDate, now) {
			case domain.StatusPaid:
				st.PaidInvoices++
				st.TotalRevenue = st.TotalRevenue.Add(a.Total)
			case domain.StatusOverdue:
				st.OverdueInvoices++
				st.OverdueAmount = st.OverdueAmount.Add(a.Total)
			case domain.StatusDraft, domain.StatusSent:
				st.PendingInvoices++
			}
		}
		return st, nil
	})
}

// Chart returns paid revenue per month for the last months calendar
// months, oldest first, including the current month and empty months.
func (d *Dashboard) Chart(ctx context.Context, sc scope.Scope, months int) ([]ChartPoint, error) {
	if months <= 0 {
		months = DefaultChartMonths
	}
	if months > MaxChartMonths {
		months = MaxChartMonths
	}
	key := cache.TenantKey(sc.ActorID(), fmt.Sprintf("dashboard:chart:%d", months))
	return cache.Remember(ctx, d.cache, key, func() ([]ChartPoint, error) {
		now := d.clock()
		first := monthStart(now).AddDate(0, -(months - 1), 0)
		amounts, err := d.invoices.Amounts(ctx, sc, store.InvoiceFilter{Status: domain.StatusPaid, From: first})
		if err != nil {
			return nil, err
		}
		points := make([]ChartPoint, months)
		index := make(map[string]int, months)
		for i := range points {
			m := first.AddDate(0, i, 0).Format("2006-01")
			points[i] = ChartPoint{Month: m, Revenue: decimal.Zero}
			index[m] = i
		}
		for _, a := range amounts {
			if i, ok := index[a.CreatedAt.In(now.Location()).Format("2006-01")]; ok {
				points[i].Revenue = points[i].Revenue.Add(a.Total)
			}
		}
		return points, nil
	})
}

// Recent returns the newest invoices.
func (d *Dashboard) Recent(ctx context.Context, sc scope.Scope) ([]domain.Invoice, error) {
	out, err := d.invoices.List(ctx, sc, store.InvoiceFilter{Limit: RecentInvoices}, "Client")
	if err != nil {
		return nil, err
	}
	presentAll(out, d.clock())
	return out, nil
}

// Overdue lists open invoices past due, oldest due date first. Nothing
// is written; the sweep persists the status.
func (d *Dashboard) Overdue(ctx context.Context, sc scope.Scope) ([]domain.Invoice, error) {
	now := d.clock()
	out, err := d.invoices.PastDue(ctx, sc, now)
	if err != nil {
		return nil, err
	}
	presentAll(out, now)
	return out, nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
