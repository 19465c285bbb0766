package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"invoicing/internal/apperr"
	"invoicing/internal/billing"
	"invoicing/internal/cache"
	"invoicing/internal/domain"
	"invoicing/internal/mailer"
	"invoicing/internal/metrics"
	"invoicing/internal/pdf"
	"invoicing/internal/scope"
	"invoicing/internal/store"
)

type ItemInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

type InvoiceInput struct {
	ClientID          uint
	DueDate           time.Time
	Items             []ItemInput
	TaxRate           decimal.Decimal
	Notes             string
	IsRecurring       bool
	RecurringInterval string
}

// InvoiceUpdate carries the editable fields of a draft. Nil fields are
// left unchanged; a non-nil Items replaces the whole item list.
type InvoiceUpdate struct {
	ClientID          *uint
	DueDate           *time.Time
	Items             []ItemInput
	TaxRate           *decimal.Decimal
	Notes             *string
	IsRecurring       *bool
	RecurringInterval *string
}

// InvoiceDeps wires an Invoices service.
type InvoiceDeps struct {
	Invoices    *store.Invoices
	Clients     *store.Clients
	Renderer    *pdf.Renderer
	Mailer      mailer.Mailer
	Cache       *cache.Cache
	Metrics     *metrics.Metrics
	Clock       billing.Clock
	MailTimeout time.Duration
}

// Invoices runs the invoice lifecycle.
type Invoices struct {
	invoices    *store.Invoices
	clients     *store.Clients
	renderer    *pdf.Renderer
	mailer      mailer.Mailer
	cache       *cache.Cache
	metrics     *metrics.Metrics
	clock       billing.Clock
	mailTimeout time.Duration
}

func NewInvoices(d InvoiceDeps) *Invoices {
	if d.Renderer == nil {
		d.Renderer = pdf.New()
	}
	if d.Mailer == nil {
		d.Mailer = mailer.Log{}
	}
	return &Invoices{
		invoices:    d.Invoices,
		clients:     d.Clients,
		renderer:    d.Renderer,
		mailer:      d.Mailer,
		cache:       d.Cache,
		metrics:     d.Metrics,
		clock:       clockOrSystem(d.Clock),
		mailTimeout: d.MailTimeout,
	}
}

// List returns the invoices visible to sc with their client, reporting
// derived OVERDUE status. A SENT or OVERDUE filter matches the effective
// status, so a sent invoice past due is listed as OVERDUE only.
func (s *Invoices) List(ctx context.Context, sc scope.Scope, f store.InvoiceFilter) ([]domain.Invoice, error) {
	preloads := []string{"Client"}
	if sc.Global() {
		preloads = append(preloads, "User")
	}
	want := f.Status
	if want == domain.StatusSent || want == domain.StatusOverdue {
		f.Status, f.Statuses = "", billing.OpenStatuses
	}
	out, err := s.invoices.List(ctx, sc, f, preloads...)
	if err != nil {
		return nil, err
	}
	presentAll(out, s.clock())
	if want == "" {
		return out, nil
	}
	kept := out[:0]
	for _, inv := range out {
		if inv.Status == want {
			kept = append(kept, inv)
		}
	}
	return kept, nil
}

// Get returns one invoice with client, items and reminder history.
func (s *Invoices) Get(ctx context.Context, sc scope.Scope, id uint) (*domain.Invoice, error) {
	inv, err := s.invoices.Get(ctx, sc, id, "Client", "Items", "Reminders")
	if err != nil {
		return nil, err
	}
	present(inv, s.clock())
	return inv, nil
}

// Create numbers and stores a new draft for the actor.
func (s *Invoices) Create(ctx context.Context, sc scope.Scope, in InvoiceInput) (*domain.Invoice, error) {
	v := Violations{}
	if in.ClientID == 0 {
		v["clientId"] = "is required"
	}
	if in.DueDate.IsZero() {
		v["dueDate"] = "is required"
	}
	if err := v.Err("Invalid invoice"); err != nil {
		return nil, err
	}
	items, totals, err := buildItems(in.Items, in.TaxRate)
	if err != nil {
		return nil, err
	}
	owner := sc.ActorID()
	if _, err := s.clients.Get(ctx, scope.Tenant(owner), in.ClientID); err != nil {
		return nil, err // Unknown or another tenant's client
	}
	now := s.clock()
	inv := &domain.Invoice{
		UserID:            owner,
		ClientID:          in.ClientID,
		Status:            domain.StatusDraft, // Every invoice starts as a draft
		IssueDate:         now,
		DueDate:           in.DueDate,
		Subtotal:          totals.Subtotal,
		TaxRate:           totals.TaxRate,
		TaxAmount:         totals.TaxAmount,
		Total:             totals.Total,
		Notes:             in.Notes,
		IsRecurring:       in.IsRecurring,
		RecurringInterval: in.RecurringInterval,
		Items:             items,
	}
	err = s.invoices.Create(ctx, inv, func(seq int64) string {
		return billing.FormatNumber(now.Year(), seq) // INV-YYYY-NNNN
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, inv, "created")
	logrus.WithFields(logrus.Fields{
		"user_id":        owner,
		"invoice_id":     inv.ID,
		"invoice_number": inv.InvoiceNumber,
		"total":          inv.Total.StringFixed(2),
	}).Info("Invoice created")
	return s.Get(ctx, sc, inv.ID)
}

// Update edits a draft. Totals are recomputed whenever items or the tax
// rate change.
func (s *Invoices) Update(ctx context.Context, sc scope.Scope, id uint, upd InvoiceUpdate) (*domain.Invoice, error) {
	inv, err := s.invoices.Get(ctx, sc, id, "Items")
	if err != nil {
		return nil, err
	}
	if err := billing.Permit(billing.ActionEdit, inv.Status); err != nil {
		return nil, err
	}
	if upd.ClientID != nil && *upd.ClientID != inv.ClientID {
		if _, err := s.clients.Get(ctx, scope.Tenant(inv.UserID), *upd.ClientID); err != nil {
			return nil, err
		}
		inv.ClientID = *upd.ClientID
	}
	if upd.DueDate != nil {
		if upd.DueDate.IsZero() {
			return nil, apperr.Field("dueDate", "is required")
		}
		inv.DueDate = *upd.DueDate
	}
	if upd.Notes != nil {
		inv.Notes = *upd.Notes
	}
	if upd.IsRecurring != nil {
		inv.IsRecurring = *upd.IsRecurring
	}
	if upd.RecurringInterval != nil {
		inv.RecurringInterval = *upd.RecurringInterval
	}

	var items []domain.InvoiceItem
	if upd.Items != nil || upd.TaxRate != nil {
		rate := inv.TaxRate
		if upd.TaxRate != nil {
			rate = *upd.TaxRate
		}
		inputs := upd.Items
		if inputs == nil {
			inputs = itemInputs(inv.Items) // Tax-only edit, reprice the stored items
		}
		rebuilt, totals, err := buildItems(inputs, rate)
		if err != nil {
			return nil, err
		}
		if upd.Items != nil {
			items = rebuilt // Replaces every stored item
		}
		inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.Total = totals.Subtotal, totals.TaxRate, totals.TaxAmount, totals.Total
	}
	if err := s.invoices.Update(ctx, inv, items); err != nil {
		return nil, err
	}
	s.changed(ctx, inv, "updated")
	logrus.WithFields(logrus.Fields{
		"user_id":       inv.UserID,
		"invoice_id":    inv.ID,
		"items_changed": items != nil,
		"total":         inv.Total.StringFixed(2),
	}).Info("Invoice updated")
	return s.Get(ctx, sc, id)
}

// Delete removes an invoice that has not been paid.
func (s *Invoices) Delete(ctx context.Context, sc scope.Scope, id uint) error {
	inv, err := s.invoices.Get(ctx, sc, id)
	if err != nil {
		return err
	}
	if err := billing.Permit(billing.ActionDelete, inv.Status); err != nil {
		return err
	}
	if err := s.invoices.Delete(ctx, inv.ID); err != nil {
		return err
	}
	s.changed(ctx, inv, "deleted")
	logrus.WithFields(logrus.Fields{"user_id": inv.UserID, "invoice_id": inv.ID}).Info("Invoice deleted")
	return nil
}

// SetStatus applies a user-requested status change such as marking paid.
func (s *Invoices) SetStatus(ctx context.Context, sc scope.Scope, id uint, to domain.InvoiceStatus) (*domain.Invoice, error) {
	inv, err := s.invoices.Get(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	from := billing.EffectiveStatus(inv.Status, inv.DueDate, s.clock())
	if err := billing.Transition(from, to); err != nil {
		return nil, err
	}
	if from != to {
		if err := s.invoices.SetStatus(ctx, inv.ID, to); err != nil {
			return nil, err
		}
		s.changed(ctx, inv, strings.ToLower(string(to)))
		logrus.WithFields(logrus.Fields{
			"user_id":    inv.UserID,
			"invoice_id": inv.ID,
			"from":       from,
			"to":         to,
		}).Info("Invoice status changed")
	}
	return s.Get(ctx, sc, id)
}

// Send emails the invoice PDF to the client. A draft becomes SENT once
// the email has gone out.
func (s *Invoices) Send(ctx context.Context, sc scope.Scope, id uint) error {
	inv, err := s.invoices.Get(ctx, sc, id, "Client", "User", "Items")
	if err != nil {
		return err
	}
	if err := billing.Permit(billing.ActionSend, billing.EffectiveStatus(inv.Status, inv.DueDate, s.clock())); err != nil {
		return err
	}
	data, err := s.renderer.Bytes(pdf.FromInvoice(inv))
	if err != nil {
		return apperr.Internal(err, "render invoice %s", inv.InvoiceNumber)
	}
	msg := mailer.InvoiceMessage(inv.Client.Email, inv.User.Email, mailContent(inv), data)
	if err := s.deliver(ctx, "invoice", inv, msg); err != nil {
		return err
	}
	if next := billing.AfterSend(inv.Status); next != inv.Status {
		if err := s.invoices.SetStatus(ctx, inv.ID, next); err != nil {
			return err
		}
	}
	s.changed(ctx, inv, "sent")
	logrus.WithFields(logrus.Fields{
		"user_id":    inv.UserID,
		"invoice_id": inv.ID,
		"to":         inv.Client.Email,
	}).Info("Invoice sent")
	return nil
}

// Remind emails a payment reminder and records it in the reminder log.
func (s *Invoices) Remind(ctx context.Context, sc scope.Scope, id uint) error {
	inv, err := s.invoices.Get(ctx, sc, id, "Client", "User")
	if err != nil {
		return err
	}
	now := s.clock()
	if err := billing.Permit(billing.ActionRemind, billing.EffectiveStatus(inv.Status, inv.DueDate, now)); err != nil {
		return err
	}
	msg := mailer.ReminderMessage(inv.Client.Email, inv.User.Email, mailContent(inv))
	if err := s.deliver(ctx, "reminder", inv, msg); err != nil {
		return err
	}
	reminder := &domain.PaymentReminder{
		InvoiceID:     inv.ID,
		Status:        domain.ReminderSent,
		ScheduledDate: now,
		SentAt:        &now,
	}
	if err := s.invoices.AddReminder(ctx, reminder); err != nil {
		return err
	}
	s.metrics.InvoiceEvent("reminded")
	logrus.WithFields(logrus.Fields{
		"user_id":     inv.UserID,
		"invoice_id":  inv.ID,
		"reminder_id": reminder.ID,
	}).Info("Payment reminder sent")
	return nil
}

// PDF renders the invoice and returns the attachment file name with it.
func (s *Invoices) PDF(ctx context.Context, sc scope.Scope, id uint) (string, []byte, error) {
	inv, err := s.invoices.Get(ctx, sc, id, "Client", "User", "Items")
	if err != nil {
		return "", nil, err
	}
	data, err := s.renderer.Bytes(pdf.FromInvoice(inv))
	if err != nil {
		return "", nil, apperr.Internal(err, "render invoice %s", inv.InvoiceNumber)
	}
	return inv.InvoiceNumber + ".pdf", data, nil
}

func (s *Invoices) deliver(ctx context.Context, kind string, inv *domain.Invoice, msg mailer.Message) error {
	ctx, cancel := withTimeout(ctx, s.mailTimeout)
	defer cancel()
	err := s.mailer.Send(ctx, msg)
	s.metrics.EmailDelivery(kind, err == nil)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id":    inv.UserID,
			"invoice_id": inv.ID,
			"kind":       kind,
		}).WithError(err).Error("Email delivery failed")
		return apperr.Internal(err, "Failed to send %s email", kind)
	}
	return nil
}

// changed records a lifecycle event and drops cached aggregates.
func (s *Invoices) changed(ctx context.Context, inv *domain.Invoice, event string) {
	s.cache.InvalidateTenant(ctx, inv.UserID)
	s.metrics.InvoiceEvent(event)
}

func mailContent(inv *domain.Invoice) mailer.InvoiceContent {
	c := mailer.InvoiceContent{
		Number:  inv.InvoiceNumber,
		Total:   pdf.Money(inv.Total),
		DueDate: inv.DueDate,
	}
	if inv.User != nil {
		c.IssuerName = inv.User.DisplayName()
	}
	if inv.Client != nil {
		c.ClientName = inv.Client.Name
	}
	return c
}

// buildItems validates item input and computes every amount.
func buildItems(in []ItemInput, taxRate decimal.Decimal) ([]domain.InvoiceItem, billing.Totals, error) {
	v := Violations{}
	lines := make([]billing.Line, len(in))
	for i, it := range in {
		v.Required(fmt.Sprintf("items[%d].description", i), it.Description)
		lines[i] = billing.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	if err := v.Err("Invalid invoice items"); err != nil {
		return nil, billing.Totals{}, err
	}
	totals, err := billing.Calculate(lines, taxRate)
	if err != nil {
		return nil, billing.Totals{}, err
	}
	items := make([]domain.InvoiceItem, len(in))
	for i, it := range in {
		items[i] = domain.InvoiceItem{
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       totals.Lines[i],
			Position:    i,
		}
	}
	return items, totals, nil
}

func itemInputs(items []domain.InvoiceItem) []ItemInput {
	out := make([]ItemInput, len(items))
	for i, it := range items {
		out[i] = ItemInput{Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return out
}

// present reports the status an invoice has at now.
func present(inv *domain.Invoice, now time.Time) {
	inv.Status = billing.EffectiveStatus(inv.Status, inv.DueDate, now)
}

func presentAll(invs []domain.Invoice, now time.Time) {
	for i := range invs {
		present(&invs[i], now)
	}
}
