package billing

import (
	"time"

	"invoicing/internal/apperr"
	"invoicing/internal/domain"
)

// Action is a user-initiated lifecycle operation.
type Action string

const (
	ActionEdit   Action = "edit"
	ActionSend   Action = "send"
	ActionRemind Action = "remind"
	ActionDelete Action = "delete"
)

var allowed = map[Action]map[domain.InvoiceStatus]bool{
	ActionEdit:   {domain.StatusDraft: true},
	ActionSend:   {domain.StatusDraft: true, domain.StatusSent: true, domain.StatusOverdue: true},
	ActionRemind: {domain.StatusDraft: true, domain.StatusSent: true, domain.StatusOverdue: true},
	ActionDelete: {domain.StatusDraft: true, domain.StatusSent: true, domain.StatusOverdue: true, domain.StatusCancelled: true},
}

var refusals = map[Action]string{
	ActionEdit:   "Can only edit draft invoices",
	ActionSend:   "Cannot send a paid or cancelled invoice",
	ActionRemind: "Cannot send reminder for paid or cancelled invoice",
	ActionDelete: "Cannot delete a paid invoice",
}

// transitions lists the explicit status changes a user may request.
// SENT is reached only through send and OVERDUE only through the sweep.
var transitions = map[domain.InvoiceStatus]map[domain.InvoiceStatus]bool{
	domain.StatusDraft:   {domain.StatusCancelled: true},
	domain.StatusSent:    {domain.StatusPaid: true, domain.StatusCancelled: true},
	domain.StatusOverdue: {domain.StatusPaid: true, domain.StatusCancelled: true},
}

// Permit returns a policy error when action is not allowed in status.
func Permit(action Action, status domain.InvoiceStatus) error {
	if allowed[action][status] {
		return nil
	}
	if msg, ok := refusals[action]; ok {
		return apperr.Policy(msg)
	}
	return apperr.Policy("Operation not allowed")
}

// Transition validates a requested status change. Requesting the current
// status is accepted as a no-op.
func Transition(from, to domain.InvoiceStatus) error {
	if !to.Valid() {
		return apperr.Field("status", "unknown status")
	}
	if from == to {
		return nil
	}
	if transitions[from][to] {
		return nil
	}
	return apperr.Policy("Cannot change status from " + string(from) + " to " + string(to))
}

// AfterSend is the status an invoice holds once it has been sent.
func AfterSend(status domain.InvoiceStatus) domain.InvoiceStatus {
	if status == domain.StatusDraft {
		return domain.StatusSent
	}
	return status
}

// IsPastDue reports whether due has passed at now.
func IsPastDue(due, now time.Time) bool {
	return due.Before(now)
}

// EffectiveStatus derives OVERDUE for a sent invoice past its due date
// without persisting anything.
func EffectiveStatus(status domain.InvoiceStatus, due, now time.Time) domain.InvoiceStatus {
	if status == domain.StatusSent && IsPastDue(due, now) {
		return domain.StatusOverdue
	}
	return status
}

// OpenStatuses are the statuses that count as awaiting payment.
var OpenStatuses = []domain.InvoiceStatus{domain.StatusSent, domain.StatusOverdue}
