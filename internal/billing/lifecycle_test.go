package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"invoicing/internal/apperr"
	"invoicing/internal/domain"
)

func TestPermit(t *testing.T) {
	all := []domain.InvoiceStatus{domain.StatusDraft, domain.StatusSent, domain.StatusOverdue, domain.StatusPaid, domain.StatusCancelled}
	want := map[Action][]domain.InvoiceStatus{
		ActionEdit:   {domain.StatusDraft},
		ActionSend:   {domain.StatusDraft, domain.StatusSent, domain.StatusOverdue},
		ActionRemind: {domain.StatusDraft, domain.StatusSent, domain.StatusOverdue},
		ActionDelete: {domain.StatusDraft, domain.StatusSent, domain.StatusOverdue, domain.StatusCancelled},
	}
	for action, ok := range want {
		for _, status := range all {
			err := Permit(action, status)
			if contains(ok, status) {
				assert.NoError(t, err, "%s in %s", action, status)
			} else {
				assert.True(t, apperr.Is(err, apperr.KindPolicy), "%s in %s: %v", action, status, err)
			}
		}
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to domain.InvoiceStatus
		ok       bool
	}{
		{domain.StatusSent, domain.StatusPaid, true},
		{domain.StatusOverdue, domain.StatusPaid, true},
		{domain.StatusDraft, domain.StatusCancelled, true},
		{domain.StatusSent, domain.StatusCancelled, true},
		{domain.StatusOverdue, domain.StatusCancelled, true},
		{domain.StatusPaid, domain.StatusPaid, true},
		{domain.StatusDraft, domain.StatusPaid, false},
		{domain.StatusDraft, domain.StatusSent, false},
		{domain.StatusSent, domain.StatusOverdue, false},
		{domain.StatusPaid, domain.StatusCancelled, false},
		{domain.StatusCancelled, domain.StatusDraft, false},
		{domain.StatusPaid, domain.StatusSent, false},
	}
	for _, tt := range tests {
		err := Transition(tt.from, tt.to)
		if tt.ok {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
		} else {
			assert.True(t, apperr.Is(err, apperr.KindPolicy), "%s -> %s: %v", tt.from, tt.to, err)
		}
	}

	err := Transition(domain.StatusDraft, domain.InvoiceStatus("ARCHIVED"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestAfterSend(t *testing.T) {
	assert.Equal(t, domain.StatusSent, AfterSend(domain.StatusDraft))
	assert.Equal(t, domain.StatusSent, AfterSend(domain.StatusSent))
	assert.Equal(t, domain.StatusOverdue, AfterSend(domain.StatusOverdue))
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	assert.Equal(t, domain.StatusOverdue, EffectiveStatus(domain.StatusSent, past, now))
	assert.Equal(t, domain.StatusSent, EffectiveStatus(domain.StatusSent, future, now))
	assert.Equal(t, domain.StatusDraft, EffectiveStatus(domain.StatusDraft, past, now))
	assert.Equal(t, domain.StatusPaid, EffectiveStatus(domain.StatusPaid, past, now))
	assert.Equal(t, domain.StatusOverdue, EffectiveStatus(domain.StatusOverdue, future, now))
}

func contains(list []domain.InvoiceStatus, s domain.InvoiceStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
