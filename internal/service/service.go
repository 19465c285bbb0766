// Package service implements the invoicing use cases on top of the store.
// Every tenant operation takes the scope.Scope selected by the auth
// middleware; services never build an unfiltered query themselves.
package service

import (
	"context"
	"strings"
	"time"

	"invoicing/internal/apperr"
	"invoicing/internal/billing"
)

// Violations collects field validation failures.
type Violations map[string]string

// Required records field when value is blank.
func (v Violations) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v[field] = "is required"
	}
}

// Err returns a validation error when any field failed, nil otherwise.
func (v Violations) Err(msg string) error {
	if len(v) == 0 {
		return nil
	}
	return apperr.Validation(msg, v)
}

func clockOrSystem(c billing.Clock) billing.Clock {
	if c == nil {
		return billing.SystemClock
	}
	return c
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
