// Package store is the persistence layer. Tenant-visible reads and writes
// take a scope.Scope so ownership filtering is never repeated by callers.
package store

import (
	"errors"

	"gorm.io/gorm"

	"invoicing/internal/apperr"
)

// notFound maps gorm's missing-record error to an application not-found
// error and wraps anything else as internal.
func notFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity)
	}
	return apperr.Internal(err, "load %s", entity)
}
