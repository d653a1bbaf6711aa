// Package repository persists articles and notes in PostgreSQL.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jonesrussell/north-cloud/headlines/internal/domain"
)

// pqForeignKeyViolation is the SQLSTATE for a missing referenced row.
const pqForeignKeyViolation = "23503"

// storeError maps driver errors onto the domain taxonomy: missing rows and
// dangling references become ErrNotFound, everything else ErrStoreUnavailable.
func storeError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
		return fmt.Errorf("%s: %w: %s", op, domain.ErrNotFound, pqErr.Message)
	}

	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

// validID reports whether id can name a stored row. Ids are UUIDs, so
// anything else cannot exist and is answered without a round trip.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
