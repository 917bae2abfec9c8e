package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolationCode is the Postgres SQLSTATE for a unique_violation.
const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err wraps a Postgres unique constraint
// violation, the storage-layer signal the algorithm relies on to recover
// from concurrent duplicate inserts (idempotent contribute) and to treat as
// the ultimate I1 guarantee (reward insert under lock). The sqlite fallback
// covers the in-memory driver used by repository and service tests (§10.7).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
