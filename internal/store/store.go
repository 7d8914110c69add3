// Package store is the Postgres persistence layer. It satisfies the narrow
// repository interfaces each app package declares.
package store

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/draftnight/draftnight/internal/apperr"
)

// Store wraps the shared database handle.
type Store struct {
	db *sql.DB
}

// New creates a Store over an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// uniqueViolation is the Postgres error code for a unique-constraint breach,
// the signal a concurrent writer lost a race.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// translateRowErr maps sql.ErrNoRows to the NotFound taxonomy kind.
func translateRowErr(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("%s not found", what)
	}
	return apperr.Internal(err)
}
