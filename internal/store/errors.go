// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned by mutations targeting a slug that does not
	// exist. Handlers map it to 404, distinct from validation failures.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a create would reuse a slug already
	// taken within its scope. The write is rejected, never overwritten.
	ErrConflict = errors.New("slug already exists")
)

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation (SQLSTATE 23505). Used as the race-safe backstop behind the
// pre-insert existence checks.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
