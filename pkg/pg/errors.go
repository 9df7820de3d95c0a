package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrConnectionFailed is returned when the pool cannot be established
	// within the configured retry budget.
	ErrConnectionFailed = errors.New("pg: failed to open connection")

	// ErrInvalidConfig is returned when the connection string cannot be parsed.
	ErrInvalidConfig = errors.New("pg: failed to parse connection config")

	// ErrHealthcheckFailed is returned by the healthcheck closure when the
	// database does not answer a ping.
	ErrHealthcheckFailed = errors.New("pg: healthcheck failed")

	// ErrMigrationFailed is returned when embedded migrations cannot be applied.
	ErrMigrationFailed = errors.New("pg: failed to apply migrations")
)

// IsNotFoundError detects pgx.ErrNoRows so storages report "not found"
// consistently.
func IsNotFoundError(err error) bool {
	return err != nil && errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError detects unique constraint violations (SQLSTATE 23505)
// so storages can map insert conflicts to their duplicate sentinels.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
