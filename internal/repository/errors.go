package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrConflict means a versioned write matched no row.
	ErrConflict = errors.New("ticket was modified concurrently")
	// ErrInvalidReference means a foreign key did not resolve on write.
	ErrInvalidReference = errors.New("referenced row does not exist")
	// ErrIntegrity means a stored foreign key did not resolve on read.
	ErrIntegrity = errors.New("lookup reference did not resolve")
)

const foreignKeyViolation = "23503"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return fmt.Errorf("%w: %s", ErrInvalidReference, pgErr.ConstraintName)
	}
	return err
}

func nullableInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
