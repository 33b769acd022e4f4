package base

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres SQLSTATE codes the stores translate into sentinel errors.
const (
	codeUniqueViolation    = "23505"
	codeExclusionViolation = "23P01"
)

var (
	// ErrConflict is returned when an exclusion constraint rejects overlapping rows.
	ErrConflict = errors.New("conflicting row exists")
	// ErrDuplicate is returned when a unique index rejects the write.
	ErrDuplicate = errors.New("duplicate row")
)

// Repository holds the pool and the helpers shared by the concrete stores.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

func (r *Repository) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return r.pool.QueryRow(ctx, query, args...)
}

func (r *Repository) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return r.pool.Query(ctx, query, args...)
}

// ExecAffected runs a command and returns the number of rows it touched.
func (r *Repository) ExecAffected(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, MapError(err)
	}
	return tag.RowsAffected(), nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// MapError turns constraint violations into ErrConflict / ErrDuplicate and
// leaves every other error untouched. The original error stays in the chain.
func MapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeExclusionViolation:
		return errors.Join(ErrConflict, err)
	case codeUniqueViolation:
		return errors.Join(ErrDuplicate, err)
	}
	return err
}
