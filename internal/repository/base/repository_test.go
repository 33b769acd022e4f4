package base

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	exclusion := &pgconn.PgError{Code: "23P01", ConstraintName: "livestream_slots_no_overlap"}
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "livestream_slots_one_live"}
	other := &pgconn.PgError{Code: "23503"}

	err := MapError(fmt.Errorf("insert: %w", exclusion))
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, exclusion)

	err = MapError(unique)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NotErrorIs(t, err, ErrConflict)

	err = MapError(other)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrDuplicate)

	plain := errors.New("connection reset")
	assert.Equal(t, plain, MapError(plain))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(pgx.ErrNoRows))
	assert.True(t, IsNotFound(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.False(t, IsNotFound(errors.New("boom")))
}
