package base

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(pgx.ErrNoRows))
	assert.True(t, IsNotFound(fmt.Errorf("get slot: %w", pgx.ErrNoRows)))
	assert.False(t, IsNotFound(errors.New("boom")))
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("create appointment: %w", &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "ux_appointments_slot_scheduled",
	})

	assert.True(t, IsUniqueViolation(err, "ux_appointments_slot_scheduled"))
	assert.True(t, IsUniqueViolation(err, ""))
	assert.False(t, IsUniqueViolation(err, "ux_slots_instructor_start"))

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "appointments_slot_id_fkey"}
	assert.False(t, IsUniqueViolation(fk, ""))
	assert.False(t, IsUniqueViolation(errors.New("boom"), ""))
}
