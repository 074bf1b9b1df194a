package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/intake/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

func TestMapError(t *testing.T) {
	other := errors.New("connection reset")
	fk := &pgconn.PgError{Code: "23503"}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errNotFound},
		{"wrapped no rows", fmt.Errorf("find: %w", sql.ErrNoRows), errNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "submissions_submission_id_key"}, errDuplicate},
		{"other pg error passes through", fk, fk},
		{"plain error passes through", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.MapError(tt.err, errNotFound, errDuplicate)
			if got != tt.want {
				t.Errorf("MapError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsCheckViolation(t *testing.T) {
	name, ok := repository.IsCheckViolation(&pgconn.PgError{Code: "23514", ConstraintName: "submissions_status_check"})
	if !ok || name != "submissions_status_check" {
		t.Errorf("IsCheckViolation() = %q, %v", name, ok)
	}

	if _, ok := repository.IsCheckViolation(errors.New("boom")); ok {
		t.Error("plain error reported as check violation")
	}
}
