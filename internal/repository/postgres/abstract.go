package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/moodsync/server/internal/domain"
	"github.com/moodsync/server/internal/repository"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx so repos work inside transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		id   int64
		role string
	)
	err := row.Scan(
		&id,
		&u.Name,
		&u.Email,
		&u.MobileNumber,
		&u.EmergencyContact,
		&u.PasswordHash,
		&role,
		&u.EmailVerified,
		&u.EmailVerificationToken,
		&u.PasswordResetHash,
		&u.PasswordResetExpires,
		&u.FailedLoginAttempts,
		&u.LockUntil,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapPgError(err)
	}
	u.ID = domain.UserID(id)
	u.Role = domain.Role(role)

	return &u, nil
}

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return repository.ErrAlreadyExists
	case codeForeignKeyViolation:
		// referenced user is gone
		return fmt.Errorf("%w: %s", repository.ErrNotFound, pgErr.ConstraintName)
	}

	return err
}

func toNullStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}

	return &s
}
