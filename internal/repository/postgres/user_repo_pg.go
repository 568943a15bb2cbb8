package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/moodsync/server/internal/domain"
	"github.com/moodsync/server/internal/repository"
	"github.com/moodsync/server/internal/repository/queries"
)

type UserRepo struct {
	q querier
}

func NewUserRepoFromPool(q querier) *UserRepo {
	return &UserRepo{q: q}
}

func NewUserRepoFromTx(tx pgx.Tx) *UserRepo {
	return &UserRepo{q: tx}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) (domain.UserID, error) {
	var id int64
	err := r.q.QueryRow(
		ctx,
		queries.QueryCreateUser,
		u.Name,
		u.Email,
		u.MobileNumber,
		u.EmergencyContact,
		u.PasswordHash,
		string(u.Role),
		u.EmailVerified,
		toNullStringPtr(u.EmailVerificationToken),
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}

	return domain.UserID(id), nil
}

func (r *UserRepo) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return scanUser(r.q.QueryRow(ctx, queries.QueryGetUserByID, id))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.q.QueryRow(ctx, queries.QueryGetUserByEmail, domain.NormalizeEmail(email)))
}

func (r *UserRepo) GetByResetHash(ctx context.Context, hash string, now time.Time) (*domain.User, error) {
	return scanUser(r.q.QueryRow(ctx, queries.QueryGetUserByResetHash, strings.TrimSpace(hash), now))
}

func (r *UserRepo) GetByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	return scanUser(r.q.QueryRow(ctx, queries.QueryGetUserByVerificationToken, strings.TrimSpace(token)))
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var one int
	err := r.q.QueryRow(ctx, queries.QueryExistsUserByEmail, domain.NormalizeEmail(email)).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, mapPgError(err)
	}

	return true, nil
}

func (r *UserRepo) UpdateLoginState(ctx context.Context, u *domain.User) error {
	return r.exec(ctx, queries.QueryUpdateLoginState, u.ID, u.FailedLoginAttempts, u.LockUntil, u.LastLogin, u.UpdatedAt)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, u *domain.User) error {
	return r.exec(ctx, queries.QueryUpdatePassword, u.ID, strings.TrimSpace(u.PasswordHash), u.UpdatedAt)
}

func (r *UserRepo) SetPasswordReset(ctx context.Context, id domain.UserID, hash string, expires time.Time, now time.Time) error {
	return r.exec(ctx, queries.QuerySetPasswordReset, id, hash, expires, now)
}

func (r *UserRepo) MarkEmailVerified(ctx context.Context, id domain.UserID, now time.Time) error {
	return r.exec(ctx, queries.QueryUpdateEmailVerified, id, now)
}

// exec runs a single-row update and reports ErrNotFound when nothing matched.
func (r *UserRepo) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}
