package repository

import (
	"context"
	"time"

	"github.com/moodsync/server/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (domain.UserID, error)
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByResetHash(ctx context.Context, hash string, now time.Time) (*domain.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// UpdateLoginState persists failure counter, lock and last login.
	UpdateLoginState(ctx context.Context, u *domain.User) error
	// UpdatePassword persists the hash and clears reset token, failures and lock.
	UpdatePassword(ctx context.Context, u *domain.User) error
	SetPasswordReset(ctx context.Context, id domain.UserID, hash string, expires time.Time, now time.Time) error
	MarkEmailVerified(ctx context.Context, id domain.UserID, now time.Time) error
}
