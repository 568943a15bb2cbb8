package repository

import (
	"context"
	"time"

	"github.com/moodsync/server/internal/domain"
)

// SessionRepository stores refresh sessions keyed by the hash of their token.
type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) (domain.SessionID, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	// Rotate replaces old with next in one statement. It returns ErrNotFound
	// when old is already gone, i.e. its refresh token was spent concurrently.
	Rotate(ctx context.Context, old domain.SessionID, next *domain.Session) (domain.SessionID, error)
	Delete(ctx context.Context, id domain.SessionID) error
	DeleteByUser(ctx context.Context, userID domain.UserID) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
