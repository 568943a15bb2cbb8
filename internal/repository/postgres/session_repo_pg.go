package postgres

import (
	"context"
	"errors"
	"net/netip"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/moodsync/server/internal/domain"
	"github.com/moodsync/server/internal/repository"
	"github.com/moodsync/server/internal/repository/queries"
)

type SessionRepo struct {
	q querier
}

func NewSessionRepoFromPool(q querier) *SessionRepo {
	return &SessionRepo{q: q}
}

func NewSessionRepoFromTx(tx pgx.Tx) *SessionRepo {
	return &SessionRepo{q: tx}
}

func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) (domain.SessionID, error) {
	var id int64
	err := r.q.QueryRow(ctx, queries.QueryInsertRefreshSession, sessionArgs(s)...).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}
	return domain.SessionID(id), nil
}

func (r *SessionRepo) Rotate(ctx context.Context, old domain.SessionID, next *domain.Session) (domain.SessionID, error) {
	var id int64
	args := append([]any{old}, sessionArgs(next)...)
	if err := r.q.QueryRow(ctx, queries.QueryRotateRefreshSession, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, mapPgError(err)
	}
	return domain.SessionID(id), nil
}

func (r *SessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	var (
		s  domain.Session
		ip *string
	)
	err := r.q.QueryRow(ctx, queries.QuerySelectRefreshSession, tokenHash).Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt, &s.UserAgent, &ip,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapPgError(err)
	}
	if ip != nil {
		if addr, err := netip.ParseAddr(*ip); err == nil {
			s.IP = &addr
		}
	}
	return &s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id domain.SessionID) error {
	n, err := r.exec(ctx, queries.QueryDeleteRefreshSession, id)
	if err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return err
}

func (r *SessionRepo) DeleteByUser(ctx context.Context, userID domain.UserID) (int64, error) {
	return r.exec(ctx, queries.QueryDeleteUserRefreshSessions, userID)
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.exec(ctx, queries.QueryPurgeExpiredRefreshSession, now)
}

func (r *SessionRepo) exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, mapPgError(err)
	}
	return tag.RowsAffected(), nil
}

// sessionArgs is the column order shared by insert and rotate.
func sessionArgs(s *domain.Session) []any {
	var ip *string
	if s.IP != nil {
		v := s.IP.String()
		ip = &v
	}
	return []any{s.UserID, s.TokenHash, s.ExpiresAt, s.CreatedAt, s.UpdatedAt, s.UserAgent, ip}
}
