package domain

import (
	"net/netip"
	"strings"
	"time"

	"github.com/moodsync/server/internal/errs"
)

type SessionID int64

// Session backs one refresh token. The token itself is never stored, only its hash.
type Session struct {
	ID        SessionID
	UserID    UserID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	UserAgent *string
	IP        *netip.Addr
}

// ClientMeta is what the transport knows about the caller.
type ClientMeta struct {
	UserAgent string
	IP        string
}

// NewSession opens a session for userID that lives for ttl. Unparseable IPs are dropped.
func NewSession(userID UserID, tokenHash string, ttl time.Duration, now time.Time, meta ClientMeta) (*Session, error) {
	tokenHash = strings.TrimSpace(tokenHash)
	if tokenHash == "" {
		return nil, errs.ErrEmptyTokenHash
	}
	if ttl <= 0 {
		return nil, errs.ErrPastExpiry
	}

	s := &Session{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
		UserAgent: trimPtr(&meta.UserAgent),
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(meta.IP)); err == nil {
		s.IP = &addr
	}
	return s, nil
}

func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
