package security

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"github.com/moodsync/server/internal/domain"
	"github.com/moodsync/server/internal/errs"
)

// AccessClaims is the payload of an access token. Subject holds the user id.
type AccessClaims struct {
	jwt.StandardClaims
	Role  domain.Role `json:"role"`
	Email string      `json:"email,omitempty"`
}

func (c *AccessClaims) UserID() (domain.UserID, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.ErrInvalidSubject
	}
	return domain.UserID(id), nil
}

// JWTSigner issues and verifies RS256 access tokens.
type JWTSigner struct {
	keys      KeyPair
	issuer    string
	audience  string
	ttl       time.Duration
	clockSkew time.Duration
	now       func() time.Time
}

func NewJWTSigner(keys KeyPair, issuer, audience string, ttl, clockSkew time.Duration) *JWTSigner {
	return &JWTSigner{
		keys:      keys,
		issuer:    issuer,
		audience:  audience,
		ttl:       ttl,
		clockSkew: clockSkew,
		now:       time.Now,
	}
}

func (s *JWTSigner) TTL() time.Duration { return s.ttl }

// SignAccessToken issues a token for u valid from now until now+ttl.
func (s *JWTSigner) SignAccessToken(u *domain.User, now time.Time) (string, error) {
	claims := AccessClaims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Subject:   strconv.FormatInt(int64(u.ID), 10),
			Issuer:    s.issuer,
			Audience:  s.audience,
			IssuedAt:  now.Unix(),
			NotBefore: now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
		Role:  u.Role,
		Email: u.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.keys.Private)
}

// ParseAndValidate checks signature, issuer, audience, time window and role.
// Time claims tolerate clockSkew on both ends.
func (s *JWTSigner) ParseAndValidate(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	parser := &jwt.Parser{ValidMethods: []string{jwt.SigningMethodRS256.Alg()}, SkipClaimsValidation: true}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.keys.Public, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidToken, err)
	}

	if !claims.VerifyIssuer(s.issuer, true) {
		return nil, errs.ErrInvalidIssuer
	}
	if !claims.VerifyAudience(s.audience, true) {
		return nil, errs.ErrInvalidAudience
	}

	now := s.now()
	if now.Add(s.clockSkew).Before(time.Unix(claims.NotBefore, 0)) {
		return nil, fmt.Errorf("%w: not valid yet", errs.ErrInvalidToken)
	}
	if now.Add(-s.clockSkew).After(time.Unix(claims.ExpiresAt, 0)) {
		return nil, errs.ErrTokenExpired
	}
	if _, ok := domain.ParseRole(string(claims.Role)); !ok || claims.Role == "" {
		return nil, fmt.Errorf("%w: unknown role %q", errs.ErrInvalidToken, claims.Role)
	}

	return claims, nil
}
