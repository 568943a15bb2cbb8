package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/moodsync/server/internal/errs"
)

type UserID int64

type Role string

const (
	RoleUser   Role = "user"
	RoleDoctor Role = "doctor"
	RoleAdmin  Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoleUser:
		return RoleUser, true
	case RoleDoctor:
		return RoleDoctor, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

type User struct {
	ID               UserID
	Name             string
	Email            string
	MobileNumber     string
	EmergencyContact string
	PasswordHash     string
	Role             Role
	EmailVerified    bool

	EmailVerificationToken *string
	PasswordResetHash      *string
	PasswordResetExpires   *time.Time

	FailedLoginAttempts int
	LockUntil           *time.Time
	LastLogin           *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser expects an already computed password hash.
func NewUser(name, email, passwordHash string, now time.Time, opts ...UserOption) (*User, error) {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return nil, errs.ErrInvalidEmail
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, errs.ErrEmptyPasswordHash
	}

	user := &User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(user)
	}

	return user, nil
}

func (u *User) SetPasswordHash(hash string, now time.Time) error {
	if strings.TrimSpace(hash) == "" {
		return errs.ErrEmptyPasswordHash
	}
	u.PasswordHash = hash
	u.PasswordResetHash = nil
	u.PasswordResetExpires = nil
	u.FailedLoginAttempts = 0
	u.LockUntil = nil
	u.UpdatedAt = now

	return nil
}

func (u *User) VerifyEmail(now time.Time) {
	u.EmailVerified = true
	u.EmailVerificationToken = nil
	u.UpdatedAt = now
}

func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// RegisterFailedLogin bumps the failure counter and locks the account once it reaches threshold.
// It reports whether the account became locked.
func (u *User) RegisterFailedLogin(threshold int, lockFor time.Duration, now time.Time) bool {
	u.FailedLoginAttempts++
	u.UpdatedAt = now
	if threshold > 0 && u.FailedLoginAttempts >= threshold {
		until := now.Add(lockFor)
		u.LockUntil = &until
		return true
	}
	return false
}

func (u *User) RegisterSuccessfulLogin(now time.Time) {
	u.FailedLoginAttempts = 0
	u.LockUntil = nil
	u.LastLogin = &now
	u.UpdatedAt = now
}

// Options конструктора
type UserOption func(*User)

func WithRole(r Role) UserOption {
	return func(u *User) { u.Role = r }
}

func WithContacts(mobile, emergency string) UserOption {
	return func(u *User) {
		u.MobileNumber = strings.TrimSpace(mobile)
		u.EmergencyContact = strings.TrimSpace(emergency)
	}
}

func WithVerificationToken(token string) UserOption {
	return func(u *User) { u.EmailVerificationToken = trimPtr(&token) }
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func ValidEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	t := strings.TrimSpace(*p)
	if t == "" {
		return nil
	}

	return &t
}
