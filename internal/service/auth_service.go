package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/moodsync/server/internal/domain"
	"github.com/moodsync/server/internal/errs"
	"github.com/moodsync/server/internal/repository"
	"github.com/moodsync/server/internal/security"
)

const resetTokenTTL = time.Hour

type RegisterInput struct {
	Name             string
	Email            string
	MobileNumber     string
	EmergencyContact string
	Password         string
	ConfirmPassword  string
	Role             string
}

// AuthResult is returned by every operation that issues a token pair.
type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	jwt        *security.JWTSigner
	refreshTTL time.Duration
	passPolicy security.BcryptConfig
	lockout    LockoutPolicy
	now        func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	jwt *security.JWTSigner,
	refreshTTL time.Duration,
	passPolicy security.BcryptConfig,
	lockout LockoutPolicy,
	now func() time.Time,
) *AuthService {
	if now == nil {
		now = time.Now
	}

	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwt:        jwt,
		refreshTTL: refreshTTL,
		passPolicy: passPolicy,
		lockout:    lockout,
		now:        now,
	}
}

func (in RegisterInput) validate() (domain.Role, error) {
	name := strings.TrimSpace(in.Name)
	if n := len([]rune(name)); n < 2 || n > 100 {
		return "", fmt.Errorf("%w: name must be between 2 and 100 characters", errs.ErrInvalidInput)
	}
	if !domain.ValidEmail(domain.NormalizeEmail(in.Email)) {
		return "", errs.ErrInvalidEmail
	}
	mobile, emergency := strings.TrimSpace(in.MobileNumber), strings.TrimSpace(in.EmergencyContact)
	if mobile == "" || emergency == "" {
		return "", fmt.Errorf("%w: mobile number and emergency contact are required", errs.ErrInvalidInput)
	}
	if mobile == emergency {
		return "", fmt.Errorf("%w: emergency contact must be different from mobile number", errs.ErrInvalidInput)
	}
	if in.Password != in.ConfirmPassword {
		return "", errs.ErrPasswordMismatch
	}

	role, ok := domain.ParseRole(in.Role)
	if !ok {
		return "", fmt.Errorf("%w: unknown role %q", errs.ErrInvalidInput, in.Role)
	}
	if role == domain.RoleAdmin {
		return "", fmt.Errorf("%w: admin role cannot be self-assigned", errs.ErrForbidden)
	}
	return role, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta domain.ClientMeta) (*AuthResult, error) {
	role, err := in.validate()
	if err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "auth.register.existsByEmail failed", slog.Any("err", err))
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: user with this email", errs.ErrAlreadyExist)
	}

	hash, err := security.HashPassword(in.Password, &s.passPolicy)
	if err != nil {
		return nil, err
	}
	verifyToken, err := security.NewOneTimeToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	u, err := domain.NewUser(in.Name, in.Email, hash, now,
		domain.WithRole(role),
		domain.WithContacts(in.MobileNumber, in.EmergencyContact),
		domain.WithVerificationToken(verifyToken),
	)
	if err != nil {
		return nil, err
	}

	id, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: user with this email", errs.ErrAlreadyExist)
		}
		slog.ErrorContext(ctx, "auth.register.createUser failed", slog.Any("err", err))
		return nil, err
	}
	u.ID = id

	slog.InfoContext(ctx, "user registered", slog.Int64("user_id", int64(u.ID)), slog.String("role", string(u.Role)))
	return s.issueTokens(ctx, u, meta, nil)
}

// Login checks email and password, applying the lockout policy on failures.
func (s *AuthService) Login(ctx context.Context, email, password string, meta domain.ClientMeta) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", errs.ErrInvalidInput)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errs.ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if u.IsLocked(now) {
		return nil, errs.ErrAccountLocked
	}

	if err := security.ComparePassword(u.PasswordHash, password); err != nil {
		locked := u.RegisterFailedLogin(s.lockout.Threshold, s.lockout.Duration, now)
		if uerr := s.users.UpdateLoginState(ctx, u); uerr != nil {
			slog.ErrorContext(ctx, "auth.login.updateLoginState failed", slog.Any("err", uerr))
		}
		if locked {
			slog.WarnContext(ctx, "account locked after failed logins",
				slog.Int64("user_id", int64(u.ID)), slog.Int("attempts", u.FailedLoginAttempts))
			return nil, errs.ErrAccountLocked
		}
		return nil, errs.ErrInvalidCredentials
	}

	u.RegisterSuccessfulLogin(now)
	if err := s.users.UpdateLoginState(ctx, u); err != nil {
		slog.ErrorContext(ctx, "auth.login.updateLoginState failed", slog.Any("err", err))
		return nil, err
	}

	return s.issueTokens(ctx, u, meta, nil)
}

// Refresh spends refreshToken and issues a new pair. Each refresh token works once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta domain.ClientMeta) (*AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, errs.ErrInvalidToken
	}

	sess, err := s.sessions.GetByTokenHash(ctx, security.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errs.ErrInvalidToken
		}
		return nil, err
	}

	if sess.IsExpired(s.now()) {
		_ = s.sessions.Delete(ctx, sess.ID)
		return nil, errs.ErrSessionExpired
	}

	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = s.sessions.Delete(ctx, sess.ID)
			return nil, errs.ErrInvalidToken
		}
		return nil, err
	}

	return s.issueTokens(ctx, u, meta, &sess.ID)
}

// Logout deletes the refresh session. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	sess, err := s.sessions.GetByTokenHash(ctx, security.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.sessions.Delete(ctx, sess.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// ForgotPassword stores a reset token for a known email and returns it.
// An unknown email yields an empty token and no error.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	if !domain.ValidEmail(domain.NormalizeEmail(email)) {
		return "", errs.ErrInvalidEmail
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	token, err := security.NewOneTimeToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	if err := s.users.SetPasswordReset(ctx, u.ID, security.HashToken(token), now.Add(resetTokenTTL), now); err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "password reset requested", slog.Int64("user_id", int64(u.ID)))
	return token, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if strings.TrimSpace(token) == "" {
		return errs.ErrInvalidToken
	}
	if password != confirm {
		return errs.ErrPasswordMismatch
	}
	hash, err := security.HashPassword(password, &s.passPolicy)
	if err != nil {
		return err
	}

	now := s.now()
	u, err := s.users.GetByResetHash(ctx, security.HashToken(token), now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: reset token is invalid or has expired", errs.ErrInvalidToken)
		}
		return err
	}

	if err := u.SetPasswordHash(hash, now); err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u); err != nil {
		return err
	}
	if _, err := s.sessions.DeleteByUser(ctx, u.ID); err != nil {
		slog.WarnContext(ctx, "auth.resetPassword.deleteSessions failed", slog.Any("err", err))
	}
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return errs.ErrInvalidToken
	}
	u, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: invalid verification token", errs.ErrInvalidToken)
		}
		return err
	}
	return s.users.MarkEmailVerified(ctx, u.ID, s.now())
}

func (s *AuthService) AccessTTL() time.Duration { return s.jwt.TTL() }

// Identity is what a valid access token says about its bearer.
type Identity struct {
	UserID domain.UserID
	Role   domain.Role
	Email  string
}

func (s *AuthService) Authenticate(token string) (*Identity, error) {
	claims, err := s.jwt.ParseAndValidate(token)
	if err != nil {
		return nil, err
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: id, Role: claims.Role, Email: claims.Email}, nil
}

// issueTokens signs an access token and opens a refresh session. With
// rotate set, the new session atomically replaces that one.
func (s *AuthService) issueTokens(ctx context.Context, u *domain.User, meta domain.ClientMeta, rotate *domain.SessionID) (*AuthResult, error) {
	now := s.now()

	access, err := s.jwt.SignAccessToken(u, now)
	if err != nil {
		return nil, err
	}
	refresh, err := security.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	sess, err := domain.NewSession(u.ID, security.HashToken(refresh), s.refreshTTL, now, meta)
	if err != nil {
		return nil, err
	}

	if rotate != nil {
		_, err = s.sessions.Rotate(ctx, *rotate, sess)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: refresh token already used", errs.ErrInvalidToken)
		}
	} else {
		_, err = s.sessions.Create(ctx, sess)
	}
	if err != nil {
		slog.ErrorContext(ctx, "auth.issueTokens.storeSession failed", slog.Any("err", err))
		return nil, err
	}

	return &AuthResult{
		User:         u,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.jwt.TTL(),
	}, nil
}
