package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/moodsync/server/internal/domain"
	"github.com/moodsync/server/internal/repository"
	"github.com/moodsync/server/internal/security"
)

type memUsers struct {
	mu     sync.Mutex
	nextID domain.UserID
	byID   map[domain.UserID]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[domain.UserID]*domain.User{}}
}

func (m *memUsers) clone(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (m *memUsers) find(pred func(*domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if pred(u) {
			return m.clone(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, u *domain.User) (domain.UserID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.Email == u.Email {
			return 0, repository.ErrAlreadyExists
		}
	}
	m.nextID++
	c := m.clone(u)
	c.ID = m.nextID
	m.byID[c.ID] = c
	return c.ID, nil
}

func (m *memUsers) GetByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.ID == id })
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	return m.find(func(u *domain.User) bool { return u.Email == email })
}

func (m *memUsers) GetByResetHash(_ context.Context, hash string, now time.Time) (*domain.User, error) {
	return m.find(func(u *domain.User) bool {
		return u.PasswordResetHash != nil && *u.PasswordResetHash == hash &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now)
	})
}

func (m *memUsers) GetByVerificationToken(_ context.Context, token string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool {
		return u.EmailVerificationToken != nil && *u.EmailVerificationToken == token
	})
}

func (m *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memUsers) update(id domain.UserID, fn func(*domain.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	return nil
}

func (m *memUsers) UpdateLoginState(_ context.Context, in *domain.User) error {
	return m.update(in.ID, func(u *domain.User) {
		u.FailedLoginAttempts = in.FailedLoginAttempts
		u.LockUntil = in.LockUntil
		u.LastLogin = in.LastLogin
	})
}

func (m *memUsers) UpdatePassword(_ context.Context, in *domain.User) error {
	return m.update(in.ID, func(u *domain.User) {
		u.PasswordHash = in.PasswordHash
		u.PasswordResetHash, u.PasswordResetExpires = nil, nil
		u.FailedLoginAttempts, u.LockUntil = 0, nil
	})
}

func (m *memUsers) SetPasswordReset(_ context.Context, id domain.UserID, hash string, expires, _ time.Time) error {
	return m.update(id, func(u *domain.User) {
		u.PasswordResetHash, u.PasswordResetExpires = &hash, &expires
	})
}

func (m *memUsers) MarkEmailVerified(_ context.Context, id domain.UserID, now time.Time) error {
	return m.update(id, func(u *domain.User) { u.VerifyEmail(now) })
}

type memSessions struct {
	mu     sync.Mutex
	nextID domain.SessionID
	byID   map[domain.SessionID]*domain.Session
}

func newMemSessions() *memSessions {
	return &memSessions{byID: map[domain.SessionID]*domain.Session{}}
}

func (m *memSessions) Create(_ context.Context, s *domain.Session) (domain.SessionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c := *s
	c.ID = m.nextID
	m.byID[c.ID] = &c
	return c.ID, nil
}

func (m *memSessions) GetByTokenHash(_ context.Context, hash string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.byID {
		if s.TokenHash == hash {
			c := *s
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memSessions) Rotate(_ context.Context, old domain.SessionID, next *domain.Session) (domain.SessionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.byID[old]
	if !ok || prev.UserID != next.UserID {
		return 0, repository.ErrNotFound
	}
	delete(m.byID, old)
	m.nextID++
	c := *next
	c.ID = m.nextID
	m.byID[c.ID] = &c
	return c.ID, nil
}

func (m *memSessions) Delete(_ context.Context, id domain.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memSessions) DeleteByUser(_ context.Context, userID domain.UserID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.byID {
		if s.UserID == userID {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.byID {
		if s.IsExpired(now) {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memProfessionals struct {
	mu   sync.Mutex
	list []domain.Professional
	err  error
}

func (m *memProfessionals) Create(_ context.Context, p *domain.Professional) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.list = append([]domain.Professional{*p}, m.list...)
	return nil
}

func (m *memProfessionals) List(context.Context) ([]domain.Professional, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Professional(nil), m.list...), nil
}

type memFiles struct {
	mu    sync.Mutex
	files map[string][]byte
	seq   int
	fail  string // dir that refuses writes
}

func newMemFiles() *memFiles { return &memFiles{files: map[string][]byte{}} }

func (m *memFiles) Save(_ context.Context, dir, name string, r io.Reader) (string, error) {
	if dir == m.fail {
		return "", errors.New("disk full")
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	rel := dir + "/" + string(rune('a'+m.seq)) + "-" + name
	m.files[rel] = buf.Bytes()
	return rel, nil
}

func (m *memFiles) Remove(_ context.Context, rel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, rel)
}

func (m *memFiles) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time       { return c.t }
func (c *clock) add(d time.Duration) { c.t = c.t.Add(d) }

var testKey struct {
	once sync.Once
	key  *rsa.PrivateKey
}

func newTestAuth(t *testing.T) (*AuthService, *memUsers, *memSessions, *clock) {
	t.Helper()
	testKey.once.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey.key = k
	})

	users, sessions := newMemUsers(), newMemSessions()
	clk := &clock{t: time.Now()}
	signer := security.NewJWTSigner(security.KeyPair{Private: testKey.key, Public: &testKey.key.PublicKey}, "moodsync", "moodsync-clients", 15*time.Minute, 30*time.Second)
	svc := NewAuthService(users, sessions, signer, 24*time.Hour,
		security.BcryptConfig{Cost: 4, MinLength: 8},
		LockoutPolicy{Threshold: 5, Duration: 30 * time.Minute},
		clk.now,
	)
	return svc, users, sessions, clk
}
