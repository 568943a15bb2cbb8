package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/moodsync/server/internal/domain"
	"github.com/moodsync/server/internal/pg"
	"github.com/moodsync/server/internal/repository"
)

// Set MOODSYNC_TEST_DATABASE_URL to run against a real database. Every test
// runs inside a transaction that is rolled back.
func testTx(t *testing.T) (context.Context, pgx.Tx) {
	t.Helper()
	dsn := os.Getenv("MOODSYNC_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("MOODSYNC_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	pool, err := pg.NewPool(ctx, pg.Config{DSN: dsn})
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := pg.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return ctx, tx
}

func createUser(t *testing.T, ctx context.Context, users *UserRepo, email string, now time.Time) *domain.User {
	t.Helper()
	u, err := domain.NewUser("Asha Rao", email, "$2a$04$hash", now, domain.WithVerificationToken("verify-"+email))
	if err != nil {
		t.Fatal(err)
	}
	id, err := users.Create(ctx, u)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	u.ID = id
	return u
}

func TestUserRepo(t *testing.T) {
	ctx, tx := testTx(t)
	users := NewUserRepoFromTx(tx)
	now := time.Now().UTC().Truncate(time.Microsecond)

	u := createUser(t, ctx, users, "asha@example.com", now)

	// a failed statement aborts the transaction, so probe the conflict inside a savepoint
	sp, err := tx.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewUserRepoFromTx(sp).Create(ctx, u); !errors.Is(err, repository.ErrAlreadyExists) {
		t.Fatalf("duplicate email: %v", err)
	}
	_ = sp.Rollback(ctx)
	if ok, err := users.ExistsByEmail(ctx, " ASHA@example.com "); err != nil || !ok {
		t.Fatalf("ExistsByEmail = %v, %v", ok, err)
	}
	if ok, _ := users.ExistsByEmail(ctx, "ghost@example.com"); ok {
		t.Fatal("ghost exists")
	}

	got, err := users.GetByEmail(ctx, "asha@example.com")
	if err != nil || got.ID != u.ID || got.Role != domain.RoleUser {
		t.Fatalf("GetByEmail = %+v, %v", got, err)
	}
	if _, err := users.GetByID(ctx, u.ID+1000); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("missing id: %v", err)
	}

	got.RegisterFailedLogin(1, time.Minute, now)
	if err := users.UpdateLoginState(ctx, got); err != nil {
		t.Fatal(err)
	}
	got, _ = users.GetByID(ctx, u.ID)
	if got.FailedLoginAttempts != 1 || !got.IsLocked(now) {
		t.Fatalf("login state not persisted: %+v", got)
	}

	if err := users.SetPasswordReset(ctx, u.ID, "reset-hash", now.Add(time.Hour), now); err != nil {
		t.Fatal(err)
	}
	if _, err := users.GetByResetHash(ctx, "reset-hash", now); err != nil {
		t.Fatalf("GetByResetHash: %v", err)
	}
	if _, err := users.GetByResetHash(ctx, "reset-hash", now.Add(2*time.Hour)); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expired reset hash: %v", err)
	}

	if _, err := users.GetByVerificationToken(ctx, "verify-asha@example.com"); err != nil {
		t.Fatalf("GetByVerificationToken: %v", err)
	}
	if err := users.MarkEmailVerified(ctx, u.ID, now); err != nil {
		t.Fatal(err)
	}
	got, _ = users.GetByID(ctx, u.ID)
	if !got.EmailVerified || got.EmailVerificationToken != nil {
		t.Fatalf("not verified: %+v", got)
	}
}

func TestSessionRepo(t *testing.T) {
	ctx, tx := testTx(t)
	users, sessions := NewUserRepoFromTx(tx), NewSessionRepoFromTx(tx)
	now := time.Now().UTC().Truncate(time.Microsecond)
	u := createUser(t, ctx, users, "sessions@example.com", now)

	s, err := domain.NewSession(u.ID, "hash-1", time.Hour, now, domain.ClientMeta{UserAgent: "test", IP: "10.1.2.3"})
	if err != nil {
		t.Fatal(err)
	}
	id, err := sessions.Create(ctx, s)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := sessions.GetByTokenHash(ctx, "hash-1")
	if err != nil || got.ID != id || got.UserID != u.ID {
		t.Fatalf("GetByTokenHash = %+v, %v", got, err)
	}
	if got.IP == nil || got.IP.String() != "10.1.2.3" || got.UserAgent == nil || *got.UserAgent != "test" {
		t.Fatalf("client meta lost: %+v", got)
	}

	next, _ := domain.NewSession(u.ID, "hash-1b", time.Hour, now, domain.ClientMeta{})
	rotated, err := sessions.Rotate(ctx, id, next)
	if err != nil || rotated == id {
		t.Fatalf("Rotate = %d, %v", rotated, err)
	}
	if _, err := sessions.GetByTokenHash(ctx, "hash-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("old session survived rotation: %v", err)
	}
	again, _ := domain.NewSession(u.ID, "hash-1c", time.Hour, now, domain.ClientMeta{})
	if _, err := sessions.Rotate(ctx, id, again); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second rotation of a spent session: %v", err)
	}

	stale, _ := domain.NewSession(u.ID, "hash-2", time.Minute, now, domain.ClientMeta{})
	if _, err := sessions.Create(ctx, stale); err != nil {
		t.Fatal(err)
	}
	if n, err := sessions.DeleteExpired(ctx, now.Add(10*time.Minute)); err != nil || n != 1 {
		t.Fatalf("DeleteExpired = %d, %v", n, err)
	}

	if err := sessions.Delete(ctx, rotated); err != nil {
		t.Fatal(err)
	}
	if err := sessions.Delete(ctx, rotated); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	if n, _ := sessions.DeleteByUser(ctx, u.ID); n != 0 {
		t.Fatalf("DeleteByUser removed %d", n)
	}
}

func TestProfessionalRepo(t *testing.T) {
	ctx, tx := testTx(t)
	users, pros := NewUserRepoFromTx(tx), NewProfessionalRepoFromPool(tx)
	now := time.Now().UTC().Truncate(time.Microsecond)
	admin := createUser(t, ctx, users, "admin@example.com", now)

	slot := "2025-06-01T10:00"
	p := &domain.Professional{
		Name: "Dr. Meera Rao", Email: "meera@clinic.org", Phone: "+91 80 1234 5678",
		Hospital: "City Hospital", Specialty: "Psychiatry", Education: "MD",
		LicenseNumber: "KA-12345", AvailableHours: "Mon-Fri 9-17",
		Specializations: []string{"CBT"}, Languages: []string{"English", "Kannada"},
		NextAvailableSlot: &slot, Active: true,
		ProfileImagePath: "profile_images/a.jpg", LicenseCertificatePath: "license_certificates/b.pdf",
		CreatedAt: now, CreatedBy: admin.ID,
	}
	if err := p.Validate(now); err != nil {
		t.Fatal(err)
	}
	if err := pros.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := pros.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var found *domain.Professional
	for i := range list {
		if list[i].ID == p.ID {
			found = &list[i]
		}
	}
	if found == nil {
		t.Fatal("created professional not listed")
	}
	if found.CreatedBy != admin.ID || len(found.Languages) != 2 || found.NextAvailableSlot == nil || *found.NextAvailableSlot != slot {
		t.Fatalf("round trip mismatch: %+v", found)
	}
}
