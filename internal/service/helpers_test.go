package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/passgate/internal/domain"
	"github.com/msomdec/passgate/internal/repository/sqlite"
	"github.com/msomdec/passgate/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []domain.Email
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg domain.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) emails() []domain.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Email(nil), m.sent...)
}

func (m *recordingMailer) last(t *testing.T) domain.Email {
	t.Helper()
	sent := m.emails()
	if len(sent) == 0 {
		t.Fatal("expected an email to be sent")
	}
	return sent[len(sent)-1]
}

type testEnv struct {
	db         *sqlite.DB
	clock      *clock
	mailer     *recordingMailer
	dispatcher *service.Dispatcher
	hasher     *service.Hasher
	otps       *service.OTPIssuer
	tokens     *service.TokenService
	accounts   *service.AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{db: db, clock: newClock(), mailer: &recordingMailer{}}
	env.dispatcher = service.NewDispatcher(env.mailer, time.Second)
	// Use cost 4 for fast tests.
	env.hasher = service.NewHasher(4)
	env.otps = service.NewOTPIssuer(db.Accounts(), env.hasher, 10*time.Minute, env.clock.Now)
	env.tokens, err = service.NewTokenService(testJWTSecret, time.Hour, env.clock.Now)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	env.accounts = service.NewAccountService(db.Accounts(), env.hasher, env.otps, env.tokens, env.dispatcher)
	return env
}

// signup registers an account and returns it with the emailed code.
func (e *testEnv) signup(t *testing.T, name, email, password string) (*domain.Account, string) {
	t.Helper()
	account, err := e.accounts.Signup(context.Background(), name, email, password)
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	e.dispatcher.Wait()
	return account, e.mailer.last(t).Data["otp"]
}

// verified registers and verifies an account.
func (e *testEnv) verified(t *testing.T, name, email, password string) *domain.Account {
	t.Helper()
	account, otp := e.signup(t, name, email, password)
	if err := e.accounts.VerifyOTP(context.Background(), email, otp); err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	return account
}

func assertKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}
