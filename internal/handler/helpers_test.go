package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/passgate/internal/domain"
	"github.com/msomdec/passgate/internal/handler"
	"github.com/msomdec/passgate/internal/repository/sqlite"
	"github.com/msomdec/passgate/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

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
}

func (m *recordingMailer) Send(_ context.Context, msg domain.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// lastOTP returns the code from the most recent email sent to addr.
func (m *recordingMailer) lastOTP(t *testing.T, addr string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To == addr && m.sent[i].Data["otp"] != "" {
			return m.sent[i].Data["otp"]
		}
	}
	t.Fatalf("no otp email sent to %s", addr)
	return ""
}

type fakeUploader struct {
	mu   sync.Mutex
	keys []string
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, data []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.keys = append(u.keys, key)
	return "https://cdn.example.com/" + key, nil
}

type testEnv struct {
	srv        *httptest.Server
	accounts   *service.AccountService
	tokens     *service.TokenService
	dispatcher *service.Dispatcher
	mailer     *recordingMailer
	uploader   *fakeUploader
	clock      *clock
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

	clk := &clock{now: time.Now().UTC()}
	mailer := &recordingMailer{}
	uploader := &fakeUploader{}
	dispatcher := service.NewDispatcher(mailer, time.Second)

	// Use cost 4 for fast tests.
	hasher := service.NewHasher(4)
	otps := service.NewOTPIssuer(db.Accounts(), hasher, 10*time.Minute, clk.Now)
	tokens, err := service.NewTokenService(testJWTSecret, time.Hour, clk.Now)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	accounts := service.NewAccountService(db.Accounts(), hasher, otps, tokens, dispatcher)
	profiles := service.NewProfileService(db.Accounts(), uploader, 1<<20)
	wallets := service.NewWalletService(db.Accounts(), db.Wallets(), "234")

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, accounts, profiles, wallets, tokens)
	srv := httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(srv.Close)

	return &testEnv{
		srv:        srv,
		accounts:   accounts,
		tokens:     tokens,
		dispatcher: dispatcher,
		mailer:     mailer,
		uploader:   uploader,
		clock:      clk,
	}
}

// do sends a JSON request and decodes the JSON response body.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	if _, ok := out["message"]; !ok {
		t.Fatalf("%s %s: response has no message field: %v", method, path, out)
	}
	return resp.StatusCode, out
}

// verifiedUser signs up and verifies an account, returning a session token.
func (e *testEnv) verifiedUser(t *testing.T, name, email, password string) string {
	t.Helper()
	if status, body := e.do(t, http.MethodPost, "/api/users/signup", "", map[string]string{
		"name": name, "email": email, "password": password,
	}); status != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d %v", status, body)
	}
	e.dispatcher.Wait()

	if status, body := e.do(t, http.MethodPost, "/api/users/verify-otp", "", map[string]string{
		"email": email, "otp": e.mailer.lastOTP(t, email),
	}); status != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d %v", status, body)
	}

	status, body := e.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"email": email, "password": password,
	})
	if status != http.StatusOK {
		t.Fatalf("login: expected 200, got %d %v", status, body)
	}
	e.dispatcher.Wait()
	return body["token"].(string)
}
