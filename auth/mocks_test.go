package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-storefront/auth"
	"github.com/goliatone/go-storefront/internal/persistence/persistencetest"
)

// MockMailer implements auth.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg auth.MailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockActivitySink implements auth.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event auth.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// clock is a settable time source shared by the services under test
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
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

type fixture struct {
	db       *bun.DB
	repo     auth.RepositoryManager
	hasher   auth.BcryptHasher
	tokens   *auth.TokenService
	resets   *auth.ResetTokenManager
	auther   *auth.Authenticator
	register *auth.RegisterUserHandler
	clock    *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := persistencetest.New(t)
	hasher := auth.NewBcryptHasher(4)
	clk := newClock()

	f := &fixture{
		db:     db,
		hasher: hasher,
		clock:  clk,
		repo:   auth.NewRepositoryManager(db, auth.WithUsersHasher(hasher)),
		tokens: auth.NewTokenService([]byte("test-secret"), time.Hour, "storefront").
			WithLogger(nopLogger{}),
		resets: auth.NewResetTokenManager(10 * time.Minute).WithClock(clk.Now),
	}

	f.auther = auth.NewAuthenticator(f.repo.Users(), hasher, f.tokens).WithLogger(nopLogger{})
	f.register = auth.NewRegisterUserHandler(f.repo).WithLogger(nopLogger{})

	return f
}

func (f *fixture) createUser(t *testing.T, name, email, password string, role auth.Role) *auth.User {
	t.Helper()

	var user *auth.User
	err := f.register.Execute(context.Background(), auth.RegisterUserMessage{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     string(role),
		OnResponse: func(u *auth.User) {
			user = u
		},
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}
