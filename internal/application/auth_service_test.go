package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/clinic-ops/internal/persistence"
)

type credentialStoreStub struct {
	creds   UserCredentials
	user    User
	err     error
	created User
	hash    string
}

func (s *credentialStoreStub) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	if s.err != nil {
		return UserCredentials{}, s.err
	}
	if s.creds.User.Email != email {
		return UserCredentials{}, persistence.ErrNotFound
	}
	return s.creds, nil
}

func (s *credentialStoreStub) GetUser(ctx context.Context, id string) (User, error) {
	if s.err != nil {
		return User{}, s.err
	}
	if s.user.ID != id {
		return User{}, persistence.ErrNotFound
	}
	return s.user, nil
}

func (s *credentialStoreStub) CreateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	if s.err != nil {
		return User{}, s.err
	}
	s.created = user
	s.hash = passwordHash
	return user, nil
}

type sessionRepoStub struct {
	sessions  map[string]Session
	createErr error
	deleted   int
}

func newSessionRepoStub() *sessionRepoStub {
	return &sessionRepoStub{sessions: make(map[string]Session)}
}

func (s *sessionRepoStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	s.sessions[session.Token] = session
	return session, nil
}

func (s *sessionRepoStub) GetSession(ctx context.Context, token string) (Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *sessionRepoStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return session, nil
}

func (s *sessionRepoStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.deleted++
	return nil
}

func verifyPlaintext(hashedPassword, password string) error {
	if hashedPassword != password {
		return ErrInvalidCredentials
	}
	return nil
}

func authFixture(t *testing.T) (*AuthService, *credentialStoreStub, *sessionRepoStub) {
	t.Helper()
	creds := &credentialStoreStub{
		creds: UserCredentials{
			User:         User{ID: "user-1", Email: "anna@example.com", IsAdmin: true},
			PasswordHash: "s3cretpass",
		},
		user: User{ID: "user-1", Email: "anna@example.com", IsAdmin: true},
	}
	sessions := newSessionRepoStub()
	counter := 0
	tokens := func() string {
		counter++
		return []string{"session-1", "token-1", "token-2"}[(counter-1)%3]
	}
	now := func() time.Time { return time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC) }
	svc := NewAuthService(creds, sessions, verifyPlaintext, tokens, now, time.Hour)
	return svc, creds, sessions
}

func TestAuthenticateIssuesSession(t *testing.T) {
	t.Parallel()

	svc, _, sessions := authFixture(t)

	result, err := svc.Authenticate(context.Background(), AuthenticateParams{
		Email:    "Anna@Example.com",
		Password: "s3cretpass",
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if result.User.ID != "user-1" {
		t.Fatalf("unexpected user: %+v", result.User)
	}
	if result.Session.Token == "" {
		t.Fatal("expected issued token")
	}
	if !result.Session.ExpiresAt.After(result.Session.CreatedAt) {
		t.Fatal("session must expire after creation")
	}
	if sessions.deleted == 0 {
		t.Fatal("expired sessions must be pruned on login")
	}
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	svc, _, _ := authFixture(t)

	cases := []AuthenticateParams{
		{Email: "anna@example.com", Password: "wrong"},
		{Email: "nobody@example.com", Password: "s3cretpass"},
		{Email: "", Password: "s3cretpass"},
		{Email: "anna@example.com", Password: ""},
	}
	for _, params := range cases {
		if _, err := svc.Authenticate(context.Background(), params); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate(%+v): got %v, want ErrInvalidCredentials", params, err)
		}
	}
}

func TestValidateSessionLifecycle(t *testing.T) {
	t.Parallel()

	svc, _, sessions := authFixture(t)
	result, err := svc.Authenticate(context.Background(), AuthenticateParams{
		Email:    "anna@example.com",
		Password: "s3cretpass",
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	token := result.Session.Token

	principal, err := svc.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if principal.UserID != "user-1" || !principal.IsAdmin {
		t.Fatalf("unexpected principal: %+v", principal)
	}

	if err := svc.RevokeSession(context.Background(), token); err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}
	if _, err := svc.ValidateSession(context.Background(), token); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("revoked session: got %v, want ErrSessionRevoked", err)
	}

	// Unknown token.
	if _, err := svc.ValidateSession(context.Background(), "missing"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unknown token: got %v, want ErrUnauthorized", err)
	}

	// Expired token.
	expired := Session{UserID: "user-1", Token: "old", ExpiresAt: time.Date(2026, time.March, 14, 8, 0, 0, 0, time.UTC)}
	sessions.sessions["old"] = expired
	if _, err := svc.ValidateSession(context.Background(), "old"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expired token: got %v, want ErrSessionExpired", err)
	}
}

func TestRevokeSessionUnknownToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := authFixture(t)
	if err := svc.RevokeSession(context.Background(), "missing"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if err := svc.RevokeSession(context.Background(), "   "); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("blank token: got %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterUserRequiresAdmin(t *testing.T) {
	t.Parallel()

	svc, _, _ := authFixture(t)
	_, err := svc.RegisterUser(context.Background(), RegisterUserParams{
		Principal:   Principal{UserID: "user-2"},
		Email:       "new@example.com",
		DisplayName: "New Staff",
		Password:    "longenough",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
}

func TestRegisterUserValidatesInput(t *testing.T) {
	t.Parallel()

	svc, _, _ := authFixture(t)
	_, err := svc.RegisterUser(context.Background(), RegisterUserParams{
		Principal: Principal{UserID: "user-1", IsAdmin: true},
		Email:     "not-an-email",
		Password:  "short",
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"email", "displayName", "password"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Errorf("missing field error for %q", field)
		}
	}
}

func TestRegisterUserStoresHash(t *testing.T) {
	t.Parallel()

	svc, creds, _ := authFixture(t)
	user, err := svc.RegisterUser(context.Background(), RegisterUserParams{
		Principal:   Principal{UserID: "user-1", IsAdmin: true},
		Email:       "New@Example.com",
		DisplayName: " New Staff ",
		Password:    "longenough",
	})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if user.Email != "new@example.com" {
		t.Fatalf("email not normalised: %q", user.Email)
	}
	if creds.created.DisplayName != "New Staff" {
		t.Fatalf("display name not trimmed: %q", creds.created.DisplayName)
	}
	if creds.hash == "" || creds.hash == "longenough" {
		t.Fatal("password must be stored as a hash")
	}
	if err := VerifyPassword(creds.hash, "longenough"); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}
