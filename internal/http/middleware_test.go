package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/clinic-ops/internal/application"
)

type sessionValidatorStub struct {
	principal application.Principal
	err       error
	token     string
}

func (s *sessionValidatorStub) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	s.token = token
	if s.err != nil {
		return application.Principal{}, s.err
	}
	return s.principal, nil
}

func TestRequireSessionMissingToken(t *testing.T) {
	t.Parallel()

	handler := RequireSession(&sessionValidatorStub{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireSessionRejectsInvalidSessions(t *testing.T) {
	t.Parallel()

	for _, err := range []error{
		application.ErrUnauthorized,
		application.ErrSessionExpired,
		application.ErrSessionRevoked,
		application.ErrInvalidCredentials,
		application.ErrNotFound,
	} {
		validator := &sessionValidatorStub{err: err}
		handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatalf("handler must not run for %v", err)
		}))

		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.Header.Set("Authorization", "Bearer stale-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%v: status = %d, want 401", err, rec.Code)
		}
	}
}

func TestRequireSessionUnexpectedErrorIs500(t *testing.T) {
	t.Parallel()

	validator := &sessionValidatorStub{err: context.DeadlineExceeded}
	handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRequireSessionInjectsPrincipal(t *testing.T) {
	t.Parallel()

	validator := &sessionValidatorStub{principal: application.Principal{UserID: "user-1", IsAdmin: true}}
	var seen application.Principal
	handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if validator.token != "good-token" {
		t.Fatalf("validator saw token %q", validator.token)
	}
	if seen.UserID != "user-1" || !seen.IsAdmin {
		t.Fatalf("principal not injected: %+v", seen)
	}
}

func TestExtractTokenPrefersBearerHeader(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})
	if got := extractTokenFromRequest(req); got != "header-token" {
		t.Fatalf("got %q, want header token", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})
	if got := extractTokenFromRequest(req); got != "cookie-token" {
		t.Fatalf("got %q, want cookie token", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if got := extractTokenFromRequest(req); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestRequestLoggerAttachesContextLogger(t *testing.T) {
	t.Parallel()

	var sawLogger bool
	handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !sawLogger {
		t.Fatal("request scoped logger missing from context")
	}
}
