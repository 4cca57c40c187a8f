package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/clinic-ops/internal/application"
)

type authServiceStub struct {
	result  application.AuthenticateResult
	err     error
	revoked []string
}

func (s *authServiceStub) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	if s.err != nil {
		return application.AuthenticateResult{}, s.err
	}
	return s.result, nil
}

func (s *authServiceStub) RevokeSession(ctx context.Context, token string) error {
	if s.err != nil {
		return s.err
	}
	s.revoked = append(s.revoked, token)
	return nil
}

func TestLoginIssuesTokenEverywhere(t *testing.T) {
	t.Parallel()

	expires := time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC)
	service := &authServiceStub{result: application.AuthenticateResult{
		User:    application.User{ID: "user-1", IsAdmin: true},
		Session: application.Session{Token: "token-1", ExpiresAt: expires},
	}}
	router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

	body := strings.NewReader(`{"email":"Anna@Example.com","password":"s3cretpass"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("X-Session-Token"); got != "token-1" {
		t.Fatalf("X-Session-Token = %q", got)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_token" {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != "token-1" || !cookie.HttpOnly {
		t.Fatalf("session cookie = %+v", cookie)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token != "token-1" || resp.Principal.UserID != "user-1" || !resp.Principal.IsAdmin {
		t.Fatalf("response = %+v", resp)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Auth: NewAuthHandler(&authServiceStub{err: application.ErrInvalidCredentials}, nil)})

	body := strings.NewReader(`{"email":"anna@example.com","password":"wrong"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", body))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
		t.Fatalf("error_code = %q", resp.ErrorCode)
	}
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Auth: NewAuthHandler(&authServiceStub{}, nil)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{not json")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLogoutRevokesAndClearsCookie(t *testing.T) {
	t.Parallel()

	service := &authServiceStub{}
	router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer token-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(service.revoked) != 1 || service.revoked[0] != "token-1" {
		t.Fatalf("revoked = %v", service.revoked)
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("session cookie not cleared")
	}
}

func TestLogoutWithoutToken(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Auth: NewAuthHandler(&authServiceStub{}, nil)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
