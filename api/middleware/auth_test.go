package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/adee-tech/adee-backend/internal/auth"
	"github.com/adee-tech/adee-backend/pkg/enums"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
)

type stubAuthorizer struct {
	principal *auth.Principal
	err       error
	token     string
}

func (s *stubAuthorizer) Authorize(ctx context.Context, accessToken string) (*auth.Principal, error) {
	s.token = accessToken
	if s.err != nil {
		return nil, s.err
	}
	return s.principal, nil
}

func principalEcho(t *testing.T, got **auth.Principal) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthSeedsPrincipal(t *testing.T) {
	principal := &auth.Principal{UserID: uuid.New(), Email: "ada@example.com", Role: enums.RoleUser}
	svc := &stubAuthorizer{principal: principal}

	var seen *auth.Principal
	handler := Auth(svc, nil)(principalEcho(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer token-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.token != "token-123" {
		t.Fatalf("expected token forwarded, got %q", svc.token)
	}
	if seen == nil || seen.UserID != principal.UserID {
		t.Fatalf("expected principal in context, got %+v", seen)
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(&stubAuthorizer{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without credentials")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	svc := &stubAuthorizer{err: pkgerrors.New(pkgerrors.CodeTokenExpired, "token expired")}
	handler := Auth(svc, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run with an expired token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	var seen *auth.Principal
	handler := OptionalAuth(&stubAuthorizer{}, nil)(principalEcho(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/adverts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen != nil {
		t.Fatalf("expected anonymous context, got %+v", seen)
	}
}

func TestOptionalAuthStillRejectsBadToken(t *testing.T) {
	svc := &stubAuthorizer{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")}
	handler := OptionalAuth(svc, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run with an invalid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/adverts", nil)
	req.Header.Set("Authorization", "Bearer junk")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestBearerTokenParsing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "BEARER  spaced-token ")
	if got := bearerToken(req); got != "spaced-token" {
		t.Fatalf("expected trimmed token, got %q", got)
	}

	req.Header.Set("Authorization", "raw-token")
	if got := bearerToken(req); got != "raw-token" {
		t.Fatalf("expected raw token passthrough, got %q", got)
	}
}
