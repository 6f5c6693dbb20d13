package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/adee-tech/adee-backend/api/middleware"
	"github.com/adee-tech/adee-backend/internal/auth"
	"github.com/adee-tech/adee-backend/internal/users"
	"github.com/adee-tech/adee-backend/pkg/enums"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
)

type stubAuthService struct {
	user  *users.UserDTO
	login *auth.LoginResponse
	pair  *auth.TokenPair
	err   error

	loggedOut []uuid.UUID
}

func (s *stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	return s.user, s.err
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.login, s.err
}

func (s *stubAuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	return s.pair, s.err
}

func (s *stubAuthService) Authorize(ctx context.Context, accessToken string) (*auth.Principal, error) {
	return nil, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	s.loggedOut = append(s.loggedOut, userID)
	return s.err
}

func (s *stubAuthService) VerifyEmail(ctx context.Context, token string) error       { return s.err }
func (s *stubAuthService) ResendVerification(ctx context.Context, id uuid.UUID) error { return s.err }
func (s *stubAuthService) ForgotPassword(ctx context.Context, email string) error    { return s.err }
func (s *stubAuthService) ResetPassword(ctx context.Context, req auth.ResetPasswordRequest) error {
	return s.err
}

func postJSON(t *testing.T, handler http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestAuthLoginSuccess(t *testing.T) {
	svc := &stubAuthService{login: &auth.LoginResponse{
		TokenPair: auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
		User:      &users.UserDTO{ID: uuid.New()},
	}}

	resp := postJSON(t, AuthLogin(svc, nil), "/api/v1/auth/login", `{"login":"ada@example.com","password":"Secret#1"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != "access" || envelope.Data.RefreshToken != "refresh" {
		t.Fatalf("unexpected tokens: %+v", envelope.Data)
	}
}

func TestAuthLoginInvalidPayload(t *testing.T) {
	resp := postJSON(t, AuthLogin(&stubAuthService{}, nil), "/api/v1/auth/login", `{"password":"Secret#1"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthLoginBadCredentials(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	resp := postJSON(t, AuthLogin(svc, nil), "/api/v1/auth/login", `{"login":"+15550001111","password":"wrong"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRegisterCreated(t *testing.T) {
	svc := &stubAuthService{user: &users.UserDTO{ID: uuid.New()}}
	resp := postJSON(t, AuthRegister(svc, nil), "/api/v1/auth/register", `{"email":"ada@example.com","password":"Secret#12"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
}

func TestAuthRefreshRejectsRevokedToken(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeTokenRevoked, "token revoked")}
	resp := postJSON(t, AuthRefresh(svc, nil), "/api/v1/auth/refresh", `{"refresh_token":"stale"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthLogoutUsesPrincipal(t *testing.T) {
	svc := &stubAuthService{}
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), &auth.Principal{UserID: userID, Role: enums.RoleUser}))
	resp := httptest.NewRecorder()
	AuthLogout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.loggedOut) != 1 || svc.loggedOut[0] != userID {
		t.Fatalf("expected logout for %s got %v", userID, svc.loggedOut)
	}
}

func TestAuthLogoutWithoutPrincipal(t *testing.T) {
	resp := postJSON(t, AuthLogout(&stubAuthService{}, nil), "/api/v1/auth/logout", `{}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
