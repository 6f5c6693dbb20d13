package auth

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	pkgauth "github.com/adee-tech/adee-backend/pkg/auth"
	"github.com/adee-tech/adee-backend/pkg/config"
	"github.com/adee-tech/adee-backend/pkg/db/models"
	"github.com/adee-tech/adee-backend/pkg/enums"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
	"github.com/adee-tech/adee-backend/pkg/logger"
	"github.com/adee-tech/adee-backend/pkg/mailer"
)

type stubUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	byPhone map[string]*models.User
	byID    map[uuid.UUID]*models.User

	hashUpdates map[uuid.UUID]string
	verified    map[uuid.UUID]bool
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail:     map[string]*models.User{},
		byPhone:     map[string]*models.User{},
		byID:        map[uuid.UUID]*models.User{},
		hashUpdates: map[uuid.UUID]string{},
		verified:    map[uuid.UUID]bool{},
	}
}

func (s *stubUserRepo) add(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.byID[user.ID] = user
	if user.Email != nil {
		s.byEmail[*user.Email] = user
	}
	if user.Phone != nil {
		s.byPhone[*user.Phone] = user
	}
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	existing := user.Email != nil && s.byEmail[*user.Email] != nil
	s.mu.Unlock()
	if existing {
		return nil, gorm.ErrDuplicatedKey
	}
	s.add(user)
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *stubUserRepo) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byPhone[phone]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *stubUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashUpdates[id] = hash
	if user, ok := s.byID[id]; ok {
		user.PasswordHash = &hash
	}
	return nil
}

func (s *stubUserRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified[id] = true
	if user, ok := s.byID[id]; ok {
		user.EmailVerified = true
	}
	return nil
}

type stubSessions struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]string
}

func newStubSessions() *stubSessions {
	return &stubSessions{tokens: map[uuid.UUID]string{}}
}

func (s *stubSessions) Store(ctx context.Context, userID uuid.UUID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = token
	return nil
}

func (s *stubSessions) Validate(ctx context.Context, userID uuid.UUID, provided string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.tokens[userID]; !ok || stored != provided {
		return pkgerrors.New(pkgerrors.CodeTokenRevoked, "refresh session not found")
	}
	return nil
}

func (s *stubSessions) Revoke(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userID)
	return nil
}

type stubMailer struct {
	sent chan mailer.Message
}

func newStubMailer() *stubMailer {
	return &stubMailer{sent: make(chan mailer.Message, 4)}
}

func (s *stubMailer) Send(ctx context.Context, msg mailer.Message) error {
	s.sent <- msg
	return nil
}

func (s *stubMailer) waitForMessage(t *testing.T) mailer.Message {
	t.Helper()
	select {
	case msg := <-s.sent:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for email")
		return mailer.Message{}
	}
}

type authFixture struct {
	svc      Service
	repo     *stubUserRepo
	sessions *stubSessions
	mail     *stubMailer
	jwtCfg   config.JWTConfig
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	repo := newStubUserRepo()
	sessions := newStubSessions()
	mail := newStubMailer()
	jwtCfg := config.JWTConfig{
		AccessSecret:        "access-secret",
		RefreshSecret:       "refresh-secret",
		EmailSecret:         "email-secret",
		Issuer:              "adee",
		AccessTTLMinutes:    100,
		RefreshTTLMinutes:   10800,
		EmailLinkTTLMinutes: 60,
	}

	svc, err := NewService(ServiceParams{
		UserRepo:    repo,
		Sessions:    sessions,
		Mailer:      mail,
		Logger:      logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard}),
		JWTConfig:   jwtCfg,
		PasswordCfg: config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
		PublicURL:   "https://ad-ee.test",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &authFixture{svc: svc, repo: repo, sessions: sessions, mail: mail, jwtCfg: jwtCfg}
}

func (f *authFixture) registerUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	dto, err := f.svc.Register(context.Background(), RegisterRequest{Email: email, Password: password})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	f.mail.waitForMessage(t)
	user := f.repo.byID[dto.ID]
	if user == nil {
		t.Fatal("registered user not stored")
	}
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := f.registerUser(t, "User@Example.com  ", "hunter2hunter2")
	if user.Email == nil || *user.Email != "user@example.com" {
		t.Fatalf("expected normalized email, got %v", user.Email)
	}

	resp, err := f.svc.Login(ctx, LoginRequest{Login: "user@example.com", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatal("expected user payload")
	}
	if stored := f.sessions.tokens[user.ID]; stored != resp.RefreshToken {
		t.Fatal("refresh token not stored in session authority")
	}

	claims, err := pkgauth.ParseSession(f.jwtCfg, pkgauth.KindAccess, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse issued access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("access token bound to wrong user")
	}
}

func TestLoginByPhone(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	phone := "+15550001111"
	dto, err := f.svc.Register(ctx, RegisterRequest{
		Email:    "phoned@example.com",
		Password: "hunter2hunter2",
		Phone:    &phone,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	f.mail.waitForMessage(t)

	resp, err := f.svc.Login(ctx, LoginRequest{Login: phone, Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("login by phone: %v", err)
	}
	if resp.User == nil || resp.User.ID != dto.ID {
		t.Fatal("phone login resolved the wrong account")
	}

	_, err = f.svc.Login(ctx, LoginRequest{Login: "+15559999999", Password: "hunter2hunter2"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED for unknown phone, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.registerUser(t, "user@example.com", "hunter2hunter2")

	_, err := f.svc.Register(context.Background(), RegisterRequest{Email: "user@example.com", Password: "hunter2hunter2"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.registerUser(t, "user@example.com", "hunter2hunter2")

	_, err := f.svc.Login(context.Background(), LoginRequest{Login: "user@example.com", Password: "wrong"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}

	_, err = f.svc.Login(context.Background(), LoginRequest{Login: "nobody@example.com", Password: "hunter2hunter2"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED for unknown account, got %v", err)
	}
}

func TestLoginBannedAccount(t *testing.T) {
	f := newAuthFixture(t)
	user := f.registerUser(t, "user@example.com", "hunter2hunter2")
	user.Banned = true

	_, err := f.svc.Login(context.Background(), LoginRequest{Login: "user@example.com", Password: "hunter2hunter2"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.registerUser(t, "user@example.com", "hunter2hunter2")

	login, err := f.svc.Login(ctx, LoginRequest{Login: "user@example.com", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	pair, err := f.svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.RefreshToken == login.RefreshToken {
		t.Fatal("expected rotated refresh token")
	}

	// The displaced token no longer matches the stored session.
	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeTokenRevoked {
		t.Fatalf("expected TOKEN_REVOKED for displaced token, got %v", err)
	}

	if _, err := f.svc.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("refresh with current token: %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.registerUser(t, "user@example.com", "hunter2hunter2")

	login, err := f.svc.Login(ctx, LoginRequest{Login: "user@example.com", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err = f.svc.Refresh(ctx, login.AccessToken)
	if err == nil {
		t.Fatal("expected error refreshing with access token")
	}
}

func TestAuthorize(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.registerUser(t, "user@example.com", "hunter2hunter2")

	login, err := f.svc.Login(ctx, LoginRequest{Login: "user@example.com", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	principal, err := f.svc.Authorize(ctx, login.AccessToken)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if principal.UserID != user.ID || principal.Role != enums.RoleUser {
		t.Fatalf("unexpected principal %+v", principal)
	}

	// A mid-session ban takes effect on the next authorized call.
	user.Banned = true
	_, err = f.svc.Authorize(ctx, login.AccessToken)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN for banned user, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.registerUser(t, "user@example.com", "hunter2hunter2")

	login, err := f.svc.Login(ctx, LoginRequest{Login: "user@example.com", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := f.svc.Logout(ctx, user.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeTokenRevoked {
		t.Fatalf("expected TOKEN_REVOKED after logout, got %v", err)
	}
}

func TestVerifyEmailFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.registerUser(t, "user@example.com", "hunter2hunter2")

	token, err := pkgauth.MintEmail(f.jwtCfg, pkgauth.KindVerifyEmail, time.Now(), "user@example.com")
	if err != nil {
		t.Fatalf("mint verification token: %v", err)
	}
	if err := f.svc.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("verify email: %v", err)
	}
	if !f.repo.verified[user.ID] {
		t.Fatal("expected email marked verified")
	}

	// Idempotent on repeat.
	if err := f.svc.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("repeat verify: %v", err)
	}

	// A reset token must not pass as a verification token.
	resetToken, err := pkgauth.MintEmail(f.jwtCfg, pkgauth.KindReset, time.Now(), "user@example.com")
	if err != nil {
		t.Fatalf("mint reset token: %v", err)
	}
	if err := f.svc.VerifyEmail(ctx, resetToken); err == nil {
		t.Fatal("expected kind mismatch error")
	}
}

func TestResendVerification(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.registerUser(t, "user@example.com", "hunter2hunter2")

	if err := f.svc.ResendVerification(ctx, user.ID); err != nil {
		t.Fatalf("resend verification: %v", err)
	}
	msg := f.mail.waitForMessage(t)
	if msg.ToEmail != "user@example.com" {
		t.Fatalf("unexpected recipient %q", msg.ToEmail)
	}
	if !strings.Contains(msg.Text, "verify-email?token=") {
		t.Fatalf("expected verification link, got %q", msg.Text)
	}

	user.EmailVerified = true
	err := f.svc.ResendVerification(ctx, user.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT for verified account, got %v", err)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.registerUser(t, "user@example.com", "hunter2hunter2")

	if _, err := f.svc.Login(ctx, LoginRequest{Login: "user@example.com", Password: "hunter2hunter2"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := f.svc.ForgotPassword(ctx, "User@example.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	msg := f.mail.waitForMessage(t)
	if !strings.Contains(msg.Text, "reset-password?token=") {
		t.Fatalf("expected reset link, got %q", msg.Text)
	}

	token, err := pkgauth.MintEmail(f.jwtCfg, pkgauth.KindReset, time.Now(), "user@example.com")
	if err != nil {
		t.Fatalf("mint reset token: %v", err)
	}
	if err := f.svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "correcthorse9"}); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	if _, ok := f.repo.hashUpdates[user.ID]; !ok {
		t.Fatal("password hash not updated")
	}
	if _, ok := f.sessions.tokens[user.ID]; ok {
		t.Fatal("expected session revoked after reset")
	}

	if _, err := f.svc.Login(ctx, LoginRequest{Login: "user@example.com", Password: "correcthorse9"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	_, err = f.svc.Login(ctx, LoginRequest{Login: "user@example.com", Password: "hunter2hunter2"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED with old password, got %v", err)
	}
}

func TestForgotPasswordUnknownAddressIsSilent(t *testing.T) {
	f := newAuthFixture(t)

	if err := f.svc.ForgotPassword(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("forgot password for unknown address: %v", err)
	}
	select {
	case msg := <-f.mail.sent:
		t.Fatalf("unexpected email sent: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}
