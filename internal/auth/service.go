package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adee-tech/adee-backend/internal/users"
	pkgauth "github.com/adee-tech/adee-backend/pkg/auth"
	"github.com/adee-tech/adee-backend/pkg/config"
	"github.com/adee-tech/adee-backend/pkg/db"
	"github.com/adee-tech/adee-backend/pkg/db/models"
	"github.com/adee-tech/adee-backend/pkg/enums"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
	"github.com/adee-tech/adee-backend/pkg/logger"
	"github.com/adee-tech/adee-backend/pkg/mailer"
	"github.com/adee-tech/adee-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   enums.Role
}

// Service defines the behavior needed by the auth controller and middleware.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Authorize(ctx context.Context, accessToken string) (*Principal, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, userID uuid.UUID) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

type userRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}

type sessionManager interface {
	Store(ctx context.Context, userID uuid.UUID, token string) error
	Validate(ctx context.Context, userID uuid.UUID, provided string) error
	Revoke(ctx context.Context, userID uuid.UUID) error
}

type emailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo    userRepository
	Sessions    sessionManager
	Mailer      emailSender
	Logger      *logger.Logger
	JWTConfig   config.JWTConfig
	PasswordCfg config.PasswordConfig
	PublicURL   string
}

type service struct {
	users       userRepository
	sessions    sessionManager
	mailer      emailSender
	logg        *logger.Logger
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	publicURL   string
	now         func() time.Time
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		users:       params.UserRepo,
		sessions:    params.Sessions,
		mailer:      params.Mailer,
		logg:        params.Logger,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordCfg,
		publicURL:   strings.TrimRight(params.PublicURL, "/"),
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Register creates the account and dispatches a verification email. The
// new user still has to log in; registration does not open a session.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "hash password")
	}

	user, err := users.NewUser(users.NewUserParams{
		Email:        &email,
		Phone:        req.Phone,
		PasswordHash: &hash,
		Name:         req.Name,
		Surname:      req.Surname,
		CompanyName:  req.CompanyName,
		Role:         enums.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "account already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	s.sendVerificationEmail(ctx, created)
	return users.FromModel(created), nil
}

// Login authenticates the credentials, rejects banned accounts, and opens
// a fresh session. Any previous session for the user is displaced.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Login, req.Password)
	if err != nil {
		return nil, err
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		TokenPair: *pair,
		User:      users.FromModel(user),
	}, nil
}

// Refresh rotates the session: the presented refresh token must be both
// validly signed and the one currently on record for the user.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := pkgauth.ParseSession(s.jwtCfg, pkgauth.KindRefresh, refreshToken)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Validate(ctx, claims.UserID, refreshToken); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.Banned {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is banned")
	}

	return s.openSession(ctx, user)
}

// Authorize resolves an access token into a Principal. The user row is
// consulted so that role changes and bans take effect mid-session.
func (s *service) Authorize(ctx context.Context, accessToken string) (*Principal, error) {
	claims, err := pkgauth.ParseSession(s.jwtCfg, pkgauth.KindAccess, accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.Banned {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is banned")
	}

	principal := &Principal{
		UserID: user.ID,
		Role:   user.Role,
	}
	if user.Email != nil {
		principal.Email = *user.Email
	}
	return principal, nil
}

// Logout drops the user's refresh session. The access token stays valid
// until it expires but can no longer be refreshed.
func (s *service) Logout(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.sessions.Revoke(ctx, userID)
}

// VerifyEmail consumes an emailed verification token.
func (s *service) VerifyEmail(ctx context.Context, token string) error {
	claims, err := pkgauth.ParseEmail(s.jwtCfg, pkgauth.KindVerifyEmail, token)
	if err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(claims.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.EmailVerified {
		return nil
	}
	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark verified")
	}
	return nil
}

// ResendVerification sends a fresh verification link to an unverified user.
func (s *service) ResendVerification(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.Email == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account has no email address")
	}
	if user.EmailVerified {
		return pkgerrors.New(pkgerrors.CodeConflict, "email already verified")
	}
	s.sendVerificationEmail(ctx, user)
	return nil
}

// ForgotPassword starts the reset flow. It succeeds regardless of whether
// the address has an account, so the endpoint cannot be used to probe.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	s.sendResetEmail(ctx, user)
	return nil
}

// ResetPassword consumes a reset token, replaces the credential, and
// revokes any open session.
func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	claims, err := pkgauth.ParseEmail(s.jwtCfg, pkgauth.KindReset, req.Token)
	if err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(claims.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "hash password")
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	if err := s.sessions.Revoke(ctx, user.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// authenticate resolves the identity by email or, for non-email input,
// by phone number. Unknown identity, wrong password, and accounts without
// a password credential all surface the same message.
func (s *service) authenticate(ctx context.Context, identity, password string) (*models.User, error) {
	input := strings.TrimSpace(identity)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	var user *models.User
	var err error
	if strings.Contains(input, "@") {
		user, err = s.users.FindByEmail(ctx, strings.ToLower(input))
	} else {
		user, err = s.users.FindByPhone(ctx, input)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if user.PasswordHash == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := security.VerifyPassword(password, *user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if user.Banned {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is banned")
	}
	return user, nil
}

func (s *service) openSession(ctx context.Context, user *models.User) (*TokenPair, error) {
	now := s.now()
	email := ""
	if user.Email != nil {
		email = *user.Email
	}

	accessToken, err := pkgauth.MintSession(s.jwtCfg, pkgauth.KindAccess, now, user.ID, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	refreshToken, err := pkgauth.MintSession(s.jwtCfg, pkgauth.KindRefresh, now, user.ID, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint refresh token")
	}
	if err := s.sessions.Store(ctx, user.ID, refreshToken); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
