package auth

import (
	"github.com/adee-tech/adee-backend/internal/users"
)

// RegisterRequest carries the signup payload.
type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=8,max=128"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,e164"`
	Name        *string `json:"name,omitempty"`
	Surname     *string `json:"surname,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
}

// LoginRequest carries the credential payload. Login accepts either the
// account's email address or its phone number.
type LoginRequest struct {
	Login    string `json:"login" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is an access/refresh token bundle.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse returns the session tokens plus the authenticated profile.
type LoginResponse struct {
	TokenPair
	User *users.UserDTO `json:"user"`
}

// VerifyEmailRequest carries the emailed verification token.
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// ForgotPasswordRequest starts the reset flow for an address.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the reset flow.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}
