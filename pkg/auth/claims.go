package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind is the subject-type marker embedded in every token. Tokens of one
// kind must never verify as another kind.
type Kind string

const (
	KindAccess      Kind = "access"
	KindRefresh     Kind = "refresh"
	KindVerifyEmail Kind = "verify_email"
	KindReset       Kind = "reset"
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// SessionClaims is the typed payload of access and refresh tokens.
type SessionClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// EmailClaims is the typed payload of the email-link tokens (verification
// and password reset). They identify an address rather than a session.
type EmailClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}
