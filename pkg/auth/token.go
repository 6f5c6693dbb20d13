package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/adee-tech/adee-backend/pkg/config"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintSession issues a signed session JWT of the given kind (access or
// refresh) for the user. Deterministic for a fixed now/key pair.
func MintSession(cfg config.JWTConfig, kind Kind, now time.Time, userID uuid.UUID, email string) (string, error) {
	if kind != KindAccess && kind != KindRefresh {
		return "", fmt.Errorf("kind %q is not a session token kind", kind)
	}
	secret, err := secretFor(cfg, kind)
	if err != nil {
		return "", err
	}
	if userID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}
	ttl := sessionTTL(cfg, kind)
	if ttl <= 0 {
		return "", fmt.Errorf("%s token ttl must be positive", kind)
	}

	claims := SessionClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   kind.String(),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", kind, err)
	}
	return signed, nil
}

// ParseSession validates the token string against the expected kind and
// returns typed claims. Expiry failures surface as TOKEN_EXPIRED, all
// other verification failures as UNAUTHORIZED.
func ParseSession(cfg config.JWTConfig, kind Kind, tokenString string) (*SessionClaims, error) {
	if kind != KindAccess && kind != KindRefresh {
		return nil, fmt.Errorf("kind %q is not a session token kind", kind)
	}
	secret, err := secretFor(cfg, kind)
	if err != nil {
		return nil, err
	}

	claims := &SessionClaims{}
	if err := parseInto(secret, cfg.Issuer, kind, tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// MintEmail issues a signed email-link token (verification or reset) bound
// to an address instead of a session.
func MintEmail(cfg config.JWTConfig, kind Kind, now time.Time, email string) (string, error) {
	if kind != KindVerifyEmail && kind != KindReset {
		return "", fmt.Errorf("kind %q is not an email token kind", kind)
	}
	if email == "" {
		return "", fmt.Errorf("email is required")
	}

	claims := EmailClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   kind.String(),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.EmailLinkTTL())),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.EmailSecret))
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", kind, err)
	}
	return signed, nil
}

// ParseEmail validates an email-link token against the expected kind.
func ParseEmail(cfg config.JWTConfig, kind Kind, tokenString string) (*EmailClaims, error) {
	if kind != KindVerifyEmail && kind != KindReset {
		return nil, fmt.Errorf("kind %q is not an email token kind", kind)
	}

	claims := &EmailClaims{}
	if err := parseInto(cfg.EmailSecret, cfg.Issuer, kind, tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func parseInto(secret, issuer string, kind Kind, tokenString string, claims jwt.Claims) error {
	if secret == "" {
		return fmt.Errorf("jwt secret is required")
	}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithSubject(kind.String()),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return pkgerrors.Wrap(pkgerrors.CodeTokenExpired, err, fmt.Sprintf("%s token expired", kind))
		}
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, fmt.Sprintf("invalid %s token", kind))
	}
	return nil
}

func secretFor(cfg config.JWTConfig, kind Kind) (string, error) {
	var secret string
	switch kind {
	case KindAccess:
		secret = cfg.AccessSecret
	case KindRefresh:
		secret = cfg.RefreshSecret
	case KindVerifyEmail, KindReset:
		secret = cfg.EmailSecret
	default:
		return "", fmt.Errorf("unknown token kind %q", kind)
	}
	if secret == "" {
		return "", fmt.Errorf("jwt secret for %s tokens is required", kind)
	}
	return secret, nil
}

func sessionTTL(cfg config.JWTConfig, kind Kind) time.Duration {
	if kind == KindRefresh {
		return cfg.RefreshTTL()
	}
	return cfg.AccessTTL()
}
