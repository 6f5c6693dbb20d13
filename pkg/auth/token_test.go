package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/adee-tech/adee-backend/pkg/config"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessSecret:        "access-secret",
		RefreshSecret:       "refresh-secret",
		EmailSecret:         "email-secret",
		Issuer:              "adee",
		AccessTTLMinutes:    100,
		RefreshTTLMinutes:   10800,
		EmailLinkTTLMinutes: 60,
	}
}

func TestMintAndParseSessionToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintSession(cfg, KindAccess, now, userID, "user@example.com")
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseSession(cfg, KindAccess, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
	if claims.Subject != KindAccess.String() {
		t.Fatalf("expected subject %q, got %q", KindAccess, claims.Subject)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(cfg.AccessTTL())
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestParseSessionRejectsWrongKind(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()
	userID := uuid.New()

	// Same secret for both channels so the only discriminant left is the
	// subject claim.
	cfg.RefreshSecret = cfg.AccessSecret

	token, err := MintSession(cfg, KindAccess, now, userID, "")
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseSession(cfg, KindRefresh, token)
	if err == nil {
		t.Fatal("expected subject mismatch error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestParseSessionRejectsCrossChannelSecret(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()

	token, err := MintSession(cfg, KindRefresh, now, uuid.New(), "")
	if err != nil {
		t.Fatalf("mint refresh token: %v", err)
	}

	// Access channel uses a different secret, so a refresh token must be
	// rejected even before the subject check.
	_, err = ParseSession(cfg, KindAccess, token)
	if err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseSessionInvalidSignature(t *testing.T) {
	cfg := testJWTConfig()

	token, err := MintSession(cfg, KindAccess, time.Now(), uuid.New(), "")
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseSession(cfg, KindAccess, token+"x")
	if err == nil {
		t.Fatal("expected invalid signature error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestParseSessionExpired(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().Add(-200 * time.Minute)

	token, err := MintSession(cfg, KindAccess, now, uuid.New(), "")
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseSession(cfg, KindAccess, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeTokenExpired {
		t.Fatalf("expected TOKEN_EXPIRED, got %v", err)
	}
}

func TestMintSessionRejectsEmailKinds(t *testing.T) {
	cfg := testJWTConfig()

	if _, err := MintSession(cfg, KindVerifyEmail, time.Now(), uuid.New(), ""); err == nil {
		t.Fatal("expected kind error")
	}
	if _, err := MintSession(cfg, KindAccess, time.Now(), uuid.Nil, ""); err == nil {
		t.Fatal("expected user id error")
	}
}

func TestMintAndParseEmailToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()

	token, err := MintEmail(cfg, KindReset, now, "user@example.com")
	if err != nil {
		t.Fatalf("mint reset token: %v", err)
	}

	claims, err := ParseEmail(cfg, KindReset, token)
	if err != nil {
		t.Fatalf("parse reset token: %v", err)
	}
	if claims.Email != "user@example.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
	if claims.Subject != KindReset.String() {
		t.Fatalf("expected subject %q, got %q", KindReset, claims.Subject)
	}

	// Verification and reset tokens share a secret; the subject keeps a
	// reset link from doubling as a verification link.
	if _, err := ParseEmail(cfg, KindVerifyEmail, token); err == nil {
		t.Fatal("expected subject mismatch error")
	}
}

func TestMintEmailRequiresAddress(t *testing.T) {
	cfg := testJWTConfig()

	if _, err := MintEmail(cfg, KindVerifyEmail, time.Now(), ""); err == nil {
		t.Fatal("expected email error")
	}
	if _, err := MintEmail(cfg, KindAccess, time.Now(), "user@example.com"); err == nil {
		t.Fatal("expected kind error")
	}
}
