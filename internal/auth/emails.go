package auth

import (
	"context"
	"fmt"
	"time"

	pkgauth "github.com/adee-tech/adee-backend/pkg/auth"
	"github.com/adee-tech/adee-backend/pkg/db/models"
	"github.com/adee-tech/adee-backend/pkg/mailer"
)

const emailSendTimeout = 15 * time.Second

// sendVerificationEmail dispatches the verification link without blocking
// the request. Delivery failures are logged, never surfaced to the caller.
func (s *service) sendVerificationEmail(ctx context.Context, user *models.User) {
	if s.mailer == nil || user.Email == nil {
		return
	}

	token, err := pkgauth.MintEmail(s.jwtCfg, pkgauth.KindVerifyEmail, s.now(), *user.Email)
	if err != nil {
		s.logg.Error(ctx, "mint verification token", err)
		return
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", s.publicURL, token)
	s.dispatch(ctx, mailer.Message{
		ToEmail: *user.Email,
		ToName:  displayName(user),
		Subject: "Verify your email",
		Text:    "Confirm your email address to activate your account: " + link,
		HTML:    fmt.Sprintf(`<p>Confirm your email address to activate your account.</p><p><a href=%q>Verify email</a></p>`, link),
	})
}

func (s *service) sendResetEmail(ctx context.Context, user *models.User) {
	if s.mailer == nil || user.Email == nil {
		return
	}

	token, err := pkgauth.MintEmail(s.jwtCfg, pkgauth.KindReset, s.now(), *user.Email)
	if err != nil {
		s.logg.Error(ctx, "mint reset token", err)
		return
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.publicURL, token)
	s.dispatch(ctx, mailer.Message{
		ToEmail: *user.Email,
		ToName:  displayName(user),
		Subject: "Reset your password",
		Text:    "Use this link to choose a new password: " + link,
		HTML:    fmt.Sprintf(`<p>Use the link below to choose a new password. The link expires in one hour.</p><p><a href=%q>Reset password</a></p>`, link),
	})
}

func (s *service) dispatch(ctx context.Context, msg mailer.Message) {
	detached := context.WithoutCancel(ctx)
	go func() {
		sendCtx, cancel := context.WithTimeout(detached, emailSendTimeout)
		defer cancel()
		if err := s.mailer.Send(sendCtx, msg); err != nil {
			s.logg.Error(sendCtx, "send email", err)
		}
	}()
}

func displayName(user *models.User) string {
	if user.Name == nil {
		return ""
	}
	if user.Surname == nil {
		return *user.Name
	}
	return *user.Name + " " + *user.Surname
}
