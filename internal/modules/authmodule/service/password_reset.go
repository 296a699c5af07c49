package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/events"
	"github.com/mantonx/streamflow/internal/metrics"
	"github.com/mantonx/streamflow/internal/modules/authmodule/core/repository"
	"github.com/mantonx/streamflow/internal/types"
)

// ForgotPasswordMessage is answered to every forgot-password request so
// responses never reveal whether an email is registered
const ForgotPasswordMessage = "If this email is registered, a password reset link will be sent."

// ForgotPasswordRequest is the body of POST /api/auth/forgot-password
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest is the body of POST /api/auth/reset-password
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ResetNotifier delivers a reset link to a user
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, user *database.User, link string) error
}

// LogNotifier writes reset links to the debug log. It stands in for a
// mailer in development.
type LogNotifier struct {
	Log hclog.Logger
}

// SendPasswordReset implements ResetNotifier
func (n LogNotifier) SendPasswordReset(_ context.Context, user *database.User, link string) error {
	n.Log.Debug("password reset link", "user_id", user.ID, "link", link)
	return nil
}

// ResetOptions configures password resets
type ResetOptions struct {
	// URL is the page the link points at; the token is added as ?token=
	URL      string
	TTL      time.Duration
	Notifier ResetNotifier
}

// WithPasswordReset enables the forgot and reset password flow
func (s *AuthService) WithPasswordReset(resets *repository.ResetRepository, opts ResetOptions) *AuthService {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{Log: s.log}
	}
	s.resets = resets
	s.resetOpts = opts
	return s
}

func (s *AuthService) resetLink(raw string) string {
	u, err := url.Parse(s.resetOpts.URL)
	if err != nil || s.resetOpts.URL == "" {
		return "/reset-password?token=" + raw
	}
	q := u.Query()
	q.Set("token", raw)
	u.RawQuery = q.Encode()
	return u.String()
}

// ForgotPassword issues a reset token for an active account. Unknown emails,
// disabled accounts and rate-limited requests all succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	if s.resets == nil {
		return types.NewAppError(types.ErrorCodeInternal, "password reset is not configured", http.StatusServiceUnavailable)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if ok, _ := s.limiter.CheckForgotPassword(ctx, email); !ok {
		metrics.AuthEvents.WithLabelValues("forgot_password", "rate_limited").Inc()
		return nil
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if types.IsCode(err, types.ErrorCodeNotFound) {
			metrics.AuthEvents.WithLabelValues("forgot_password", "unknown").Inc()
			return nil
		}
		return err
	}
	if !user.IsActive {
		metrics.AuthEvents.WithLabelValues("forgot_password", "disabled").Inc()
		return nil
	}

	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return err
	}
	if err := s.resets.Create(ctx, &database.PasswordReset{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(s.resetOpts.TTL),
	}); err != nil {
		return err
	}

	if err := s.resetOpts.Notifier.SendPasswordReset(ctx, user, s.resetLink(raw)); err != nil {
		// The response stays the same; the user can ask again
		s.log.Error("failed to send password reset", "user_id", user.ID, "error", err)
	}

	metrics.AuthEvents.WithLabelValues("forgot_password", "success").Inc()
	events.Publish(ctx, events.NewUserEvent(events.EventPasswordResetRequested, user.ID, "Password reset requested", user.Email))
	return nil
}

// ResetPassword redeems a reset token, sets the new password and signs the
// user out everywhere
func (s *AuthService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if s.resets == nil {
		return types.NewAppError(types.ErrorCodeInternal, "password reset is not configured", http.StatusServiceUnavailable)
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return types.NewValidationError(err.Error())
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	userID, err := s.resets.Redeem(ctx, auth.HashToken(strings.TrimSpace(req.Token)), hash, s.now())
	switch {
	case errors.Is(err, repository.ErrResetNotFound):
		metrics.AuthEvents.WithLabelValues("reset_password", "failure").Inc()
		return types.NewAppError(types.ErrorCodeResetTokenInvalid, "invalid reset token", http.StatusBadRequest)
	case errors.Is(err, repository.ErrResetUsed):
		metrics.AuthEvents.WithLabelValues("reset_password", "failure").Inc()
		return types.NewAppError(types.ErrorCodeResetTokenUsed, "reset token has already been used", http.StatusConflict)
	case errors.Is(err, repository.ErrResetExpired):
		metrics.AuthEvents.WithLabelValues("reset_password", "failure").Inc()
		return types.NewAppError(types.ErrorCodeResetTokenExpired, "reset token has expired", http.StatusGone)
	case err != nil:
		return err
	}

	metrics.AuthEvents.WithLabelValues("reset_password", "success").Inc()
	events.Publish(ctx, events.NewUserEvent(events.EventPasswordReset, userID, "Password reset", ""))
	s.log.Info("password reset", "user_id", userID)
	return nil
}

// PruneExpiredResets deletes reset tokens that expired more than a day ago
func (s *AuthService) PruneExpiredResets(ctx context.Context) (int64, error) {
	if s.resets == nil {
		return 0, nil
	}
	return s.resets.DeleteStale(ctx, s.now().Add(-24*time.Hour))
}
