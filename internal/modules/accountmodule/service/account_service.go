// Package service lets users manage their own account
package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/events"
	"github.com/mantonx/streamflow/internal/modules/accountmodule/core/repository"
	"github.com/mantonx/streamflow/internal/services"
	"github.com/mantonx/streamflow/internal/types"
)

// Languages the interface is available in
var Languages = []string{"fr", "en"}

const maxNameLength = 100

// SubscriptionSummary is the part of the current subscription shown on the account page
type SubscriptionSummary struct {
	Plan          string     `json:"plan"`
	BillingPeriod string     `json:"billing_period"`
	Status        string     `json:"status"`
	EndDate       *time.Time `json:"end_date"`
	AutoRenew     bool       `json:"auto_renew"`
}

// Account is the response of GET /api/account
type Account struct {
	User         *auth.UserView       `json:"user"`
	Subscription *SubscriptionSummary `json:"subscription"`
}

// ProfileRequest updates the public profile. Nil fields are left alone.
type ProfileRequest struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

// SettingsRequest updates preferences. Nil fields are left alone.
type SettingsRequest struct {
	Notifications *bool   `json:"notifications"`
	EmailUpdates  *bool   `json:"email_updates"`
	Language      *string `json:"language"`
	Autoplay      *bool   `json:"autoplay"`
}

// PasswordRequest changes the password
type PasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// DeleteRequest confirms account deletion
type DeleteRequest struct {
	Password string `json:"password" binding:"required"`
}

// AccountService handles self-service account operations
type AccountService struct {
	repo          *repository.AccountRepository
	authSvc       services.AuthService
	subscriptions services.SubscriptionService
	log           hclog.Logger
	now           func() time.Time
}

// NewAccountService creates an account service. subscriptions may be nil when
// billing is not loaded.
func NewAccountService(repo *repository.AccountRepository, authSvc services.AuthService, subscriptions services.SubscriptionService, log hclog.Logger) *AccountService {
	return &AccountService{repo: repo, authSvc: authSvc, subscriptions: subscriptions, log: log, now: time.Now}
}

// Get returns the account of a user
func (s *AccountService) Get(ctx context.Context, userID string) (*Account, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	account := &Account{User: auth.NewUserView(user, s.now())}
	if s.subscriptions != nil {
		sub, err := s.subscriptions.CurrentSubscription(ctx, userID)
		if err != nil {
			s.log.Warn("failed to load subscription", "user_id", userID, "error", err)
		} else if sub != nil {
			account.Subscription = &SubscriptionSummary{
				Plan:          sub.Plan,
				BillingPeriod: sub.BillingPeriod,
				Status:        sub.Status,
				EndDate:       sub.EndDate,
				AutoRenew:     sub.AutoRenew,
			}
		}
	}
	return account, nil
}

// UpdateProfile changes the name and avatar
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, req ProfileRequest) (*Account, error) {
	updates := map[string]interface{}{}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if utf8.RuneCountInString(name) > maxNameLength {
			return nil, types.NewValidationError("full name is too long")
		}
		updates["full_name"] = name
	}
	if req.AvatarURL != nil {
		avatar := strings.TrimSpace(*req.AvatarURL)
		if avatar != "" && !isHTTPURL(avatar) {
			return nil, types.NewValidationError("avatar must be an http or https URL")
		}
		updates["avatar_url"] = avatar
	}

	if err := s.repo.UpdateUser(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	// Uploaded avatars are served from /media
	if u.Scheme == "" && strings.HasPrefix(u.Path, "/media/") {
		return true
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// UpdateSettings changes preferences
func (s *AccountService) UpdateSettings(ctx context.Context, userID string, req SettingsRequest) (*Account, error) {
	updates := map[string]interface{}{}
	if req.Notifications != nil {
		updates["settings_notifications"] = *req.Notifications
	}
	if req.EmailUpdates != nil {
		updates["settings_email_updates"] = *req.EmailUpdates
	}
	if req.Autoplay != nil {
		updates["settings_autoplay"] = *req.Autoplay
	}
	if req.Language != nil {
		lang := strings.ToLower(strings.TrimSpace(*req.Language))
		if !validLanguage(lang) {
			return nil, types.NewValidationError("language must be one of: " + strings.Join(Languages, ", "))
		}
		updates["settings_language"] = lang
	}

	if err := s.repo.UpdateUser(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func validLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// checkPassword verifies password against the stored hash
func (s *AccountService) checkPassword(user *database.User, password string) error {
	if err := s.authSvc.Hasher().Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return types.NewAppError(types.ErrorCodeInvalidCredentials, "current password is incorrect", 401)
		}
		return types.NewInternalError("failed to verify password", err)
	}
	return nil
}

// ChangePassword replaces the password and signs the user out everywhere
func (s *AccountService) ChangePassword(ctx context.Context, userID string, req PasswordRequest) error {
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return types.NewValidationError(err.Error())
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.checkPassword(user, req.CurrentPassword); err != nil {
		return err
	}

	hash, err := s.authSvc.Hasher().Hash(req.NewPassword)
	if err != nil {
		return types.NewInternalError("failed to hash password", err)
	}
	if err := s.repo.UpdateUser(ctx, userID, map[string]interface{}{"password_hash": hash}); err != nil {
		return err
	}
	if err := s.authSvc.RevokeAllRefreshTokens(ctx, userID); err != nil {
		return err
	}

	s.log.Info("password changed", "user_id", userID)
	return nil
}

// Delete removes the account and all data attached to it. Super admins must
// be demoted first so the back-office always keeps an owner.
func (s *AccountService) Delete(ctx context.Context, userID string, req DeleteRequest) error {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == database.RoleSuperAdmin {
		return types.NewForbiddenError("a super admin account cannot be deleted")
	}
	if err := s.checkPassword(user, req.Password); err != nil {
		return err
	}

	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return err
	}

	events.Publish(ctx, events.NewUserEvent(events.EventUserDeleted, userID, "Account deleted", user.Email))
	s.log.Info("account deleted", "user_id", userID)
	return nil
}
