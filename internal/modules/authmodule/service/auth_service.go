// Package service implements registration, login, token rotation and
// password resets
package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/events"
	"github.com/mantonx/streamflow/internal/metrics"
	"github.com/mantonx/streamflow/internal/modules/authmodule/core/repository"
	"github.com/mantonx/streamflow/internal/ratelimit"
	"github.com/mantonx/streamflow/internal/types"
)

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResult is returned by register, login and refresh
type AuthResult struct {
	User   *auth.UserView  `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// AuthService handles credentials
type AuthService struct {
	users      *repository.UserRepository
	tokens     *repository.TokenRepository
	tm         *auth.TokenManager
	hasher     *auth.PasswordHasher
	limiter    *ratelimit.Limiter
	middleware *auth.Middleware
	resets     *repository.ResetRepository
	resetOpts  ResetOptions
	log        hclog.Logger
	now        func() time.Time
}

// NewAuthService wires the auth service
func NewAuthService(users *repository.UserRepository, tokens *repository.TokenRepository, tm *auth.TokenManager, hasher *auth.PasswordHasher, limiter *ratelimit.Limiter, log hclog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		tm:         tm,
		hasher:     hasher,
		limiter:    limiter,
		middleware: auth.NewMiddleware(tm, users),
		log:        log,
		now:        time.Now,
	}
}

// Middleware implements services.AuthService
func (s *AuthService) Middleware() *auth.Middleware {
	return s.middleware
}

// Hasher implements services.AuthService
func (s *AuthService) Hasher() *auth.PasswordHasher {
	return s.hasher
}

// RevokeAllRefreshTokens implements services.AuthService
func (s *AuthService) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	return s.tokens.RevokeAllForUser(ctx, userID, s.now())
}

// ValidateEmail checks the basic shape of an address
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return types.NewValidationError("invalid email address")
	}
	return nil
}

// Register creates an account and signs it in
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, ip string) (*AuthResult, error) {
	if ok, retry := s.limiter.CheckRegistration(ctx, ip); !ok {
		metrics.AuthEvents.WithLabelValues("register", "rate_limited").Inc()
		return nil, types.NewRateLimitError("too many registrations, try again later", retry)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, types.NewValidationError(err.Error())
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		metrics.AuthEvents.WithLabelValues("register", "conflict").Inc()
		return nil, types.NewConflictError("an account with this email already exists")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &database.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         database.RoleUser,
		IsActive:     true,
		Settings:     database.UserSettings{Notifications: true, Language: "fr", Autoplay: true},
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	metrics.AuthEvents.WithLabelValues("register", "success").Inc()
	events.Publish(ctx, events.NewUserEvent(events.EventUserCreated, user.ID, "User registered", user.Email))
	s.log.Info("user registered", "user_id", user.ID)

	return s.issue(ctx, user)
}

// Login checks credentials. Unknown emails, wrong passwords and disabled
// accounts all fail with 401.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, actor types.Actor) (*AuthResult, error) {
	if ok, retry := s.limiter.CheckLogin(ctx, actor.IP); !ok {
		metrics.AuthEvents.WithLabelValues("login", "rate_limited").Inc()
		return nil, types.NewRateLimitError("too many login attempts, try again later", retry)
	}

	invalid := types.NewAppError(types.ErrorCodeInvalidCredentials, "invalid email or password", 401)

	user, err := s.users.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if types.IsCode(err, types.ErrorCodeNotFound) {
			metrics.AuthEvents.WithLabelValues("login", "failure").Inc()
			return nil, invalid
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			metrics.AuthEvents.WithLabelValues("login", "failure").Inc()
			return nil, invalid
		}
		return nil, err
	}

	if !user.IsActive {
		metrics.AuthEvents.WithLabelValues("login", "disabled").Inc()
		return nil, types.NewAppError(types.ErrorCodeAccountDisabled, "account is disabled", 401)
	}

	s.limiter.ResetLogin(ctx, actor.IP)

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}
	user.LastLoginAt = &now

	metrics.AuthEvents.WithLabelValues("login", "success").Inc()
	events.Publish(ctx, events.NewUserEvent(events.EventUserLoggedIn, user.ID, "User logged in", user.Email))
	if user.IsAdmin() {
		actor.UserID, actor.Name = user.ID, user.DisplayName()
		events.RecordAdminAction(ctx, actor, events.ActionLogin, events.EntityAdmin, user.ID, user.DisplayName(), nil)
	}

	return s.issue(ctx, user)
}

// Refresh rotates a refresh token: the presented one is revoked and a new pair issued
func (s *AuthService) Refresh(ctx context.Context, raw string) (*AuthResult, error) {
	unauthorized := types.NewUnauthorizedError("invalid or expired refresh token")

	now := s.now()
	token, err := s.tokens.FindActive(ctx, auth.HashToken(raw), now)
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			metrics.AuthEvents.WithLabelValues("refresh", "failure").Inc()
			return nil, unauthorized
		}
		return nil, err
	}

	if err := s.tokens.Revoke(ctx, token.ID, now); err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return nil, unauthorized
		}
		return nil, err
	}

	user, err := s.users.FindUserByID(ctx, token.UserID)
	if err != nil {
		if types.IsCode(err, types.ErrorCodeNotFound) {
			return nil, unauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, types.NewAppError(types.ErrorCodeAccountDisabled, "account is disabled", 401)
	}

	metrics.AuthEvents.WithLabelValues("refresh", "success").Inc()
	return s.issue(ctx, user)
}

// Logout revokes the given refresh token, or every token of the viewer when none is given
func (s *AuthService) Logout(ctx context.Context, viewer *auth.Viewer, raw string, actor types.Actor) error {
	now := s.now()
	var err error
	if raw != "" {
		err = s.tokens.RevokeByHash(ctx, viewer.UserID, auth.HashToken(raw), now)
	} else {
		err = s.tokens.RevokeAllForUser(ctx, viewer.UserID, now)
	}
	if err != nil {
		return err
	}

	events.Publish(ctx, events.NewUserEvent(events.EventUserLoggedOut, viewer.UserID, "User logged out", viewer.Email))
	if viewer.IsAdmin() {
		events.RecordAdminAction(ctx, actor, events.ActionLogout, events.EntityAdmin, viewer.UserID, viewer.Name, nil)
	}
	return nil
}

// Me returns the current user
func (s *AuthService) Me(ctx context.Context, userID string) (*auth.UserView, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return auth.NewUserView(user, s.now()), nil
}

// PruneExpiredTokens deletes refresh tokens that expired more than a day ago
func (s *AuthService) PruneExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now().Add(-24*time.Hour))
}

func (s *AuthService) issue(ctx context.Context, user *database.User) (*AuthResult, error) {
	access, expiresAt, err := s.tm.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Create(ctx, &database.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(s.tm.RefreshTTL()),
	}); err != nil {
		return nil, err
	}

	return &AuthResult{
		User: auth.NewUserView(user, s.now()),
		Tokens: &auth.TokenPair{
			AccessToken:  access,
			RefreshToken: raw,
			TokenType:    "Bearer",
			ExpiresAt:    expiresAt,
		},
	}, nil
}
