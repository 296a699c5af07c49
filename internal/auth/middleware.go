package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/api"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/logger"
	"github.com/mantonx/streamflow/internal/types"
)

// UserLookup loads the user behind a token so role and VIP state are always current
type UserLookup interface {
	FindUserByID(ctx context.Context, id string) (*database.User, error)
}

// Middleware guards routes with bearer tokens
type Middleware struct {
	tokens *TokenManager
	users  UserLookup
	now    func() time.Time
}

// NewMiddleware creates the route guards
func NewMiddleware(tokens *TokenManager, users UserLookup) *Middleware {
	return &Middleware{tokens: tokens, users: users, now: time.Now}
}

// OptionalAuth attaches a viewer when a valid token is present. Missing or
// invalid tokens leave the request anonymous.
func (m *Middleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := headerToken(c); token != "" {
			if viewer, err := m.authenticate(c, token); err == nil {
				SetViewer(c, viewer)
			} else {
				logger.Debug("ignoring invalid token on public route", "path", c.FullPath(), "error", err)
			}
		}
		c.Next()
	}
}

// RequireAuth rejects anonymous requests with 401
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return m.guard(nil)
}

// RequireSocketAuth guards websocket upgrades. Browsers cannot set headers on
// a handshake, so an upgrade request may carry the token in the access_token
// query parameter instead. No other guard reads it.
func (m *Middleware) RequireSocketAuth() gin.HandlerFunc {
	return m.guardWith(socketToken, nil)
}

// RequireAdmin allows admins and super admins
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return m.guard(func(v *Viewer) error {
		if !v.IsAdmin() {
			return types.NewForbiddenError("admin access required")
		}
		return nil
	})
}

// RequireSuperAdmin allows super admins only
func (m *Middleware) RequireSuperAdmin() gin.HandlerFunc {
	return m.guard(func(v *Viewer) error {
		if !v.IsSuperAdmin() {
			return types.NewForbiddenError("super admin access required")
		}
		return nil
	})
}

// RequireVIP allows viewers with an active VIP subscription
func (m *Middleware) RequireVIP() gin.HandlerFunc {
	return m.guard(func(v *Viewer) error {
		if !v.CanSeeVIP() {
			return types.NewAppError(types.ErrorCodeVIPRequired, "an active VIP subscription is required", 403).
				WithUserMessage("This section is reserved for VIP members.")
		}
		return nil
	})
}

func (m *Middleware) guard(check func(*Viewer) error) gin.HandlerFunc {
	return m.guardWith(headerToken, check)
}

func (m *Middleware) guardWith(extract func(*gin.Context) string, check func(*Viewer) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer := ViewerFromContext(c)
		if viewer == nil {
			var err error
			viewer, err = m.authenticate(c, extract(c))
			if err != nil {
				api.RespondWithError(c, err)
				c.Abort()
				return
			}
			SetViewer(c, viewer)
		}

		if check != nil {
			if err := check(viewer); err != nil {
				api.RespondWithError(c, err)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

func (m *Middleware) authenticate(c *gin.Context, token string) (*Viewer, error) {
	if token == "" {
		return nil, types.NewUnauthorizedError("authentication required")
	}

	claims, err := m.tokens.ValidateAccessToken(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, types.NewAppError(types.ErrorCodeTokenExpired, "access token expired", 401)
		}
		return nil, types.NewUnauthorizedError("invalid access token")
	}

	user, err := m.users.FindUserByID(c.Request.Context(), claims.Subject)
	if err != nil {
		if types.IsCode(err, types.ErrorCodeNotFound) || database.IsNotFound(err) {
			return nil, types.NewUnauthorizedError("account no longer exists")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, types.NewAppError(types.ErrorCodeAccountDisabled, "account is disabled", 401)
	}

	return NewViewer(user, m.now()), nil
}

// headerToken reads "Authorization: Bearer <token>"
func headerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// socketToken prefers the header and falls back to access_token, but only on
// a websocket upgrade
func socketToken(c *gin.Context) string {
	if token := headerToken(c); token != "" || c.GetHeader("Authorization") != "" {
		return token
	}
	if !strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return ""
	}
	return c.Query("access_token")
}
