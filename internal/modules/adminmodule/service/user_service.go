package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/events"
	"github.com/mantonx/streamflow/internal/modules/adminmodule/core/repository"
	"github.com/mantonx/streamflow/internal/types"
)

// UserUpdate is the body of PUT /api/admin/users/:id. An empty vip_expiry
// makes VIP permanent.
type UserUpdate struct {
	FullName  *string `json:"full_name"`
	IsActive  *bool   `json:"is_active"`
	IsVIP     *bool   `json:"is_vip"`
	VIPExpiry *string `json:"vip_expiry"`
	Role      *string `json:"role"`
}

// UserService manages accounts on behalf of admins
type UserService struct {
	repo *repository.UserRepository
	log  hclog.Logger
	now  func() time.Time
}

// NewUserService creates a user service
func NewUserService(repo *repository.UserRepository, log hclog.Logger) *UserService {
	return &UserService{repo: repo, log: log, now: time.Now}
}

func (s *UserService) views(users []database.User) []*auth.UserView {
	now := s.now()
	out := make([]*auth.UserView, len(users))
	for i := range users {
		out[i] = auth.NewUserView(&users[i], now)
	}
	return out
}

// List returns one page of users
func (s *UserService) List(ctx context.Context, filter repository.UserFilter, page types.Pagination) (*types.Page[*auth.UserView], error) {
	if filter.Role != "" && !validRole(filter.Role) {
		return nil, types.NewValidationError("unknown role: " + filter.Role)
	}
	users, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &types.Page[*auth.UserView]{Items: s.views(users), Pagination: page.WithTotal(total)}, nil
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, id string) (*auth.UserView, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return auth.NewUserView(user, s.now()), nil
}

// Update changes a user's profile, status, VIP or role. Only super admins
// change roles or touch other super admins, and nobody demotes or disables
// themselves.
func (s *UserService) Update(ctx context.Context, viewer *auth.Viewer, actor types.Actor, id string, in UserUpdate) (*auth.UserView, error) {
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Role == database.RoleSuperAdmin && !viewer.IsSuperAdmin() {
		return nil, types.NewForbiddenError("only a super admin can modify a super admin")
	}

	updates := make(map[string]interface{})
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if len([]rune(name)) > 100 {
			return nil, types.NewValidationError("full_name must be at most 100 characters")
		}
		updates["full_name"] = name
	}
	if in.IsActive != nil {
		if !*in.IsActive && id == viewer.UserID {
			return nil, types.NewValidationError("you cannot deactivate your own account")
		}
		updates["is_active"] = *in.IsActive
	}
	if in.IsVIP != nil {
		updates["is_vip"] = *in.IsVIP
	}
	if in.VIPExpiry != nil {
		if raw := strings.TrimSpace(*in.VIPExpiry); raw == "" {
			updates["vip_expiry"] = nil
		} else {
			expiry, err := parseDate(raw)
			if err != nil {
				return nil, types.NewValidationError("vip_expiry must be a date (YYYY-MM-DD or RFC 3339)")
			}
			updates["vip_expiry"] = expiry
		}
	}
	if in.Role != nil && *in.Role != target.Role {
		if !viewer.IsSuperAdmin() {
			return nil, types.NewForbiddenError("only a super admin can change roles")
		}
		if !validRole(*in.Role) {
			return nil, types.NewValidationError("unknown role: " + *in.Role)
		}
		if id == viewer.UserID {
			return nil, types.NewValidationError("you cannot change your own role")
		}
		updates["role"] = *in.Role
	}

	user, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	if active, ok := updates["is_active"].(bool); ok && !active {
		if err := s.repo.RevokeTokens(ctx, id); err != nil {
			s.log.Warn("failed to sign out deactivated user", "user_id", id, "error", err)
		}
	}

	fields := make([]string, 0, len(updates))
	for col := range updates {
		fields = append(fields, col)
	}
	sort.Strings(fields)
	events.RecordAdminAction(ctx, actor, events.ActionUpdate, events.EntityUser, user.ID, user.Email,
		map[string]interface{}{"fields": fields})
	return auth.NewUserView(user, s.now()), nil
}

// Delete removes a user and everything they own. Admins cannot delete
// themselves and only super admins delete super admins.
func (s *UserService) Delete(ctx context.Context, viewer *auth.Viewer, actor types.Actor, id string) error {
	if id == viewer.UserID {
		return types.NewValidationError("you cannot delete your own account from the back-office")
	}
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if target.Role == database.RoleSuperAdmin && !viewer.IsSuperAdmin() {
		return types.NewForbiddenError("only a super admin can delete a super admin")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	events.Publish(ctx, events.NewUserEvent(events.EventUserDeleted, id, "User deleted", target.Email))
	events.RecordAdminAction(ctx, actor, events.ActionDelete, events.EntityUser, id, target.Email, nil)
	return nil
}

func validRole(role string) bool {
	switch role {
	case database.RoleUser, database.RoleAdmin, database.RoleSuperAdmin:
		return true
	}
	return false
}
