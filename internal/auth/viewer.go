package auth

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/types"
)

const viewerKey = "auth_viewer"

// Viewer is the authenticated caller of a request
type Viewer struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	IsVIP  bool   `json:"is_vip"`
}

// NewViewer builds a viewer from a user row, resolving effective VIP at now
func NewViewer(user *database.User, now time.Time) *Viewer {
	return &Viewer{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.DisplayName(),
		Role:   user.Role,
		IsVIP:  user.HasActiveVIP(now),
	}
}

// IsAdmin reports whether the viewer may use the back-office
func (v *Viewer) IsAdmin() bool {
	return v != nil && (v.Role == database.RoleAdmin || v.Role == database.RoleSuperAdmin)
}

// IsSuperAdmin reports whether the viewer may change roles
func (v *Viewer) IsSuperAdmin() bool {
	return v != nil && v.Role == database.RoleSuperAdmin
}

// CanSeeVIP reports whether VIP content is unlocked for the viewer.
// Admins always see everything.
func (v *Viewer) CanSeeVIP() bool {
	return v != nil && (v.IsVIP || v.IsAdmin())
}

// ViewerFromContext returns the request's viewer, or nil for anonymous requests
func ViewerFromContext(c *gin.Context) *Viewer {
	if v, ok := c.Get(viewerKey); ok {
		if viewer, ok := v.(*Viewer); ok {
			return viewer
		}
	}
	return nil
}

// SetViewer attaches viewer to the request
func SetViewer(c *gin.Context, viewer *Viewer) {
	c.Set(viewerKey, viewer)
}

// ActorFromContext describes the request's viewer for audit entries
func ActorFromContext(c *gin.Context) types.Actor {
	actor := types.Actor{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
	if v := ViewerFromContext(c); v != nil {
		actor.UserID = v.UserID
		actor.Name = v.Name
	}
	return actor
}
