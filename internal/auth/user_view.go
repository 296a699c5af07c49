package auth

import (
	"time"

	"github.com/mantonx/streamflow/internal/database"
)

// UserView is the public representation of a user. IsVIP is the effective
// VIP state, not the stored flag.
type UserView struct {
	*database.User
	IsVIP bool `json:"is_vip"`
}

// NewUserView builds the public representation of user at now
func NewUserView(user *database.User, now time.Time) *UserView {
	return &UserView{User: user, IsVIP: user.HasActiveVIP(now)}
}
