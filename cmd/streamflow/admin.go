package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/database"
	"gorm.io/gorm"
)

type adminParams struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// createAdmin inserts an active admin, or promotes the account already using
// the email. It reports whether a new row was created.
func createAdmin(ctx context.Context, db *gorm.DB, hasher *auth.PasswordHasher, p adminParams) (*database.User, bool, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, false, errors.New("a valid email is required")
	}
	if p.Password != "" {
		if err := auth.ValidatePassword(p.Password); err != nil {
			return nil, false, err
		}
	}

	var user database.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{"role": p.Role, "is_active": true}
		if p.Password != "" {
			hash, err := hasher.Hash(p.Password)
			if err != nil {
				return nil, false, err
			}
			updates["password_hash"] = hash
		}
		if p.Name != "" {
			updates["full_name"] = p.Name
		}
		if err := db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return nil, false, fmt.Errorf("failed to promote user: %w", err)
		}
		return &user, false, nil
	case !database.IsNotFound(err):
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	if p.Password == "" {
		return nil, false, errors.New("password is required for a new account")
	}
	hash, err := hasher.Hash(p.Password)
	if err != nil {
		return nil, false, err
	}
	user = database.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     p.Name,
		Role:         p.Role,
		IsActive:     true,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create admin: %w", err)
	}
	return &user, true, nil
}
