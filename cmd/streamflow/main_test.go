package main

import (
	"context"
	"testing"

	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAdmin(t *testing.T) {
	db := database.NewTestDB(t)
	ctx := context.Background()
	hasher := auth.NewPasswordHasher(4)

	_, _, err := createAdmin(ctx, db, hasher, adminParams{Email: "root@example.com", Role: database.RoleAdmin})
	assert.Error(t, err, "new accounts need a password")

	_, _, err = createAdmin(ctx, db, hasher, adminParams{Email: "root@example.com", Password: "short", Role: database.RoleAdmin})
	assert.Error(t, err)

	user, created, err := createAdmin(ctx, db, hasher, adminParams{Email: " Root@Example.com ", Password: "correct horse", Name: "Root", Role: database.RoleSuperAdmin})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "root@example.com", user.Email)
	assert.NoError(t, hasher.Compare(user.PasswordHash, "correct horse"))

	member := database.User{Email: "member@example.com", PasswordHash: "x", Role: database.RoleUser, IsActive: false}
	require.NoError(t, db.Create(&member).Error)

	_, created, err = createAdmin(ctx, db, hasher, adminParams{Email: "member@example.com", Role: database.RoleAdmin})
	require.NoError(t, err)
	assert.False(t, created)

	var promoted database.User
	require.NoError(t, db.Where("email = ?", "member@example.com").First(&promoted).Error)
	assert.Equal(t, database.RoleAdmin, promoted.Role)
	assert.True(t, promoted.IsActive)
	assert.Equal(t, "x", promoted.PasswordHash, "password is kept when none is given")
}

func TestSeedCatalogIsRepeatable(t *testing.T) {
	db := database.NewTestDB(t)
	ctx := context.Background()

	result, err := seedCatalog(ctx, db, true)
	require.NoError(t, err)
	assert.Equal(t, seedResult{Films: 3, Series: 1, Episodes: 6}, result)

	var published int64
	db.Model(&database.Episode{}).Where("published = ?", true).Count(&published)
	assert.EqualValues(t, 6, published)

	result, err = seedCatalog(ctx, db, true)
	require.NoError(t, err)
	assert.Equal(t, seedResult{Skipped: 4}, result)
}
