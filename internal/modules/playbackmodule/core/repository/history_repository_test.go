package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mantonx/streamflow/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedHistory(t *testing.T, db *gorm.DB, userID string, n int) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		require.NoError(t, db.Create(&database.WatchHistory{
			UserID:      userID,
			ContentType: database.ContentTypeFilm,
			ContentID:   fmt.Sprintf("film-%d", i),
			WatchedAt:   base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}
}

func TestPruneKeepsNewestEntries(t *testing.T) {
	db := database.NewTestDB(t)
	repo := NewHistoryRepository(db)
	ctx := context.Background()

	seedHistory(t, db, "u1", 5)
	seedHistory(t, db, "u2", 2)

	n, err := repo.Prune(ctx, "u1", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	entries, err := repo.ListHistory(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "film-4", entries[0].ContentID)
	assert.Equal(t, "film-2", entries[2].ContentID)

	others, err := repo.ListHistory(ctx, "u2", 10)
	require.NoError(t, err)
	assert.Len(t, others, 2)
}

func TestPruneHonorsCancellation(t *testing.T) {
	db := database.NewTestDB(t)
	repo := NewHistoryRepository(db)
	seedHistory(t, db, "u1", 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := repo.Prune(ctx, "u1", 1)
	assert.Error(t, err)

	entries, err := repo.ListHistory(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}
