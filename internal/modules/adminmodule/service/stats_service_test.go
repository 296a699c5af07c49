package service

import (
	"context"
	"testing"
	"time"

	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/modules/adminmodule/core/hoststats"
	"github.com/mantonx/streamflow/internal/modules/adminmodule/core/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	db := database.NewTestDB(t)
	ctx := context.Background()
	future := time.Now().Add(24 * time.Hour)

	require.NoError(t, db.Create(&database.User{Email: "a@example.com", PasswordHash: "x", IsActive: true, IsVIP: true, VIPExpiry: &future}).Error)
	require.NoError(t, db.Create(&database.User{Email: "b@example.com", PasswordHash: "x", IsActive: true}).Error)
	require.NoError(t, db.Model(&database.User{}).Where("email = ?", "b@example.com").Update("is_active", false).Error)

	require.NoError(t, db.Create(&database.Film{Title: "Heat", VideoURL: "1", Published: true, Genres: database.GenreList{"crime", "thriller"}}).Error)
	require.NoError(t, db.Create(&database.Film{Title: "Ronin", VideoURL: "2", Genres: database.GenreList{"action", "thriller"}}).Error)
	require.NoError(t, db.Create(&database.Series{Title: "Dark", Published: true, Genres: database.GenreList{"mystery", "thriller"}}).Error)
	require.NoError(t, db.Create(&database.WatchHistory{UserID: "u", ContentType: database.ContentTypeFilm, ContentID: "f"}).Error)

	svc := NewStatsService(repository.NewStatsRepository(db))
	svc.collect = func(context.Context) hoststats.Snapshot { return hoststats.Snapshot{CPUPercent: 12.5} }

	dash, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), dash.Totals.Users)
	assert.Equal(t, int64(1), dash.Totals.ActiveUsers)
	assert.Equal(t, int64(1), dash.Totals.VIPUsers)
	assert.Equal(t, int64(2), dash.Totals.Films)
	assert.Equal(t, int64(1), dash.Totals.PublishedFilms)
	assert.Equal(t, int64(1), dash.Totals.Series)
	assert.Equal(t, int64(1), dash.Totals.Views)
	assert.Equal(t, 12.5, dash.System.CPUPercent)

	require.NotEmpty(t, dash.TopGenres)
	assert.Equal(t, "thriller", dash.TopGenres[0].Slug)
	assert.Equal(t, 3, dash.TopGenres[0].Count)
}

func TestTopGenresLimitsAndBreaksTies(t *testing.T) {
	lists := []database.GenreList{{"b", "a"}, {"c"}, {"d"}, {"e"}, {"f"}, {"a"}}
	top := topGenres(lists, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "a", top[0].Slug)
	assert.Equal(t, "b", top[1].Slug)
	assert.Equal(t, "c", top[2].Slug)
}
