package service

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/cache"
	"github.com/mantonx/streamflow/internal/database"
	catalogrepo "github.com/mantonx/streamflow/internal/modules/catalogmodule/core/repository"
	catalogservice "github.com/mantonx/streamflow/internal/modules/catalogmodule/service"
	"github.com/mantonx/streamflow/internal/modules/favoritesmodule/core/repository"
	"github.com/mantonx/streamflow/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var viewer = &auth.Viewer{UserID: "user-1", Role: database.RoleUser}

func newTestService(t *testing.T) (*FavoriteService, *gorm.DB) {
	t.Helper()
	db := database.NewTestDB(t)
	catalog := catalogservice.NewCatalogService(catalogrepo.NewCatalogRepository(db), cache.NewMemoryStore(), time.Hour, hclog.NewNullLogger())
	return NewFavoriteService(repository.NewFavoriteRepository(db), catalog, hclog.NewNullLogger()), db
}

type catalogFixture struct {
	film    database.Film
	draft   database.Film
	series  database.Series
	episode database.Episode
}

func seedCatalog(t *testing.T, db *gorm.DB) catalogFixture {
	t.Helper()
	f := catalogFixture{
		film:   database.Film{Title: "Heat", Published: true, VideoURL: "https://cdn.example.com/heat.mp4"},
		draft:  database.Film{Title: "Draft", VideoURL: "https://cdn.example.com/draft.mp4"},
		series: database.Series{Title: "Dark", Published: true, IsVIP: true},
	}
	require.NoError(t, db.Create(&f.film).Error)
	require.NoError(t, db.Create(&f.draft).Error)
	require.NoError(t, db.Create(&f.series).Error)

	season := database.Season{SeriesID: f.series.ID, SeasonNumber: 1}
	require.NoError(t, db.Create(&season).Error)
	f.episode = database.Episode{SeriesID: f.series.ID, SeasonID: season.ID, EpisodeNumber: 1, Title: "Pilot", Published: true}
	require.NoError(t, db.Create(&f.episode).Error)
	return f
}

func TestAddValidatesContent(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	f := seedCatalog(t, db)

	fav, err := svc.Add(ctx, viewer, AddRequest{ContentType: "film", ContentID: f.film.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, fav.ID)

	_, err = svc.Add(ctx, viewer, AddRequest{ContentType: "film", ContentID: f.film.ID})
	assert.True(t, types.IsCode(err, types.ErrorCodeConflict))

	_, err = svc.Add(ctx, viewer, AddRequest{ContentType: "film", ContentID: "missing"})
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))

	_, err = svc.Add(ctx, viewer, AddRequest{ContentType: "film", ContentID: f.draft.ID})
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))

	_, err = svc.Add(ctx, viewer, AddRequest{ContentType: "album", ContentID: f.film.ID})
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation))
}

func TestListMergesNewestFirst(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	f := seedCatalog(t, db)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, fav := range []database.Favorite{
		{UserID: viewer.UserID, ContentType: database.ContentTypeFilm, ContentID: f.film.ID},
		{UserID: viewer.UserID, ContentType: database.ContentTypeEpisode, ContentID: f.episode.ID},
		{UserID: viewer.UserID, ContentType: database.ContentTypeSeries, ContentID: f.series.ID},
		{UserID: viewer.UserID, ContentType: database.ContentTypeFilm, ContentID: "deleted-film"},
	} {
		fav.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, db.Create(&fav).Error)
	}

	items, err := svc.List(ctx, viewer, "")
	require.NoError(t, err)
	require.Len(t, items, 3)

	require.NotNil(t, items[0].Series)
	assert.True(t, items[0].Series.Locked)
	require.NotNil(t, items[1].Episode)
	assert.True(t, items[1].Episode.Locked, "episode inherits the series VIP flag")
	require.NotNil(t, items[2].Film)
	assert.Equal(t, "Heat", items[2].Film.Title)

	items, err = svc.List(ctx, viewer, "film")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, f.film.ID, items[0].Favorite.ContentID)

	_, err = svc.List(ctx, viewer, "album")
	assert.Error(t, err)
}

func TestRemoveAndIsFavorite(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	f := seedCatalog(t, db)

	_, err := svc.Add(ctx, viewer, AddRequest{ContentType: "series", ContentID: f.series.ID})
	require.NoError(t, err)

	ok, err := svc.IsFavorite(ctx, viewer, "series", f.series.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	other := &auth.Viewer{UserID: "user-2"}
	ok, err = svc.IsFavorite(ctx, other, "series", f.series.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Remove(ctx, viewer, "series", f.series.ID))
	err = svc.Remove(ctx, viewer, "series", f.series.ID)
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))
}
