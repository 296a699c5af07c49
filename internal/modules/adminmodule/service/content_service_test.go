package service

import (
	"context"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/modules/adminmodule/core/repository"
	catalogtypes "github.com/mantonx/streamflow/internal/modules/catalogmodule/types"
	"github.com/mantonx/streamflow/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var admin = types.Actor{UserID: "admin-1", Name: "Root", IP: "127.0.0.1"}

func ptr[T any](v T) *T { return &v }

func newContentService(t *testing.T) (*ContentService, *gorm.DB) {
	t.Helper()
	db := database.NewTestDB(t)
	return NewContentService(repository.NewContentRepository(db), hclog.NewNullLogger()), db
}

func TestAddFilmValidatesAndNormalizes(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	_, err := svc.AddFilm(ctx, admin, FilmInput{Title: ptr("Heat")})
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation))

	_, err = svc.AddFilm(ctx, admin, FilmInput{Title: ptr("  "), VideoURL: ptr("https://cdn/heat.mp4")})
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation))

	_, err = svc.AddFilm(ctx, admin, FilmInput{Title: ptr("Heat"), VideoURL: ptr("https://cdn/heat.mp4"), VoteAverage: ptr(11.0)})
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation))

	film, err := svc.AddFilm(ctx, admin, FilmInput{
		Title:       ptr(" Heat "),
		VideoURL:    ptr("https://cdn/heat.mp4"),
		Genres:      []string{"Action", "Policier"},
		ReleaseDate: ptr("1995-12-15"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Heat", film.Title)
	assert.Equal(t, 1995, film.Year)
	assert.False(t, film.Published)
	assert.Equal(t, "admin-1", film.CreatedBy)
	assert.Contains(t, []string(film.Genres), "action")
}

func TestDuplicateVideoURLIsConflict(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	first, err := svc.AddFilm(ctx, admin, FilmInput{Title: ptr("Heat"), VideoURL: ptr("https://cdn/heat.mp4")})
	require.NoError(t, err)
	_, err = svc.AddFilm(ctx, admin, FilmInput{Title: ptr("Heat 2"), VideoURL: ptr("https://cdn/heat.mp4")})
	assert.True(t, types.IsCode(err, types.ErrorCodeConflict))

	second, err := svc.AddFilm(ctx, admin, FilmInput{Title: ptr("Ronin"), VideoURL: ptr("https://cdn/ronin.mp4")})
	require.NoError(t, err)
	_, err = svc.UpdateFilm(ctx, admin, second.ID, FilmInput{VideoURL: ptr("https://cdn/heat.mp4")})
	assert.True(t, types.IsCode(err, types.ErrorCodeConflict))

	// Keeping its own url is not a conflict
	updated, err := svc.UpdateFilm(ctx, admin, first.ID, FilmInput{VideoURL: ptr("https://cdn/heat.mp4"), Director: ptr("Michael Mann")})
	require.NoError(t, err)
	assert.Equal(t, "Michael Mann", updated.Director)
}

func TestDuplicateTMDBFilmIsConflict(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	require.NoError(t, svc.CreateFilm(ctx, admin, &database.Film{Title: "Heat", VideoURL: "a.mp4", TMDBID: ptr(949)}))
	err := svc.CreateFilm(ctx, admin, &database.Film{Title: "Heat", VideoURL: "b.mp4", TMDBID: ptr(949)})
	assert.True(t, types.IsCode(err, types.ErrorCodeConflict))
}

func TestUpdateAndPublishFilm(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	film, err := svc.AddFilm(ctx, admin, FilmInput{Title: ptr("Heat"), VideoURL: ptr("heat.mp4"), IsVIP: ptr(true)})
	require.NoError(t, err)

	updated, err := svc.UpdateFilm(ctx, admin, film.ID, FilmInput{IsVIP: ptr(false), Duration: ptr(170)})
	require.NoError(t, err)
	assert.False(t, updated.IsVIP)
	assert.Equal(t, 170, updated.Duration)
	assert.Equal(t, "Heat", updated.Title)

	published, err := svc.PublishFilm(ctx, admin, film.ID, true)
	require.NoError(t, err)
	assert.True(t, published.Published)

	_, err = svc.PublishFilm(ctx, admin, "missing", true)
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))

	page, err := svc.ListFilms(ctx, catalogtypes.CatalogFilter{}, types.NewPagination(1, 20, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Pagination.Total)
}

func TestSeasonNumbersAreUniquePerSeries(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	series, err := svc.AddSeries(ctx, admin, SeriesInput{Title: ptr("Dark")})
	require.NoError(t, err)
	other, err := svc.AddSeries(ctx, admin, SeriesInput{Title: ptr("Lupin")})
	require.NoError(t, err)

	_, err = svc.AddSeason(ctx, admin, series.ID, SeasonInput{SeasonNumber: ptr(0)})
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation))
	_, err = svc.AddSeason(ctx, admin, series.ID, SeasonInput{})
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation))

	s1, err := svc.AddSeason(ctx, admin, series.ID, SeasonInput{SeasonNumber: ptr(1)})
	require.NoError(t, err)
	assert.Equal(t, "Saison 1", s1.Title)

	_, err = svc.AddSeason(ctx, admin, series.ID, SeasonInput{SeasonNumber: ptr(1)})
	assert.True(t, types.IsCode(err, types.ErrorCodeConflict))

	_, err = svc.AddSeason(ctx, admin, other.ID, SeasonInput{SeasonNumber: ptr(1)})
	assert.NoError(t, err)

	s2, err := svc.AddSeason(ctx, admin, series.ID, SeasonInput{SeasonNumber: ptr(2)})
	require.NoError(t, err)
	_, err = svc.UpdateSeason(ctx, admin, s2.ID, SeasonInput{SeasonNumber: ptr(1)})
	assert.True(t, types.IsCode(err, types.ErrorCodeConflict))

	_, err = svc.AddSeason(ctx, admin, "missing", SeasonInput{SeasonNumber: ptr(1)})
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))

	seasons, err := svc.ListSeasons(ctx, series.ID)
	require.NoError(t, err)
	assert.Len(t, seasons, 2)
}

func TestEpisodeNumbering(t *testing.T) {
	svc, db := newContentService(t)
	ctx := context.Background()

	series, err := svc.AddSeries(ctx, admin, SeriesInput{Title: ptr("Dark")})
	require.NoError(t, err)
	season, err := svc.AddSeason(ctx, admin, series.ID, SeasonInput{SeasonNumber: ptr(1)})
	require.NoError(t, err)

	next, err := svc.NextEpisodeNumber(ctx, season.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	e1, err := svc.AddEpisode(ctx, admin, season.ID, EpisodeInput{Title: ptr("Secrets")})
	require.NoError(t, err)
	assert.Equal(t, 1, e1.EpisodeNumber)
	assert.Equal(t, series.ID, e1.SeriesID)

	e5, err := svc.AddEpisode(ctx, admin, season.ID, EpisodeInput{EpisodeNumber: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, e5.EpisodeNumber)

	_, err = svc.AddEpisode(ctx, admin, season.ID, EpisodeInput{EpisodeNumber: ptr(5)})
	assert.True(t, types.IsCode(err, types.ErrorCodeConflict))

	e6, err := svc.AddEpisode(ctx, admin, season.ID, EpisodeInput{})
	require.NoError(t, err)
	assert.Equal(t, 6, e6.EpisodeNumber)

	_, err = svc.UpdateEpisode(ctx, admin, e6.ID, EpisodeInput{EpisodeNumber: ptr(1)})
	assert.True(t, types.IsCode(err, types.ErrorCodeConflict))

	episodes, err := svc.ListEpisodes(ctx, season.ID)
	require.NoError(t, err)
	require.Len(t, episodes, 3)
	assert.Equal(t, []int{1, 5, 6}, []int{episodes[0].EpisodeNumber, episodes[1].EpisodeNumber, episodes[2].EpisodeNumber})

	var stored database.Season
	require.NoError(t, db.First(&stored, "id = ?", season.ID).Error)
	assert.Equal(t, 3, stored.EpisodeCount)

	require.NoError(t, svc.DeleteEpisode(ctx, admin, e5.ID))
	require.NoError(t, db.First(&stored, "id = ?", season.ID).Error)
	assert.Equal(t, 2, stored.EpisodeCount)
}

func TestDeleteSeriesCascades(t *testing.T) {
	svc, db := newContentService(t)
	ctx := context.Background()

	series, err := svc.AddSeries(ctx, admin, SeriesInput{Title: ptr("Dark")})
	require.NoError(t, err)
	season, err := svc.AddSeason(ctx, admin, series.ID, SeasonInput{SeasonNumber: ptr(1)})
	require.NoError(t, err)
	episode, err := svc.AddEpisode(ctx, admin, season.ID, EpisodeInput{})
	require.NoError(t, err)

	require.NoError(t, db.Create(&database.Favorite{UserID: "u1", ContentType: database.ContentTypeEpisode, ContentID: episode.ID}).Error)
	require.NoError(t, db.Create(&database.Favorite{UserID: "u1", ContentType: database.ContentTypeSeries, ContentID: series.ID}).Error)
	require.NoError(t, db.Create(&database.WatchedEpisode{UserID: "u1", EpisodeID: episode.ID, SeriesID: series.ID}).Error)
	comment := database.Comment{UserID: "u1", ContentType: database.ContentTypeSeries, ContentID: series.ID, Text: "great", Rating: 5}
	require.NoError(t, db.Create(&comment).Error)
	require.NoError(t, db.Create(&database.CommentReport{CommentID: comment.ID, UserID: "u2"}).Error)

	require.NoError(t, svc.DeleteSeries(ctx, admin, series.ID))

	for _, model := range []interface{}{&database.Series{}, &database.Season{}, &database.Episode{}, &database.Favorite{},
		&database.WatchedEpisode{}, &database.Comment{}, &database.CommentReport{}} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T rows left", model)
	}

	assert.True(t, types.IsCode(svc.DeleteSeries(ctx, admin, series.ID), types.ErrorCodeNotFound))
}

func TestDeleteSeasonCascades(t *testing.T) {
	svc, db := newContentService(t)
	ctx := context.Background()

	series, err := svc.AddSeries(ctx, admin, SeriesInput{Title: ptr("Dark")})
	require.NoError(t, err)
	s1, err := svc.AddSeason(ctx, admin, series.ID, SeasonInput{SeasonNumber: ptr(1)})
	require.NoError(t, err)
	s2, err := svc.AddSeason(ctx, admin, series.ID, SeasonInput{SeasonNumber: ptr(2)})
	require.NoError(t, err)
	_, err = svc.AddEpisode(ctx, admin, s1.ID, EpisodeInput{})
	require.NoError(t, err)
	kept, err := svc.AddEpisode(ctx, admin, s2.ID, EpisodeInput{})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSeason(ctx, admin, s1.ID))

	var episodes []database.Episode
	require.NoError(t, db.Find(&episodes).Error)
	require.Len(t, episodes, 1)
	assert.Equal(t, kept.ID, episodes[0].ID)
}

func TestFindSeason(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	series, err := svc.AddSeries(ctx, admin, SeriesInput{Title: ptr("Dark")})
	require.NoError(t, err)
	_, err = svc.AddSeason(ctx, admin, series.ID, SeasonInput{SeasonNumber: ptr(3), Title: ptr("Final")})
	require.NoError(t, err)

	season, err := svc.FindSeason(ctx, series.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, "Final", season.Title)

	_, err = svc.FindSeason(ctx, series.ID, 4)
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))
}
