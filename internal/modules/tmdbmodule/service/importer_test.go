package service

import (
	"context"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/database"
	adminrepo "github.com/mantonx/streamflow/internal/modules/adminmodule/core/repository"
	adminservice "github.com/mantonx/streamflow/internal/modules/adminmodule/service"
	"github.com/mantonx/streamflow/internal/modules/tmdbmodule/client"
	"github.com/mantonx/streamflow/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSource struct {
	movies   map[int]*client.MovieDetails
	shows    map[int]*client.TVDetails
	seasons  map[int]*client.SeasonDetails
	episodes map[int]*client.EpisodeDetails
}

func (f *fakeSource) ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return "https://img.test/" + size + path
}

func (f *fakeSource) GetMovie(ctx context.Context, id int, appendToResponse string) (*client.MovieDetails, error) {
	if m, ok := f.movies[id]; ok {
		return m, nil
	}
	return nil, types.NewAppError(types.ErrorCodeUpstream, "TMDB: not found", 404)
}

func (f *fakeSource) GetTV(ctx context.Context, id int) (*client.TVDetails, error) {
	return f.shows[id], nil
}

func (f *fakeSource) GetSeason(ctx context.Context, seriesID, season int) (*client.SeasonDetails, error) {
	return f.seasons[season], nil
}

func (f *fakeSource) GetEpisode(ctx context.Context, seriesID, season, episode int) (*client.EpisodeDetails, error) {
	return f.episodes[episode], nil
}

type dbSeries struct{ db *gorm.DB }

func (d dbSeries) SeriesByIDs(ctx context.Context, ids []string) (map[string]*database.Series, error) {
	var list []database.Series
	if err := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	out := make(map[string]*database.Series, len(list))
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out, nil
}

var actor = types.Actor{UserID: "admin-1", Name: "Admin"}

func newImporter(t *testing.T) (*Importer, *gorm.DB) {
	t.Helper()
	db := database.NewTestDB(t)
	source := &fakeSource{
		movies: map[int]*client.MovieDetails{
			949: {
				ID: 949, Title: "Heat", OriginalTitle: "Heat", Overview: "A heist.", ReleaseDate: "1995-12-15",
				Runtime: 170, PosterPath: "/p.jpg", BackdropPath: "/b.jpg",
				Genres:  []client.Genre{{Name: "Action"}, {Name: "Crime"}},
				Credits: &client.Credits{Crew: []client.CrewMember{{Name: "Michael Mann", Job: "Director"}}},
				Videos:  &client.Videos{Results: []client.Video{{Key: "k1", Site: "YouTube", Type: "Trailer", Official: true}}},
			},
		},
		shows: map[int]*client.TVDetails{
			70523: {
				ID: 70523, Name: "Dark", FirstAirDate: "2017-12-01", LastAirDate: "2020-06-27", Status: "Ended",
				CreatedBy: []client.Creator{{Name: "Baran bo Odar"}, {Name: "Jantje Friese"}},
				Seasons: []client.SeasonSummary{
					{ID: 1, SeasonNumber: 0, Name: "Specials"},
					{ID: 2, SeasonNumber: 1, Name: "Saison 1"},
					{ID: 3, SeasonNumber: 2, Name: "Saison 2"},
				},
			},
		},
		seasons: map[int]*client.SeasonDetails{
			3: {ID: 4, SeasonNumber: 3, Name: "Saison 3", Episodes: []client.EpisodeDetails{
				{ID: 10, EpisodeNumber: 1, Name: "Deja-vu", StillPath: "/s1.jpg"},
				{ID: 11, EpisodeNumber: 2, Name: "Les Survivants"},
			}},
		},
		episodes: map[int]*client.EpisodeDetails{
			1: {ID: 20, EpisodeNumber: 1, SeasonNumber: 1, Name: "Secrets", Runtime: 51},
		},
	}
	content := adminservice.NewContentService(adminrepo.NewContentRepository(db), hclog.NewNullLogger())
	return NewImporter(source, content, dbSeries{db}, hclog.NewNullLogger()), db
}

func TestImportMovie(t *testing.T) {
	imp, _ := newImporter(t)
	ctx := context.Background()

	_, err := imp.ImportMovie(ctx, actor, 949, MovieImport{})
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation))

	film, err := imp.ImportMovie(ctx, actor, 949, MovieImport{VideoURL: "https://cdn.example.com/heat.mp4"})
	require.NoError(t, err)
	assert.Equal(t, "Heat", film.Title)
	assert.False(t, film.Published)
	assert.Equal(t, 1995, film.Year)
	assert.Equal(t, 170, film.Duration)
	assert.Equal(t, "Michael Mann", film.Director)
	assert.Equal(t, "https://www.youtube.com/watch?v=k1", film.TrailerURL)
	assert.Equal(t, "https://img.test/w500/p.jpg", film.Poster)
	assert.Equal(t, "https://img.test/original/b.jpg", film.Backdrop)
	assert.ElementsMatch(t, []string{"action", "crime"}, []string(film.Genres))

	_, err = imp.ImportMovie(ctx, actor, 949, MovieImport{VideoURL: "https://cdn.example.com/heat-2.mp4"})
	assert.True(t, types.IsCode(err, types.ErrorCodeConflict))

	_, err = imp.ImportMovie(ctx, actor, 1, MovieImport{VideoURL: "x.mp4"})
	assert.True(t, types.IsCode(err, types.ErrorCodeUpstream))
}

func TestImportTVWithSeasonsThenSeasonAndEpisode(t *testing.T) {
	imp, db := newImporter(t)
	ctx := context.Background()

	result, err := imp.ImportTV(ctx, actor, 70523, TVImport{WithSeasons: true})
	require.NoError(t, err)
	series := result.Series
	assert.Equal(t, 2017, series.StartYear)
	assert.Equal(t, 2020, series.EndYear)
	assert.Equal(t, "Baran bo Odar, Jantje Friese", series.Creator)
	require.Len(t, result.Seasons, 2)
	assert.Equal(t, 1, result.Seasons[0].SeasonNumber)

	_, err = imp.ImportTV(ctx, actor, 70523, TVImport{})
	assert.True(t, types.IsCode(err, types.ErrorCodeConflict))

	seasonResult, err := imp.ImportSeason(ctx, actor, series.ID, 3, SeasonImport{WithEpisodes: true})
	require.NoError(t, err)
	require.Len(t, seasonResult.Episodes, 2)
	assert.Equal(t, "https://img.test/w300/s1.jpg", seasonResult.Episodes[0].Thumbnail)
	assert.Equal(t, series.ID, seasonResult.Episodes[0].SeriesID)

	_, err = imp.ImportSeason(ctx, actor, series.ID, 3, SeasonImport{})
	assert.True(t, types.IsCode(err, types.ErrorCodeConflict))

	episode, err := imp.ImportEpisode(ctx, actor, series.ID, 1, 1, EpisodeImport{VideoURL: "dark-1.mp4"})
	require.NoError(t, err)
	assert.Equal(t, "Secrets", episode.Title)
	assert.Equal(t, 51, episode.Runtime)

	_, err = imp.ImportEpisode(ctx, actor, series.ID, 1, 1, EpisodeImport{})
	assert.True(t, types.IsCode(err, types.ErrorCodeConflict))

	_, err = imp.ImportEpisode(ctx, actor, series.ID, 9, 1, EpisodeImport{})
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))

	var count int64
	require.NoError(t, db.Model(&database.Episode{}).Where("series_id = ?", series.ID).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestImportSeasonNeedsTMDBSeries(t *testing.T) {
	imp, db := newImporter(t)
	ctx := context.Background()

	manual := database.Series{Title: "Home made"}
	require.NoError(t, db.Create(&manual).Error)

	_, err := imp.ImportSeason(ctx, actor, manual.ID, 1, SeasonImport{})
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation))

	_, err = imp.ImportSeason(ctx, actor, "missing", 1, SeasonImport{})
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))
}
