package core

import (
	"testing"
	"time"

	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fav(ct database.ContentType, id string, at time.Time) database.Favorite {
	return database.Favorite{ID: "fav-" + id, UserID: "u1", ContentType: ct, ContentID: id, CreatedAt: at}
}

func TestMergePreservesOrderAndSkipsMissing(t *testing.T) {
	now := time.Now()
	favorites := []database.Favorite{
		fav(database.ContentTypeEpisode, "e1", now),
		fav(database.ContentTypeFilm, "gone", now.Add(-time.Minute)),
		fav(database.ContentTypeSeries, "s1", now.Add(-2*time.Minute)),
		fav(database.ContentTypeFilm, "f1", now.Add(-3*time.Minute)),
		fav(database.ContentTypeEpisode, "orphan", now.Add(-4*time.Minute)),
	}
	content := Content{
		Films:  map[string]*database.Film{"f1": {ID: "f1", Title: "Heat", IsVIP: true, Published: true}},
		Series: map[string]*database.Series{"s1": {ID: "s1", Title: "Dark", IsVIP: true, Published: true}},
		Episodes: map[string]*database.Episode{
			"e1":     {ID: "e1", SeriesID: "s1", Title: "Pilot", Published: true},
			"orphan": {ID: "orphan", SeriesID: "deleted"},
		},
	}

	items := Merge(favorites, content, &auth.Viewer{UserID: "u1"})
	require.Len(t, items, 3)

	require.NotNil(t, items[0].Episode)
	assert.Equal(t, "Pilot", items[0].Episode.Title)
	assert.True(t, items[0].Episode.Locked, "episodes of a VIP series are locked")

	require.NotNil(t, items[1].Series)
	assert.Nil(t, items[1].Film)
	assert.Equal(t, "Dark", items[1].Series.Title)

	require.NotNil(t, items[2].Film)
	assert.True(t, items[2].Film.Locked)
}

func TestMergeUnlocksForVIP(t *testing.T) {
	favorites := []database.Favorite{fav(database.ContentTypeFilm, "f1", time.Now())}
	content := Content{Films: map[string]*database.Film{"f1": {ID: "f1", IsVIP: true, Published: true}}}

	items := Merge(favorites, content, &auth.Viewer{UserID: "u1", IsVIP: true})
	require.Len(t, items, 1)
	assert.False(t, items[0].Film.Locked)
}

func TestMergeHidesDrafts(t *testing.T) {
	favorites := []database.Favorite{fav(database.ContentTypeFilm, "f1", time.Now())}
	content := Content{Films: map[string]*database.Film{"f1": {ID: "f1"}}}

	assert.Empty(t, Merge(favorites, content, &auth.Viewer{UserID: "u1"}))
	assert.Len(t, Merge(favorites, content, &auth.Viewer{UserID: "a1", Role: database.RoleAdmin}), 1)
}

func TestIDs(t *testing.T) {
	films, series, episodes := IDs([]database.Favorite{
		{ContentType: database.ContentTypeFilm, ContentID: "f1"},
		{ContentType: database.ContentTypeEpisode, ContentID: "e1"},
		{ContentType: database.ContentTypeFilm, ContentID: "f2"},
	})
	assert.Equal(t, []string{"f1", "f2"}, films)
	assert.Empty(t, series)
	assert.Equal(t, []string{"e1"}, episodes)
}
