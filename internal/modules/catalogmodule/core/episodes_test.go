package core

import (
	"testing"

	"github.com/mantonx/streamflow/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ep(id string, number int, published bool) database.Episode {
	return database.Episode{ID: id, EpisodeNumber: number, Published: published}
}

func testSeasons() []database.Season {
	return []database.Season{
		{SeasonNumber: 2, Episodes: []database.Episode{ep("s2e2", 2, true), ep("s2e1", 1, true)}},
		{SeasonNumber: 1, Episodes: []database.Episode{ep("s1e3", 3, true), ep("s1e1", 1, true), ep("s1e2", 2, false)}},
		{SeasonNumber: 3},
	}
}

func ids(episodes []database.Episode) []string {
	out := make([]string, len(episodes))
	for i, e := range episodes {
		out[i] = e.ID
	}
	return out
}

func TestPlaybackOrder(t *testing.T) {
	seasons := testSeasons()
	order := PlaybackOrder(seasons)

	assert.Equal(t, []string{"s1e1", "s1e3", "s2e1", "s2e2"}, ids(order))
	// The input is left untouched
	assert.Equal(t, 2, seasons[0].SeasonNumber)
	assert.Equal(t, "s2e2", seasons[0].Episodes[0].ID)
}

func TestNextEpisode(t *testing.T) {
	order := PlaybackOrder(testSeasons())

	tests := []struct {
		current string
		want    string
	}{
		{"s1e1", "s1e3"},
		{"s1e3", "s2e1"}, // crosses into the next season
		{"s2e2", ""},
		{"s1e2", ""}, // unpublished episodes are not in the order
		{"missing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.current, func(t *testing.T) {
			next := NextEpisode(order, tt.current)
			if tt.want == "" {
				assert.Nil(t, next)
				return
			}
			require.NotNil(t, next)
			assert.Equal(t, tt.want, next.ID)
		})
	}
}

func TestPreviousEpisode(t *testing.T) {
	order := PlaybackOrder(testSeasons())

	assert.Nil(t, PreviousEpisode(order, "s1e1"))
	assert.Nil(t, PreviousEpisode(order, "missing"))

	prev := PreviousEpisode(order, "s2e1")
	require.NotNil(t, prev)
	assert.Equal(t, "s1e3", prev.ID)
}

func TestSortSeasons(t *testing.T) {
	seasons := testSeasons()
	SortSeasons(seasons)

	assert.Equal(t, 1, seasons[0].SeasonNumber)
	assert.Equal(t, []string{"s1e1", "s1e2", "s1e3"}, ids(seasons[0].Episodes))
	assert.Equal(t, 3, seasons[2].SeasonNumber)
}

func TestNextEpisodeNumber(t *testing.T) {
	assert.Equal(t, 1, NextEpisodeNumber(nil))
	assert.Equal(t, 8, NextEpisodeNumber([]database.Episode{ep("a", 3, true), ep("b", 7, false), ep("c", 1, true)}))
}
