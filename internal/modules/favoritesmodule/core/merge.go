// Package core holds the favorites merge, independent of storage
package core

import (
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/database"
	catalogtypes "github.com/mantonx/streamflow/internal/modules/catalogmodule/types"
)

// Item is one favorite resolved to its content. Exactly one of Film, Series
// or Episode is set.
type Item struct {
	Favorite database.Favorite         `json:"favorite"`
	Film     *catalogtypes.FilmView    `json:"film,omitempty"`
	Series   *catalogtypes.SeriesView  `json:"series,omitempty"`
	Episode  *catalogtypes.EpisodeView `json:"episode,omitempty"`
}

// Content is everything the favorites of one listing point at, keyed by id
type Content struct {
	Films    map[string]*database.Film
	Series   map[string]*database.Series
	Episodes map[string]*database.Episode
}

// Merge resolves favorites in the order given. Favorites whose content is
// gone are dropped, as are episodes whose series is gone. Unpublished content
// is only listed for admins.
func Merge(favorites []database.Favorite, content Content, viewer *auth.Viewer) []Item {
	items := make([]Item, 0, len(favorites))
	for _, fav := range favorites {
		item := Item{Favorite: fav}
		switch fav.ContentType {
		case database.ContentTypeFilm:
			film, ok := content.Films[fav.ContentID]
			if !ok || !visible(film.Published, viewer) {
				continue
			}
			view := catalogtypes.NewFilmView(*film, viewer)
			item.Film = &view

		case database.ContentTypeSeries:
			series, ok := content.Series[fav.ContentID]
			if !ok || !visible(series.Published, viewer) {
				continue
			}
			view := catalogtypes.NewSeriesView(*series, viewer)
			item.Series = &view

		case database.ContentTypeEpisode:
			episode, ok := content.Episodes[fav.ContentID]
			if !ok {
				continue
			}
			series, ok := content.Series[episode.SeriesID]
			if !ok || !visible(episode.Published && series.Published, viewer) {
				continue
			}
			view := catalogtypes.NewEpisodeView(*episode, series.IsVIP, viewer)
			item.Episode = &view

		default:
			continue
		}
		items = append(items, item)
	}
	return items
}

func visible(published bool, viewer *auth.Viewer) bool {
	return published || viewer.IsAdmin()
}

// IDs splits favorites by content type
func IDs(favorites []database.Favorite) (films, series, episodes []string) {
	for _, fav := range favorites {
		switch fav.ContentType {
		case database.ContentTypeFilm:
			films = append(films, fav.ContentID)
		case database.ContentTypeSeries:
			series = append(series, fav.ContentID)
		case database.ContentTypeEpisode:
			episodes = append(episodes, fav.ContentID)
		}
	}
	return films, series, episodes
}
