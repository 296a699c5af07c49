// Package core holds the catalog rules that do not touch the database
package core

import (
	"sort"

	"github.com/mantonx/streamflow/internal/database"
)

// SortEpisodes orders episodes by episode number in place
func SortEpisodes(episodes []database.Episode) {
	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].EpisodeNumber < episodes[j].EpisodeNumber
	})
}

// SortSeasons orders seasons by season number, and the episodes of each season
// by episode number, in place
func SortSeasons(seasons []database.Season) {
	sort.SliceStable(seasons, func(i, j int) bool {
		return seasons[i].SeasonNumber < seasons[j].SeasonNumber
	})
	for i := range seasons {
		SortEpisodes(seasons[i].Episodes)
	}
}

// PlaybackOrder flattens seasons into the order a series is watched in:
// season number first, then episode number. Unpublished episodes are skipped.
func PlaybackOrder(seasons []database.Season) []database.Episode {
	sorted := append([]database.Season(nil), seasons...)
	for i := range sorted {
		sorted[i].Episodes = append([]database.Episode(nil), sorted[i].Episodes...)
	}
	SortSeasons(sorted)

	var order []database.Episode
	for _, season := range sorted {
		for _, ep := range season.Episodes {
			if ep.Published {
				order = append(order, ep)
			}
		}
	}
	return order
}

// NextEpisode returns the episode after currentID in an ordered list. It
// returns nil when currentID is last or not in the list.
func NextEpisode(episodes []database.Episode, currentID string) *database.Episode {
	idx := indexOf(episodes, currentID)
	if idx == -1 || idx == len(episodes)-1 {
		return nil
	}
	next := episodes[idx+1]
	return &next
}

// PreviousEpisode returns the episode before currentID in an ordered list
func PreviousEpisode(episodes []database.Episode, currentID string) *database.Episode {
	idx := indexOf(episodes, currentID)
	if idx <= 0 {
		return nil
	}
	prev := episodes[idx-1]
	return &prev
}

// NextEpisodeNumber is one past the highest number in use, starting at 1
func NextEpisodeNumber(episodes []database.Episode) int {
	highest := 0
	for _, ep := range episodes {
		if ep.EpisodeNumber > highest {
			highest = ep.EpisodeNumber
		}
	}
	return highest + 1
}

func indexOf(episodes []database.Episode, id string) int {
	for i := range episodes {
		if episodes[i].ID == id {
			return i
		}
	}
	return -1
}
