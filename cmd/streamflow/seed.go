package main

import (
	"context"
	"fmt"

	"github.com/mantonx/streamflow/internal/database"
	"gorm.io/gorm"
)

const sampleBucket = "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/"

type seedResult struct {
	Films    int
	Series   int
	Episodes int
	Skipped  int
}

var demoFilms = []database.Film{
	{
		Title:       "Big Buck Bunny",
		Description: "A giant rabbit takes revenge on three bullying rodents.",
		VideoURL:    sampleBucket + "BigBuckBunny.mp4",
		Genres:      database.GenreList{"Animation", "Comédie"},
		Year:        2008,
		Duration:    10,
		Director:    "Sacha Goedegebure",
		VoteAverage: 6.5,
	},
	{
		Title:       "Sintel",
		Description: "A lonely girl searches for the baby dragon she once rescued.",
		VideoURL:    sampleBucket + "Sintel.mp4",
		Genres:      database.GenreList{"Animation", "Fantastique", "Aventure"},
		Year:        2010,
		Duration:    15,
		Director:    "Colin Levy",
		VoteAverage: 7.1,
	},
	{
		Title:       "Tears of Steel",
		Description: "Warriors and scientists try to save the world from destructive robots.",
		VideoURL:    sampleBucket + "TearsOfSteel.mp4",
		Genres:      database.GenreList{"Science-Fiction", "Action"},
		Year:        2012,
		Duration:    12,
		Director:    "Ian Hubert",
		VoteAverage: 6.2,
		IsVIP:       true,
	},
}

var demoEpisodes = []string{
	"ElephantsDream.mp4",
	"ForBiggerBlazes.mp4",
	"ForBiggerEscapes.mp4",
	"ForBiggerFun.mp4",
	"ForBiggerJoyrides.mp4",
	"ForBiggerMeltdowns.mp4",
}

// seedCatalog inserts the demo films and one two-season series. Entries that
// already exist are skipped so the command can run repeatedly.
func seedCatalog(ctx context.Context, db *gorm.DB, publish bool) (seedResult, error) {
	var result seedResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, film := range demoFilms {
			var count int64
			if err := tx.Model(&database.Film{}).Where("video_url = ?", film.VideoURL).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check film: %w", err)
			}
			if count > 0 {
				result.Skipped++
				continue
			}
			film.Published = publish
			if err := tx.Create(&film).Error; err != nil {
				return fmt.Errorf("failed to seed film %q: %w", film.Title, err)
			}
			result.Films++
		}

		series := database.Series{
			Title:       "Open Movie Shorts",
			Description: "Short films from the open movie projects.",
			Genres:      database.GenreList{"Animation", "Court métrage"},
			StartYear:   2006,
			Creator:     "Blender Foundation",
			Published:   publish,
		}
		var existing int64
		if err := tx.Model(&database.Series{}).Where("title = ?", series.Title).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check series: %w", err)
		}
		if existing > 0 {
			result.Skipped++
			return nil
		}
		if err := tx.Create(&series).Error; err != nil {
			return fmt.Errorf("failed to seed series: %w", err)
		}
		result.Series++

		perSeason := len(demoEpisodes) / 2
		for s := 1; s <= 2; s++ {
			season := database.Season{
				SeriesID:     series.ID,
				SeasonNumber: s,
				Title:        fmt.Sprintf("Saison %d", s),
				EpisodeCount: perSeason,
			}
			if err := tx.Create(&season).Error; err != nil {
				return fmt.Errorf("failed to seed season %d: %w", s, err)
			}
			for n := 1; n <= perSeason; n++ {
				episode := database.Episode{
					SeriesID:      series.ID,
					SeasonID:      season.ID,
					EpisodeNumber: n,
					Title:         fmt.Sprintf("Épisode %d", n),
					Runtime:       10,
					VideoURL:      sampleBucket + demoEpisodes[(s-1)*perSeason+n-1],
					Published:     publish,
				}
				if err := tx.Create(&episode).Error; err != nil {
					return fmt.Errorf("failed to seed episode S%dE%d: %w", s, n, err)
				}
				result.Episodes++
			}
		}
		return nil
	})
	return result, err
}
