package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mantonx/streamflow/internal/database"
	"gorm.io/gorm"
)

// Counts are the dashboard totals
type Counts struct {
	Users           int64 `json:"users"`
	ActiveUsers     int64 `json:"active_users"`
	VIPUsers        int64 `json:"vip_users"`
	Films           int64 `json:"films"`
	PublishedFilms  int64 `json:"published_films"`
	Series          int64 `json:"series"`
	PublishedSeries int64 `json:"published_series"`
	Episodes        int64 `json:"episodes"`
	Comments        int64 `json:"comments"`
	Views           int64 `json:"views"`
}

// StatsRepository computes dashboard counters
type StatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Counts returns every dashboard total as of now
func (r *StatsRepository) Counts(ctx context.Context, now time.Time) (*Counts, error) {
	db := r.db.WithContext(ctx)
	counts := &Counts{}

	queries := []struct {
		target *int64
		query  *gorm.DB
	}{
		{&counts.Users, db.Model(&database.User{})},
		{&counts.ActiveUsers, db.Model(&database.User{}).Where("is_active = ?", true)},
		{&counts.VIPUsers, db.Model(&database.User{}).Where("is_vip = ? AND (vip_expiry IS NULL OR vip_expiry > ?)", true, now)},
		{&counts.Films, db.Model(&database.Film{})},
		{&counts.PublishedFilms, db.Model(&database.Film{}).Where("published = ?", true)},
		{&counts.Series, db.Model(&database.Series{})},
		{&counts.PublishedSeries, db.Model(&database.Series{}).Where("published = ?", true)},
		{&counts.Episodes, db.Model(&database.Episode{})},
		{&counts.Comments, db.Model(&database.Comment{})},
		{&counts.Views, db.Model(&database.WatchHistory{})},
	}
	for _, q := range queries {
		if err := q.query.Count(q.target).Error; err != nil {
			return nil, fmt.Errorf("failed to compute dashboard counts: %w", err)
		}
	}
	return counts, nil
}

// Genres returns the genre lists of every film and series
func (r *StatsRepository) Genres(ctx context.Context) ([]database.GenreList, error) {
	var films, series []database.GenreList
	if err := r.db.WithContext(ctx).Model(&database.Film{}).Pluck("genres", &films).Error; err != nil {
		return nil, fmt.Errorf("failed to load film genres: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&database.Series{}).Pluck("genres", &series).Error; err != nil {
		return nil, fmt.Errorf("failed to load series genres: %w", err)
	}
	return append(films, series...), nil
}
