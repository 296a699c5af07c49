package service

import (
	"context"
	"sort"
	"time"

	"github.com/mantonx/streamflow/internal/genres"
	"github.com/mantonx/streamflow/internal/modules/adminmodule/core/hoststats"
	"github.com/mantonx/streamflow/internal/modules/adminmodule/core/repository"
)

const topGenreCount = 5

// GenreStat is one entry of the top genres ranking
type GenreStat struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Dashboard is the response of GET /api/admin/stats
type Dashboard struct {
	Totals      *repository.Counts `json:"totals"`
	TopGenres   []GenreStat        `json:"top_genres"`
	System      hoststats.Snapshot `json:"system"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// StatsService builds the admin dashboard
type StatsService struct {
	repo    *repository.StatsRepository
	collect func(context.Context) hoststats.Snapshot
	now     func() time.Time
}

// NewStatsService creates a stats service
func NewStatsService(repo *repository.StatsRepository) *StatsService {
	return &StatsService{repo: repo, collect: hoststats.Collect, now: time.Now}
}

// Dashboard gathers catalog and user totals, the most used genres and host load
func (s *StatsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now()
	counts, err := s.repo.Counts(ctx, now)
	if err != nil {
		return nil, err
	}
	lists, err := s.repo.Genres(ctx)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Totals:      counts,
		TopGenres:   topGenres(lists, topGenreCount),
		System:      s.collect(ctx),
		GeneratedAt: now,
	}, nil
}

// topGenres ranks genres by usage across films and series, ties broken by slug
func topGenres[L ~[]string](lists []L, n int) []GenreStat {
	counts := make(map[string]int)
	for _, list := range lists {
		for _, slug := range list {
			counts[slug]++
		}
	}

	out := make([]GenreStat, 0, len(counts))
	for slug, count := range counts {
		out = append(out, GenreStat{Slug: slug, Label: genres.Label(slug), Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Slug < out[j].Slug
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
