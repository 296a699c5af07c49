package services

import (
	"context"

	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/types"
)

// Registered service names
const (
	AuthServiceName         = "auth"
	CatalogServiceName      = "catalog"
	ContentServiceName      = "content"
	SubscriptionServiceName = "subscriptions"
	ActivityServiceName     = "activity"
)

// AuthService exposes credentials handling to other modules
type AuthService interface {
	// Middleware returns the route guards every module mounts
	Middleware() *auth.Middleware

	// Hasher returns the password hasher configured for this instance
	Hasher() *auth.PasswordHasher

	// RevokeAllRefreshTokens signs a user out of every device
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

// CatalogService resolves catalog entries regardless of publication state.
// Callers apply visibility rules themselves.
type CatalogService interface {
	GetFilm(ctx context.Context, id string) (*database.Film, error)
	GetSeries(ctx context.Context, id string) (*database.Series, error)
	GetSeason(ctx context.Context, id string) (*database.Season, error)
	GetEpisode(ctx context.Context, id string) (*database.Episode, error)

	// Batch lookups keyed by id; missing ids are absent from the result
	FilmsByIDs(ctx context.Context, ids []string) (map[string]*database.Film, error)
	SeriesByIDs(ctx context.Context, ids []string) (map[string]*database.Series, error)
	EpisodesByIDs(ctx context.Context, ids []string) (map[string]*database.Episode, error)

	// NextEpisode returns the published episode following current, or nil at the end
	NextEpisode(ctx context.Context, current *database.Episode) (*database.Episode, error)
}

// ContentService creates catalog entries on behalf of an admin. Every call is
// recorded in the activity log.
type ContentService interface {
	CreateFilm(ctx context.Context, actor types.Actor, film *database.Film) error
	CreateSeries(ctx context.Context, actor types.Actor, series *database.Series) error
	CreateSeason(ctx context.Context, actor types.Actor, season *database.Season) error

	// CreateEpisode assigns the next free number when EpisodeNumber is zero
	CreateEpisode(ctx context.Context, actor types.Actor, episode *database.Episode) error

	// FindSeason returns a series' season by number
	FindSeason(ctx context.Context, seriesID string, number int) (*database.Season, error)
}

// SubscriptionService exposes billing state
type SubscriptionService interface {
	// CurrentSubscription returns the user's latest subscription, or nil when there is none
	CurrentSubscription(ctx context.Context, userID string) (*database.Subscription, error)
}

// ActivityService writes admin audit entries
type ActivityService interface {
	Record(ctx context.Context, entry *database.ActivityLog) error
}
