// Package client talks to The Movie Database API
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/cache"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/types"
	"golang.org/x/time/rate"
)

const (
	cacheNamespace = "tmdb"
	maxBodySize    = 4 << 20

	// DefaultMovieAppend is appended to movie lookups unless the caller asks otherwise
	DefaultMovieAppend = "credits,videos"
)

// Image sizes used by the importer
const (
	PosterSize   = "w500"
	BackdropSize = "original"
	StillSize    = "w300"
	ProfileSize  = "w185"
)

// Client is a throttled, cached TMDB client
type Client struct {
	baseURL   string
	imageBase string
	apiKey    string
	language  string
	http      *http.Client
	limiter   *rate.Limiter
	cache     cache.Store
	ttl       time.Duration
	log       hclog.Logger
}

// NewClient creates a client. A nil store disables caching.
func NewClient(cfg config.TMDBConfig, store cache.Store, log hclog.Logger) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 4
	}
	burst := int(math.Ceil(rps))

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		imageBase: strings.TrimRight(cfg.ImageBaseURL, "/"),
		apiKey:    cfg.APIKey,
		language:  cfg.Language,
		http:      &http.Client{Timeout: cfg.RequestTimeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		cache:     store,
		ttl:       cfg.CacheTTL,
		log:       log,
	}
}

// Configured reports whether an API key is set
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// ImageURL builds a TMDB image URL, or "" for an empty path
func (c *Client) ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.imageBase + "/" + size + path
}

// isBearerToken reports whether the key is a v4 read access token rather
// than a v3 api key
func isBearerToken(key string) bool {
	return len(key) > 100 && strings.HasPrefix(key, "eyJ")
}

// get fetches path into a value of type T, going through the cache
func get[T any](ctx context.Context, c *Client, path string, params url.Values) (*T, error) {
	if !c.Configured() {
		return nil, types.NewAppError(types.ErrorCodeUpstreamUnavailable, "TMDB is not configured", http.StatusServiceUnavailable).
			WithUserMessage("Set tmdb.api_key to enable TMDB imports.")
	}
	if params == nil {
		params = url.Values{}
	}
	if params.Get("language") == "" && c.language != "" {
		params.Set("language", c.language)
	}

	// Encode sorts keys, so equal requests share a cache entry
	key := path + "?" + params.Encode()
	load := func(ctx context.Context) (*T, error) {
		var out T
		if err := c.do(ctx, path, params, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}
	if c.cache == nil || c.ttl <= 0 {
		return load(ctx)
	}
	return cache.Remember(ctx, c.cache, cacheNamespace, key, c.ttl, load)
}

func (c *Client) do(ctx context.Context, path string, params url.Values, dst interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return types.NewAppErrorWithCause(types.ErrorCodeCancelled, "TMDB request cancelled", http.StatusServiceUnavailable, err)
	}

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if isBearerToken(c.apiKey) {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	} else {
		query.Set("api_key", c.apiKey)
	}
	req.URL.RawQuery = query.Encode()
	req.Header.Set("Accept", "application/json")

	c.log.Debug("tmdb request", "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return types.NewAppErrorWithCause(types.ErrorCodeUpstreamUnavailable, "TMDB is unreachable", http.StatusBadGateway, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return types.NewAppErrorWithCause(types.ErrorCodeUpstream, "failed to read TMDB response", http.StatusBadGateway, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		_ = json.Unmarshal(body, &apiErr)
		message := apiErr.StatusMessage
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		status := http.StatusBadGateway
		if resp.StatusCode == http.StatusNotFound {
			status = http.StatusNotFound
		}
		c.log.Warn("tmdb returned an error", "path", path, "status", resp.StatusCode, "message", message)
		return types.NewAppError(types.ErrorCodeUpstream, "TMDB: "+message, status).
			WithContext("upstream_status", resp.StatusCode)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return types.NewAppErrorWithCause(types.ErrorCodeUpstream, "TMDB sent an invalid response", http.StatusBadGateway, err)
	}
	return nil
}

func pageParam(page int) string {
	if page < 1 {
		page = 1
	}
	return strconv.Itoa(page)
}

// SearchMovies searches movies by title
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*SearchResponse, error) {
	return get[SearchResponse](ctx, c, "/search/movie", url.Values{
		"query":         {query},
		"page":          {pageParam(page)},
		"include_adult": {"false"},
	})
}

// SearchTV searches shows by name
func (c *Client) SearchTV(ctx context.Context, query string, page int) (*SearchResponse, error) {
	return get[SearchResponse](ctx, c, "/search/tv", url.Values{
		"query":         {query},
		"page":          {pageParam(page)},
		"include_adult": {"false"},
	})
}

// GetMovie loads a movie. An empty appendToResponse uses DefaultMovieAppend.
func (c *Client) GetMovie(ctx context.Context, id int, appendToResponse string) (*MovieDetails, error) {
	if appendToResponse == "" {
		appendToResponse = DefaultMovieAppend
	}
	return get[MovieDetails](ctx, c, fmt.Sprintf("/movie/%d", id), url.Values{"append_to_response": {appendToResponse}})
}

// GetMovieCredits loads a movie's cast and crew
func (c *Client) GetMovieCredits(ctx context.Context, id int) (*Credits, error) {
	return get[Credits](ctx, c, fmt.Sprintf("/movie/%d/credits", id), nil)
}

// GetTV loads a show with its season list and videos
func (c *Client) GetTV(ctx context.Context, id int) (*TVDetails, error) {
	return get[TVDetails](ctx, c, fmt.Sprintf("/tv/%d", id), url.Values{"append_to_response": {"videos"}})
}

// GetTVCredits loads a show's cast and crew
func (c *Client) GetTVCredits(ctx context.Context, id int) (*Credits, error) {
	return get[Credits](ctx, c, fmt.Sprintf("/tv/%d/credits", id), nil)
}

// GetSeason loads a season with its episodes
func (c *Client) GetSeason(ctx context.Context, seriesID, season int) (*SeasonDetails, error) {
	return get[SeasonDetails](ctx, c, fmt.Sprintf("/tv/%d/season/%d", seriesID, season), nil)
}

// GetEpisode loads one episode with its videos
func (c *Client) GetEpisode(ctx context.Context, seriesID, season, episode int) (*EpisodeDetails, error) {
	return get[EpisodeDetails](ctx, c, fmt.Sprintf("/tv/%d/season/%d/episode/%d", seriesID, season, episode),
		url.Values{"append_to_response": {"videos"}})
}
