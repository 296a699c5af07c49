package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/cache"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(config.TMDBConfig{
		APIKey:            "test-key",
		BaseURL:           srv.URL,
		ImageBaseURL:      "https://image.tmdb.org/t/p",
		Language:          "fr-FR",
		RequestTimeout:    time.Second,
		RequestsPerSecond: 100,
		CacheTTL:          time.Hour,
	}, cache.NewMemoryStore(), hclog.NewNullLogger())
	return c, &hits
}

func TestSearchMoviesSendsKeyAndCaches(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "fr-FR", r.URL.Query().Get("language"))
		assert.Equal(t, "false", r.URL.Query().Get("include_adult"))
		assert.Equal(t, "heat", r.URL.Query().Get("query"))
		w.Write([]byte(`{"page":1,"total_results":1,"total_pages":1,"results":[{"id":949,"title":"Heat","release_date":"1995-12-15"}]}`))
	})

	ctx := context.Background()
	res, err := c.SearchMovies(ctx, "heat", 0)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, 949, res.Results[0].ID)

	_, err = c.SearchMovies(ctx, "heat", 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestGetMovieAppendsCreditsAndVideos(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/949", r.URL.Path)
		assert.Equal(t, DefaultMovieAppend, r.URL.Query().Get("append_to_response"))
		w.Write([]byte(`{"id":949,"title":"Heat","credits":{"crew":[{"name":"Michael Mann","job":"Director"},{"name":"Art Linson","job":"Producer"}]},
			"videos":{"results":[{"key":"abc","site":"YouTube","type":"Teaser"},{"key":"def","site":"YouTube","type":"Trailer"}]}}`))
	})

	movie, err := c.GetMovie(context.Background(), 949, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Michael Mann"}, movie.Credits.Directors())
	assert.Equal(t, "https://www.youtube.com/watch?v=def", movie.Videos.TrailerURL())
}

func TestUpstreamErrorCarriesStatusMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found."}`))
	})

	_, err := c.GetTV(context.Background(), 1)
	appErr, ok := types.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrorCodeUpstream, appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
	assert.Contains(t, appErr.Message, "could not be found")
}

func TestServerErrorIsBadGateway(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.GetSeason(context.Background(), 1, 1)
	appErr, ok := types.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus)

	// Failures are not cached
	_, _ = c.GetSeason(context.Background(), 1, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestUnconfiguredClient(t *testing.T) {
	c := NewClient(config.TMDBConfig{BaseURL: "http://127.0.0.1:1"}, nil, hclog.NewNullLogger())
	assert.False(t, c.Configured())

	_, err := c.SearchTV(context.Background(), "dark", 1)
	assert.True(t, types.IsCode(err, types.ErrorCodeUpstreamUnavailable))
}

func TestImageURL(t *testing.T) {
	c := NewClient(config.TMDBConfig{ImageBaseURL: "https://image.tmdb.org/t/p/"}, nil, hclog.NewNullLogger())
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", c.ImageURL("/abc.jpg", PosterSize))
	assert.Equal(t, "", c.ImageURL("", PosterSize))
}

func TestBearerTokenDetection(t *testing.T) {
	assert.False(t, isBearerToken("0123456789abcdef"))
	long := "eyJ" + string(make([]byte, 120))
	assert.True(t, isBearerToken(long))
}
