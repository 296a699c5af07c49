// Package types holds the catalog query and response shapes
package types

import (
	"strconv"
	"strings"

	"github.com/mantonx/streamflow/internal/genres"
)

// Sort orders
const (
	SortPopularity = "popularity"
	SortRecent     = "recent"
	SortTitle      = "title"
	SortRating     = "rating"
	SortYear       = "year"
)

// CatalogFilter narrows a film or series listing
type CatalogFilter struct {
	Genre  string `json:"genre,omitempty"` // Canonical slug
	Year   int    `json:"year,omitempty"`
	Search string `json:"search,omitempty"`
	VIP    *bool  `json:"vip,omitempty"`
	Sort   string `json:"sort,omitempty"`

	// IncludeUnpublished is set for admin viewers only
	IncludeUnpublished bool `json:"-"`
}

// ParseFilter reads a filter from query string values. Unknown sort orders
// fall back to popularity; a genre is normalized to its canonical slug.
func ParseFilter(get func(string) string) CatalogFilter {
	f := CatalogFilter{
		Search: strings.TrimSpace(get("search")),
		Sort:   SortPopularity,
	}

	if g := get("genre"); g != "" {
		if genre, _ := genres.Normalize(g); genre.Slug != "" {
			f.Genre = genre.Slug
		}
	}
	if y, err := strconv.Atoi(get("year")); err == nil && y > 0 {
		f.Year = y
	}
	if v, err := strconv.ParseBool(get("vip")); err == nil {
		f.VIP = &v
	}

	switch s := strings.ToLower(get("sort")); s {
	case SortRecent, SortTitle, SortRating, SortYear:
		f.Sort = s
	}
	return f
}
