// Package filters turns catalog filters into gorm queries
package filters

import (
	"strings"

	"github.com/mantonx/streamflow/internal/database"
	catalogtypes "github.com/mantonx/streamflow/internal/modules/catalogmodule/types"
	"gorm.io/gorm"
)

// Table describes the columns that differ between films and series
type Table struct {
	YearColumn string
}

var (
	// Films is the films table
	Films = Table{YearColumn: "year"}
	// Series is the series table
	Series = Table{YearColumn: "start_year"}
)

// ApplyFilter applies filter criteria and sorting to query. Pagination is left to the caller.
func ApplyFilter(query *gorm.DB, table Table, filter catalogtypes.CatalogFilter) *gorm.DB {
	query = applyVisibility(query, filter)
	query = applyBasicFilters(query, table, filter)
	return applySorting(query, table, filter.Sort)
}

// applyVisibility hides unpublished rows from non-admins
func applyVisibility(query *gorm.DB, filter catalogtypes.CatalogFilter) *gorm.DB {
	if !filter.IncludeUnpublished {
		query = query.Where("published = ?", true)
	}
	if filter.VIP != nil {
		query = query.Where("is_vip = ?", *filter.VIP)
	}
	return query
}

// applyBasicFilters applies genre, year and title search
func applyBasicFilters(query *gorm.DB, table Table, filter catalogtypes.CatalogFilter) *gorm.DB {
	if filter.Genre != "" {
		query = query.Where("genres LIKE ?", database.GenrePattern(filter.Genre))
	}

	if filter.Year > 0 {
		query = query.Where(table.YearColumn+" = ?", filter.Year)
	}

	if filter.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		query = query.Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(original_title) LIKE ? ESCAPE '\\')", pattern, pattern)
	}

	return query
}

// applySorting applies the sort order, with id as a stable tie-breaker
func applySorting(query *gorm.DB, table Table, sort string) *gorm.DB {
	switch sort {
	case catalogtypes.SortRecent:
		query = query.Order("created_at DESC")
	case catalogtypes.SortTitle:
		query = query.Order("title ASC")
	case catalogtypes.SortRating:
		query = query.Order("vote_average DESC")
	case catalogtypes.SortYear:
		query = query.Order(table.YearColumn + " DESC")
	default:
		query = query.Order("popularity DESC")
	}
	return query.Order("id ASC")
}

func escapeLike(s string) string {
	return strings.NewReplacer("\\", "\\\\", "%", "\\%", "_", "\\_").Replace(s)
}
