package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	catalogtypes "github.com/mantonx/streamflow/internal/modules/catalogmodule/types"
	"github.com/mantonx/streamflow/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newMockDb creates a GORM DB instance backed by go-sqlmock
func newMockDb(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db, mock
}

func TestGetFilm(t *testing.T) {
	db, mock := newMockDb(t)
	repo := NewCatalogRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title", "genres", "published"}).
		AddRow("film-1", "Heat", ",crime,thriller,", true)
	mock.ExpectQuery(`SELECT \* FROM "films" WHERE id = \$1 ORDER BY "films"."id" LIMIT \$2`).
		WithArgs("film-1", 1).
		WillReturnRows(rows)

	film, err := repo.GetFilm(context.Background(), "film-1")
	require.NoError(t, err)
	assert.Equal(t, "Heat", film.Title)
	assert.Equal(t, []string{"crime", "thriller"}, []string(film.Genres))

	mock.ExpectQuery(`SELECT \* FROM "films" WHERE id = \$1`).
		WithArgs("missing", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetFilm(context.Background(), "missing")
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))

	require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations not met")
}

func TestListFilmsAppliesFilter(t *testing.T) {
	db, mock := newMockDb(t)
	repo := NewCatalogRepository(db)

	filter := catalogtypes.CatalogFilter{Genre: "drama", Year: 1999, Sort: catalogtypes.SortRating}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "films" WHERE published = \$1 AND genres LIKE \$2 AND year = \$3`).
		WithArgs(true, "%,drama,%", 1999).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "films" WHERE published = \$1 AND genres LIKE \$2 AND year = \$3 ORDER BY vote_average DESC,id ASC LIMIT \$4`).
		WithArgs(true, "%,drama,%", 1999, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "year"}).AddRow("film-2", "Magnolia", 1999))

	films, total, err := repo.ListFilms(context.Background(), filter, types.NewPagination(1, 20, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, films, 1)
	assert.Equal(t, "Magnolia", films[0].Title)

	require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations not met")
}
