package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockRepo(t *testing.T) (*FavoriteRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, PreferSimpleProtocol: true}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return NewFavoriteRepository(db), mock
}

func TestListFiltersByType(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "content_type", "content_id", "created_at"}).
		AddRow("f2", "u1", "film", "film-2", time.Now()).
		AddRow("f1", "u1", "film", "film-1", time.Now().Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "favorites" WHERE user_id = $1 AND content_type = $2 ORDER BY created_at DESC,id DESC`)).
		WithArgs("u1", "film").
		WillReturnRows(rows)

	favorites, err := repo.List(context.Background(), "u1", database.ContentTypeFilm)
	require.NoError(t, err)
	require.Len(t, favorites, 2)
	assert.Equal(t, "film-2", favorites[0].ContentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingFavorite(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "favorites" WHERE user_id = $1 AND content_type = $2 AND content_id = $3`)).
		WithArgs("u1", "series", "s1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "u1", database.ContentTypeSeries, "s1")
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateIsConflict(t *testing.T) {
	db := database.NewTestDB(t)
	repo := NewFavoriteRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &database.Favorite{UserID: "u1", ContentType: database.ContentTypeFilm, ContentID: "f1"}))
	err := repo.Create(ctx, &database.Favorite{UserID: "u1", ContentType: database.ContentTypeFilm, ContentID: "f1"})
	assert.True(t, types.IsCode(err, types.ErrorCodeConflict))

	ok, err := repo.Exists(ctx, "u1", database.ContentTypeFilm, "f1")
	require.NoError(t, err)
	assert.True(t, ok)
}
