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

func newMockRepo(t *testing.T) (*ActivityRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, PreferSimpleProtocol: true}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return NewActivityRepository(db), mock
}

func TestListAppliesFilters(t *testing.T) {
	repo, mock := newMockRepo(t)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "activity_logs" WHERE admin_id = $1 AND action = $2 AND timestamp >= $3`)).
		WithArgs("a1", "DELETE", from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "activity_logs" WHERE admin_id = $1 AND action = $2 AND timestamp >= $3 ORDER BY timestamp DESC LIMIT $4 OFFSET $5`)).
		WithArgs("a1", "DELETE", from, 2, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "admin_id", "action", "entity_type", "timestamp"}).
			AddRow("l3", "a1", "DELETE", "MOVIE", from.Add(time.Hour)))

	entries, total, err := repo.List(context.Background(),
		Filter{AdminID: "a1", Action: "DELETE", From: &from},
		types.NewPagination(2, 2, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, entries, 1)
	assert.Equal(t, "MOVIE", entries[0].EntityType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeBefore(t *testing.T) {
	repo, mock := newMockRepo(t)
	cutoff := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "activity_logs" WHERE timestamp < $1`)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectCommit()

	n, err := repo.PurgeBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentIsNewestFirst(t *testing.T) {
	db := database.NewTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i, name := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(ctx, &database.ActivityLog{
			AdminID: "a1", Action: "CREATE", EntityType: "MOVIE", EntityName: name,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "third", entries[0].EntityName)
	assert.Equal(t, "second", entries[1].EntityName)
}
