package catalogmodule

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func mockedDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestListCollectionsPropagatesQueryError(t *testing.T) {
	db, mock := mockedDB(t)
	mock.ExpectQuery(`SELECT \* FROM "media_collections"`).WillReturnError(assert.AnError)

	_, err := ListCollections(db, "video", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchItemsPropagatesQueryError(t *testing.T) {
	db, mock := mockedDB(t)
	mock.ExpectQuery(`SELECT .* FROM "media_items"`).WillReturnError(assert.AnError)

	_, err := SearchItems(db, "video", "alpha", 2, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
