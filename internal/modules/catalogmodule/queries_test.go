package catalogmodule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dxing/mediavault/internal/database"
)

func seededDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&database.StorageDisk{},
		&database.MediaCollection{},
		&database.MediaItem{},
	))

	disk := database.StorageDisk{DriveLabel: "root", MountPath: "/", Active: true}
	require.NoError(t, db.Create(&disk).Error)

	movies := database.MediaCollection{
		DiskID: disk.ID, MediaType: "video", Name: "movies", StorageRoot: "media/movies/", Tier: 1,
	}
	premium := database.MediaCollection{
		DiskID: disk.ID, MediaType: "video", Name: "premium", StorageRoot: "media/premium/", Tier: 2,
	}
	albums := database.MediaCollection{
		DiskID: disk.ID, MediaType: "audio", Name: "albums", StorageRoot: "media/albums/", Tier: 1,
	}
	require.NoError(t, db.Create(&movies).Error)
	require.NoError(t, db.Create(&premium).Error)
	require.NoError(t, db.Create(&albums).Error)

	items := []database.MediaItem{
		{CollectionID: movies.ID, RelativePath: "alpha.mp4", Name: "alpha"},
		{CollectionID: movies.ID, RelativePath: "beta.mp4", Name: "beta"},
		{CollectionID: premium.ID, RelativePath: "gold.mp4", Name: "gold"},
		{CollectionID: albums.ID, RelativePath: "song.mp3", Name: "alpha song"},
	}
	require.NoError(t, db.Create(&items).Error)
	return db
}

func TestListCollectionsTierGating(t *testing.T) {
	db := seededDB(t)

	standard, err := ListCollections(db, "video", 1)
	require.NoError(t, err)
	require.Len(t, standard, 1)
	assert.Equal(t, "movies", standard[0].Name)
	assert.Equal(t, int64(2), standard[0].ItemCount)

	vip, err := ListCollections(db, "video", 2)
	require.NoError(t, err)
	assert.Len(t, vip, 2)
}

func TestGetCollectionHidesAboveTier(t *testing.T) {
	db := seededDB(t)

	var premium database.MediaCollection
	require.NoError(t, db.Where("name = ?", "premium").First(&premium).Error)

	_, err := GetCollection(db, premium.ID, 1)
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	col, err := GetCollection(db, premium.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "premium", col.Name)
}

func TestListItemsPagination(t *testing.T) {
	db := seededDB(t)

	var movies database.MediaCollection
	require.NoError(t, db.Where("name = ?", "movies").First(&movies).Error)

	page, err := ListItems(db, movies.ID, 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "alpha", page.Items[0].Name)

	page, err = ListItems(db, movies.ID, 1, 2, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "beta", page.Items[0].Name)
}

func TestListItemsRespectsTier(t *testing.T) {
	db := seededDB(t)

	var premium database.MediaCollection
	require.NoError(t, db.Where("name = ?", "premium").First(&premium).Error)

	_, err := ListItems(db, premium.ID, 1, 1, 10)
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestSearchItemsMatchesItemAndCollectionNames(t *testing.T) {
	db := seededDB(t)

	// Matches the item name.
	hits, err := SearchItems(db, "video", "alpha", 2, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "alpha", hits[0].Item.Name)
	assert.Equal(t, "movies", hits[0].Collection.Name)

	// Matches the collection name, returning all of its items.
	hits, err = SearchItems(db, "video", "movie", 2, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestSearchItemsTierGatingAndMediaType(t *testing.T) {
	db := seededDB(t)

	hits, err := SearchItems(db, "video", "gold", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = SearchItems(db, "video", "gold", 2, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	// The audio catalog never bleeds into video search.
	hits, err = SearchItems(db, "video", "song", 2, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
