package catalogmodule

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dxing/mediavault/internal/database"
)

var ErrCollectionNotFound = errors.New("collection not found")

// CollectionSummary is a collection row plus its item count, shaped for
// the listing endpoint.
type CollectionSummary struct {
	database.MediaCollection
	ItemCount int64 `json:"item_count"`
}

// ItemPage is one page of items from a collection.
type ItemPage struct {
	Items    []database.MediaItem `json:"items"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

// SearchHit pairs an item with the collection it belongs to.
type SearchHit struct {
	Item       database.MediaItem       `json:"item"`
	Collection database.MediaCollection `json:"collection"`
}

// ListCollections returns collections of one media type visible at the
// given tier ceiling, with item counts, ordered by name.
func ListCollections(db *gorm.DB, mediaType string, maxTier int) ([]CollectionSummary, error) {
	var collections []database.MediaCollection
	err := db.Where("media_type = ? AND tier <= ?", mediaType, maxTier).
		Order("name ASC").
		Find(&collections).Error
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	summaries := make([]CollectionSummary, 0, len(collections))
	for _, col := range collections {
		var count int64
		if err := db.Model(&database.MediaItem{}).
			Where("collection_id = ?", col.ID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("count items for collection %d: %w", col.ID, err)
		}
		summaries = append(summaries, CollectionSummary{MediaCollection: col, ItemCount: count})
	}
	return summaries, nil
}

// GetCollection loads one collection if it is visible at the tier
// ceiling. A collection above the ceiling reads as not found rather
// than forbidden, so its existence is not leaked.
func GetCollection(db *gorm.DB, id uint, maxTier int) (*database.MediaCollection, error) {
	var col database.MediaCollection
	err := db.Where("id = ? AND tier <= ?", id, maxTier).First(&col).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCollectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load collection %d: %w", id, err)
	}
	return &col, nil
}

// ListItems returns one page of a collection's items ordered by name.
func ListItems(db *gorm.DB, collectionID uint, maxTier int, page, pageSize int) (*ItemPage, error) {
	if _, err := GetCollection(db, collectionID, maxTier); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	var total int64
	if err := db.Model(&database.MediaItem{}).
		Where("collection_id = ?", collectionID).
		Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	var items []database.MediaItem
	err := db.Where("collection_id = ?", collectionID).
		Order("name ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	return &ItemPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// SearchItems finds items of one media type whose name, or whose
// collection's name, contains the query. Tier gating applies through
// the collection.
func SearchItems(db *gorm.DB, mediaType, query string, maxTier, limit int) ([]SearchHit, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	pattern := "%" + query + "%"

	var items []database.MediaItem
	err := db.Joins("JOIN media_collections ON media_collections.id = media_items.collection_id").
		Where("media_collections.media_type = ? AND media_collections.tier <= ?", mediaType, maxTier).
		Where("media_items.name LIKE ? OR media_collections.name LIKE ?", pattern, pattern).
		Order("media_items.name ASC").
		Limit(limit).
		Preload("Collection").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}

	hits := make([]SearchHit, 0, len(items))
	for _, item := range items {
		col := item.Collection
		item.Collection = database.MediaCollection{}
		hits = append(hits, SearchHit{Item: item, Collection: col})
	}
	return hits, nil
}
