package tasks

import (
	"context"
	"sync"
	"testing"

	"github.com/localnerve/amo-catalog/internal/models"
	"github.com/localnerve/amo-catalog/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.AppVersion{},
		&models.Category{},
		&models.Addon{},
		&models.AddonApp{},
	))
	return db
}

type recordingIndexer struct {
	mu      sync.Mutex
	indexed []search.Document
	deleted []uint64
}

func (r *recordingIndexer) SetupMapping(context.Context) error { return nil }
func (r *recordingIndexer) Ping(context.Context) error         { return nil }

func (r *recordingIndexer) Index(_ context.Context, docs []search.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed = append(r.indexed, docs...)
	return nil
}

func (r *recordingIndexer) Delete(_ context.Context, ids []uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, ids...)
	return nil
}

func TestIndexAddonsTask(t *testing.T) {
	db := setupTestDB(t)

	category := models.Category{Application: models.Firefox, AddonType: models.TypeExtension, Slug: "bookmarks", Name: "Bookmarks"}
	require.NoError(t, db.Create(&category).Error)

	addon := models.Addon{
		Name:          "Delicious Bookmarks",
		Status:        models.StatusApproved,
		Categories:    []models.Category{category},
		Compatibility: []models.AddonApp{{Application: models.Firefox}},
	}
	require.NoError(t, db.Create(&addon).Error)

	indexer := &recordingIndexer{}
	runner := NewRunner()
	RegisterIndexHandlers(runner, db, indexer, nil)
	q := NewEagerQueue(runner, nil)

	require.NoError(t, IndexAddons(context.Background(), q, []uint64{addon.ID, 999}))

	require.Len(t, indexer.indexed, 1)
	doc := indexer.indexed[0]
	assert.Equal(t, addon.ID, doc["id"])
	assert.Equal(t, "Delicious Bookmarks", doc["name"])
	assert.Equal(t, []uint{1}, doc["app"])
	assert.Equal(t, []uint64{category.ID}, doc["category"])
	assert.Equal(t, []uint64{999}, indexer.deleted)

	require.NoError(t, UnindexAddons(context.Background(), q, []uint64{addon.ID}))
	assert.Equal(t, []uint64{999, addon.ID}, indexer.deleted)
}
