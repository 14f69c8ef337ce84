package services

import (
	"context"
	"sync"
	"testing"

	"github.com/localnerve/amo-catalog/internal/database"
	"github.com/localnerve/amo-catalog/internal/models"
	"github.com/localnerve/amo-catalog/internal/tasks"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

type recordingQueue struct {
	mu     sync.Mutex
	queued []*tasks.Task
}

func (q *recordingQueue) Enqueue(_ context.Context, task *tasks.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queued = append(q.queued, task)
	return nil
}

func (q *recordingQueue) batches(name string) [][]uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out [][]uint64
	for _, task := range q.queued {
		if task.Name == name {
			out = append(out, task.AddonIDs)
		}
	}
	return out
}

func (q *recordingQueue) reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queued = nil
}

type featuredCall struct {
	collectionID uint64
	addonIDs     []uint64
}

type recordingUpdater struct {
	calls []featuredCall
}

func (u *recordingUpdater) UpdateFeaturedStatus(_ context.Context, collectionID uint64, addonIDs []uint64) error {
	u.calls = append(u.calls, featuredCall{collectionID: collectionID, addonIDs: addonIDs})
	return nil
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.UserProfile {
	user := &models.UserProfile{Username: username}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createAddon(t *testing.T, db *gorm.DB, name string) *models.Addon {
	addon := &models.Addon{Name: name, Type: models.TypeExtension, Status: models.StatusApproved}
	require.NoError(t, db.Create(addon).Error)
	return addon
}
