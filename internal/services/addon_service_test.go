package services

import (
	"context"
	"testing"

	"github.com/localnerve/amo-catalog/internal/models"
	"github.com/localnerve/amo-catalog/internal/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddonCreateQueuesIndexing(t *testing.T) {
	db := setupTestDB(t)
	queue := &recordingQueue{}
	svc := NewAddonService(db, queue)
	ctx := context.Background()

	category := models.Category{Application: models.Firefox, AddonType: models.TypeExtension, Slug: "privacy", Name: "Privacy"}
	require.NoError(t, db.Create(&category).Error)
	_, err := CreateAppVersion(ctx, db, AppVersionInput{Application: models.Firefox, Version: "3.0"})
	require.NoError(t, err)
	_, err = CreateAppVersion(ctx, db, AppVersionInput{Application: models.Firefox, Version: "3.6.*"})
	require.NoError(t, err)

	addon, err := svc.Create(ctx, AddonInput{
		GUID:       "{firebug}",
		Name:       "Firebug",
		Status:     models.StatusApproved,
		Categories: []uint64{category.ID},
		Compatibility: []CompatibilityInput{
			{Application: models.Firefox, Min: "3.0", Max: "3.6.*"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.TypeExtension, addon.Type)

	assert.Equal(t, [][]uint64{{addon.ID}}, queue.batches(tasks.TaskIndexAddons))

	loaded, err := svc.Get(ctx, addon.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{category.ID}, loaded.CategoryIDs())
	assert.Equal(t, []models.Application{models.Firefox}, loaded.CompatibleApps())
	require.Len(t, loaded.Compatibility, 1)
	require.NotNil(t, loaded.Compatibility[0].Max)
	assert.Equal(t, "3.6.*", loaded.Compatibility[0].Max.Version)

	count, err := CountActivity(ctx, db, models.ActionCreateAddon)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAddonCreateRejectsBadInput(t *testing.T) {
	db := setupTestDB(t)
	queue := &recordingQueue{}
	svc := NewAddonService(db, queue)
	ctx := context.Background()

	_, err := svc.Create(ctx, AddonInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, AddonInput{Name: "x", Categories: []uint64{404}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, AddonInput{Name: "x", Compatibility: []CompatibilityInput{
		{Application: models.Firefox, Min: "9.9"},
	}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, AddonInput{Name: "dupe", GUID: "same"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, AddonInput{Name: "dupe", GUID: "same"})
	assert.ErrorIs(t, err, ErrDuplicate)

	var addons int64
	require.NoError(t, db.Model(&models.Addon{}).Count(&addons).Error)
	assert.Equal(t, int64(1), addons)
	assert.Len(t, queue.batches(tasks.TaskIndexAddons), 1)
}

func TestAddonGetNotFound(t *testing.T) {
	svc := NewAddonService(setupTestDB(t), &recordingQueue{})
	_, err := svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddonReindexBatches(t *testing.T) {
	queue := &recordingQueue{}
	svc := NewAddonService(setupTestDB(t), queue)

	ids := make([]uint64, 320)
	for i := range ids {
		ids[i] = uint64(i + 1)
	}

	queued, err := svc.Reindex(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, 3, queued)

	batches := queue.batches(tasks.TaskIndexAddons)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], ReindexBatchSize)
	assert.Len(t, batches[1], ReindexBatchSize)
	assert.Equal(t, ids[300:], batches[2])
}

func TestAddonReindexAll(t *testing.T) {
	db := setupTestDB(t)
	queue := &recordingQueue{}
	svc := NewAddonService(db, queue)

	a := createAddon(t, db, "a")
	b := createAddon(t, db, "b")

	queued, err := svc.Reindex(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
	assert.Equal(t, [][]uint64{{a.ID, b.ID}}, queue.batches(tasks.TaskIndexAddons))
}

func TestAddonDeleteQueuesUnindex(t *testing.T) {
	db := setupTestDB(t)
	queue := &recordingQueue{}
	svc := NewAddonService(db, queue)
	addon := createAddon(t, db, "gone")

	require.NoError(t, svc.Delete(context.Background(), addon.ID))
	assert.Equal(t, [][]uint64{{addon.ID}}, queue.batches(tasks.TaskUnindexAddons))

	loaded, err := svc.Get(context.Background(), addon.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, loaded.Status)

	assert.ErrorIs(t, svc.Delete(context.Background(), 999), ErrNotFound)
}
