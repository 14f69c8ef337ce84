package services

import (
	"context"
	"testing"

	"github.com/localnerve/amo-catalog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCategoriesSkipsExisting(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rows := func() []models.Category {
		return []models.Category{
			{Application: models.Firefox, AddonType: models.TypeExtension, Slug: "tabs", Name: "Tabs"},
			{Application: models.Firefox, AddonType: models.TypeExtension, Slug: "bookmarks", Name: "Bookmarks"},
			{Application: models.Android, AddonType: models.TypeExtension, Slug: "tabs", Name: "Tabs"},
		}
	}

	created, err := SeedCategories(ctx, db, rows())
	require.NoError(t, err)
	assert.Equal(t, int64(3), created)

	created, err = SeedCategories(ctx, db, rows())
	require.NoError(t, err)
	assert.Equal(t, int64(0), created)

	firefox, err := ListCategories(ctx, db, models.Firefox)
	require.NoError(t, err)
	require.Len(t, firefox, 2)
	assert.Equal(t, "Bookmarks", firefox[0].Name)
}

func TestSeedCategoriesRejectsInvalid(t *testing.T) {
	db := setupTestDB(t)

	_, err := SeedCategories(context.Background(), db, []models.Category{{Application: 7, Slug: "x", Name: "X"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
