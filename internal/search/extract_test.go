package search

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/localnerve/amo-catalog/internal/models"
	"github.com/stretchr/testify/assert"
)

func testAddon() *models.Addon {
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.Addon{
		ID:                3615,
		Name:              "Delicious Bookmarks",
		Type:              models.TypeExtension,
		Status:            models.StatusApproved,
		WeeklyDownloads:   25,
		BayesianRating:    4.5,
		AverageDailyUsers: 6000,
		LastUpdated:       &updated,
		CreatedAt:         time.Date(2006, 10, 23, 0, 0, 0, 0, time.UTC),
		Categories: []models.Category{
			{ID: 22, Application: models.Firefox},
			{ID: 23, Application: models.Firefox},
		},
		Compatibility: []models.AddonApp{
			{Application: models.Thunderbird},
			{Application: models.Firefox},
			{Application: models.Firefox},
		},
	}
}

func TestExtract(t *testing.T) {
	doc := Extract(testAddon())

	assert.Equal(t, uint64(3615), doc["id"])
	assert.Equal(t, "Delicious Bookmarks", doc["name"])
	assert.Equal(t, uint64(25), doc["weekly_downloads"])
	assert.Equal(t, 4.5, doc["bayesian_rating"])
	assert.Equal(t, uint64(6000), doc["average_daily_users"])
	assert.Equal(t, models.StatusApproved, doc["status"])
	assert.Equal(t, models.TypeExtension, doc["type"])
	assert.Equal(t, false, doc["is_disabled"])
	assert.Equal(t, []uint{1, 18}, doc["app"])
	assert.Equal(t, []uint64{22, 23}, doc["category"])
	assert.Equal(t, "3615", doc.ID())

	for _, key := range []string{"id", "name", "created", "last_updated", "weekly_downloads", "bayesian_rating", "average_daily_users", "status", "type", "is_disabled", "app", "category"} {
		assert.Contains(t, doc, key)
	}
}

func TestExtractWithoutAssociations(t *testing.T) {
	doc := Extract(&models.Addon{ID: 1, Name: "Bare"})

	assert.Equal(t, []uint{}, doc["app"])
	assert.Equal(t, []uint64{}, doc["category"])

	// Empty lists must serialize as arrays, never null.
	b, err := json.Marshal(doc)
	assert.NoError(t, err)
	assert.Contains(t, string(b), `"app":[]`)
	assert.Contains(t, string(b), `"category":[]`)
}

func TestMapping(t *testing.T) {
	b, err := json.Marshal(Mapping())
	assert.NoError(t, err)
	assert.JSONEq(t, `{"properties":{"name":{"type":"keyword"}}}`, string(b))
}
