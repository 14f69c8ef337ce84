package data

import (
	"testing"

	"github.com/localnerve/amo-catalog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppVersions(t *testing.T) {
	seeds, err := AppVersions()
	require.NoError(t, err)
	require.NotEmpty(t, seeds)

	apps := map[string]bool{}
	for _, seed := range seeds {
		apps[seed.App] = true
		assert.NotEmpty(t, seed.Versions, seed.App)
	}
	assert.True(t, apps["firefox"])
	assert.True(t, apps["android"])
}

func TestCategories(t *testing.T) {
	categories, err := Categories()
	require.NoError(t, err)
	require.NotEmpty(t, categories)

	seen := map[string]bool{}
	for _, c := range categories {
		assert.True(t, c.Application.Valid())
		assert.NotEmpty(t, c.Name)

		key := c.Application.Short() + "/" + c.Slug
		assert.False(t, seen[key], "duplicate category %s", key)
		seen[key] = true
	}
	assert.Equal(t, models.Firefox, categories[0].Application)
}
