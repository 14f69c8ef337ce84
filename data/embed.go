package data

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/localnerve/amo-catalog/internal/models"
)

//go:embed seed/appversions.json
var SeedAppVersions []byte

//go:embed seed/categories.json
var SeedCategories []byte

// AppVersionSeed lists the known versions of one application.
type AppVersionSeed struct {
	App      string   `json:"app"`
	Versions []string `json:"versions"`
}

// CategorySeed is one category row keyed by application short name.
type CategorySeed struct {
	App  string           `json:"app"`
	Type models.AddonType `json:"type"`
	Slug string           `json:"slug"`
	Name string           `json:"name"`
}

// AppVersions decodes the embedded application versions.
func AppVersions() ([]AppVersionSeed, error) {
	var seeds []AppVersionSeed
	if err := json.Unmarshal(SeedAppVersions, &seeds); err != nil {
		return nil, fmt.Errorf("failed to decode app version seeds: %w", err)
	}
	for _, seed := range seeds {
		if _, ok := models.ApplicationByShort(seed.App); !ok {
			return nil, fmt.Errorf("unknown application in app version seeds: %s", seed.App)
		}
	}
	return seeds, nil
}

// Categories decodes the embedded categories into rows ready to insert.
func Categories() ([]models.Category, error) {
	var seeds []CategorySeed
	if err := json.Unmarshal(SeedCategories, &seeds); err != nil {
		return nil, fmt.Errorf("failed to decode category seeds: %w", err)
	}

	categories := make([]models.Category, 0, len(seeds))
	for _, seed := range seeds {
		app, ok := models.ApplicationByShort(seed.App)
		if !ok {
			return nil, fmt.Errorf("unknown application in category seeds: %s", seed.App)
		}
		categories = append(categories, models.Category{
			Application: app,
			AddonType:   seed.Type,
			Slug:        seed.Slug,
			Name:        seed.Name,
		})
	}
	return categories, nil
}
