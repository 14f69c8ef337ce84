package services

import (
	"context"
	"fmt"

	"github.com/localnerve/amo-catalog/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedCategories inserts categories that do not exist yet for their
// application, type and slug. It returns the number of rows created.
func SeedCategories(ctx context.Context, db *gorm.DB, categories []models.Category) (int64, error) {
	if len(categories) == 0 {
		return 0, nil
	}
	for _, c := range categories {
		if !c.Application.Valid() || c.Slug == "" || c.Name == "" {
			return 0, fmt.Errorf("%w: category %q", ErrInvalidInput, c.Slug)
		}
	}

	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(categories, 100)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to seed categories: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ListCategories returns the categories of app ordered by type and name.
func ListCategories(ctx context.Context, db *gorm.DB, app models.Application) ([]models.Category, error) {
	var categories []models.Category
	err := db.WithContext(ctx).
		Where("application_id = ?", app).
		Order("addon_type").Order("name").
		Find(&categories).Error
	return categories, err
}
