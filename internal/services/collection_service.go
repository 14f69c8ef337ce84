// collection_service.go
//
// Add-on catalog backend for the add-on marketplace
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of amo-catalog.
// amo-catalog is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// amo-catalog is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with amo-catalog.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/localnerve/amo-catalog/internal/models"
	"github.com/localnerve/amo-catalog/internal/tasks"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

// CollectionInput is the payload for creating a collection.
type CollectionInput struct {
	Name          string                `json:"name"`
	Slug          string                `json:"slug"`
	Description   string                `json:"description"`
	DefaultLocale string                `json:"default_locale"`
	Type          models.CollectionType `json:"type"`
	Listed        *bool                 `json:"listed"`
	Application   *models.Application   `json:"application"`
	AuthorID      *uint64               `json:"-"`
}

// Validate checks lengths and the collection type.
func (in CollectionInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Length(0, 255)),
		validation.Field(&in.Slug, validation.Length(0, maxSlugLength)),
		validation.Field(&in.DefaultLocale, validation.Length(0, 10)),
		validation.Field(&in.Type, validation.Min(models.CollectionNormal), validation.Max(models.CollectionAnonymous)),
		validation.Field(&in.Application, validation.By(func(value interface{}) error {
			if app, ok := value.(*models.Application); ok && app != nil && !app.Valid() {
				return errors.New("unknown application")
			}
			return nil
		})),
	)
}

// CollectionService implements collection membership and featuring. Changes
// to featured collections are reported to Featured after they commit.
type CollectionService struct {
	DB       *gorm.DB
	Queue    tasks.Queue
	Featured FeaturedUpdater
}

// NewCollectionService returns a service whose featured updater reindexes
// through queue.
func NewCollectionService(db *gorm.DB, queue tasks.Queue) *CollectionService {
	return &CollectionService{
		DB:       db,
		Queue:    queue,
		Featured: ReindexFeatured{Queue: queue},
	}
}

// ListedIndex is the index on collections.listed.
const ListedIndex = "idx_collections_listed"

// Listed restricts a collection query to listed collections. MySQL is told to
// use the listed index, since its planner tends to scan by created instead.
func Listed(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "mysql" {
		db = db.Clauses(hints.UseIndex(ListedIndex))
	}
	return db.Where("collections.listed = ?", true)
}

// WithHasAddon adds a boolean has_addon column telling whether each
// collection contains addonID.
func WithHasAddon(addonID uint64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		exists := "EXISTS (SELECT 1 FROM collections_addons ca WHERE ca.collection_id = collections.id AND ca.addon_id = ?)"
		if db.Dialector.Name() == "sqlserver" {
			exists = "CASE WHEN " + exists + " THEN CAST(1 AS BIT) ELSE CAST(0 AS BIT) END"
		}
		return db.Select("collections.*, "+exists+" AS has_addon", addonID)
	}
}

// Create stores a new collection. The author defaults to the user in ctx.
// The slug is made unique among the author's collections and the description
// is sanitized.
func (s *CollectionService) Create(ctx context.Context, input CollectionInput) (*models.Collection, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	c := &models.Collection{
		Name:          input.Name,
		Description:   SanitizeDescription(input.Description),
		DefaultLocale: input.DefaultLocale,
		Type:          input.Type,
		Listed:        true,
		Application:   input.Application,
		AuthorID:      input.AuthorID,
	}
	if c.DefaultLocale == "" {
		c.DefaultLocale = "en-US"
	}
	if input.Listed != nil {
		c.Listed = *input.Listed
	}
	if c.AuthorID == nil {
		c.AuthorID = userIDFromContext(ctx)
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := collectionSlug(ctx, tx, c, input.Slug)
		if err != nil {
			return err
		}
		c.Slug = slug

		if err := tx.Create(c).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: collection slug %q", ErrDuplicate, c.Slug)
			}
			return fmt.Errorf("failed to create collection: %w", err)
		}

		return LogActivity(ctx, tx, models.ActionCreateCollection, CollectionArg(c.ID))
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes the editable fields of c. An unchanged slug is kept; a changed
// one is de-duplicated again.
func (s *CollectionService) Save(ctx context.Context, c *models.Collection) error {
	if c.ID == 0 {
		return fmt.Errorf("%w: collection has no id", ErrInvalidInput)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Collection
		if err := tx.First(&current, c.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: collection %d", ErrNotFound, c.ID)
			}
			return err
		}

		if c.Slug != current.Slug || c.Type != current.Type || !sameAuthor(c.AuthorID, current.AuthorID) {
			slug, err := collectionSlug(ctx, tx, c, c.Slug)
			if err != nil {
				return err
			}
			c.Slug = slug
		}
		// The stored description is already sanitized.
		if c.Description != current.Description {
			c.Description = SanitizeDescription(c.Description)
		}

		return tx.Model(c).
			Select("Name", "Slug", "Description", "DefaultLocale", "Type", "Listed", "Application", "AuthorID").
			Updates(c).Error
	})
}

func sameAuthor(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Get loads a collection by id.
func (s *CollectionService) Get(ctx context.Context, id uint64) (*models.Collection, error) {
	var c models.Collection
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: collection %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &c, nil
}

// ListOptions filters ListListed.
type ListOptions struct {
	Application *models.Application
	HasAddon    uint64
	Limit       int
	Offset      int
}

// ListListed returns listed collections, newest first. When opts.HasAddon is
// set every collection carries the has_addon annotation for that add-on.
func (s *CollectionService) ListListed(ctx context.Context, opts ListOptions) ([]models.Collection, error) {
	query := s.DB.WithContext(ctx).Session(&gorm.Session{Logger: s.DB.Logger.LogMode(logger.Silent)}).
		Model(&models.Collection{}).
		Scopes(Listed)
	if opts.HasAddon != 0 {
		query = query.Scopes(WithHasAddon(opts.HasAddon))
	}
	if opts.Application != nil {
		query = query.Where("collections.application_id = ?", *opts.Application)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var collections []models.Collection
	if err := query.Order("collections.created DESC").Order("collections.id DESC").Find(&collections).Error; err != nil {
		return nil, err
	}
	return collections, nil
}

// AddAddon appends addonID to the collection. Adding a member twice is a
// no-op. When the collection is featured, every member is reindexed.
func (s *CollectionService) AddAddon(ctx context.Context, c *models.Collection, addonID uint64) error {
	var (
		featured bool
		members  []uint64
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var addonCount int64
		if err := tx.Model(&models.Addon{}).Where("id = ?", addonID).Count(&addonCount).Error; err != nil {
			return err
		}
		if addonCount == 0 {
			return fmt.Errorf("%w: add-on %d", ErrNotFound, addonID)
		}

		var existing int64
		if err := tx.Model(&models.CollectionAddon{}).
			Where("collection_id = ? AND addon_id = ?", c.ID, addonID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		var last int64
		if err := tx.Model(&models.CollectionAddon{}).
			Where("collection_id = ?", c.ID).
			Select("COALESCE(MAX(ordering), -1)").
			Scan(&last).Error; err != nil {
			return err
		}

		membership := models.CollectionAddon{
			CollectionID: c.ID,
			AddonID:      addonID,
			UserID:       userIDFromContext(ctx),
			Ordering:     int(last) + 1,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return fmt.Errorf("failed to add add-on %d to collection %d: %w", addonID, c.ID, err)
		}
		if err := adjustAddonCount(tx, c, 1); err != nil {
			return err
		}
		if err := LogActivity(ctx, tx, models.ActionAddToCollection, AddonArg(addonID), CollectionArg(c.ID)); err != nil {
			return err
		}

		var err error
		if featured, err = isFeatured(tx, c.ID); err != nil || !featured {
			return err
		}
		members, err = memberIDs(tx, c.ID)
		return err
	})
	if err != nil {
		return err
	}

	if featured {
		return s.Featured.UpdateFeaturedStatus(ctx, c.ID, members)
	}
	return nil
}

// RemoveAddon removes addonID from the collection. When the collection is
// featured, only the removed add-on is reindexed.
func (s *CollectionService) RemoveAddon(ctx context.Context, c *models.Collection, addonID uint64) error {
	var (
		removed  bool
		featured bool
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("collection_id = ? AND addon_id = ?", c.ID, addonID).Delete(&models.CollectionAddon{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		removed = true

		if err := adjustAddonCount(tx, c, -1); err != nil {
			return err
		}
		if err := LogActivity(ctx, tx, models.ActionRemoveFromCollection, AddonArg(addonID), CollectionArg(c.ID)); err != nil {
			return err
		}

		var err error
		featured, err = isFeatured(tx, c.ID)
		return err
	})
	if err != nil {
		return err
	}

	if removed && featured {
		return s.Featured.UpdateFeaturedStatus(ctx, c.ID, []uint64{addonID})
	}
	return nil
}

// Delete removes the collection with its memberships and featured rows. When
// it was featured its former members are reindexed.
func (s *CollectionService) Delete(ctx context.Context, c *models.Collection) error {
	var (
		featured bool
		members  []uint64
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if featured, err = isFeatured(tx, c.ID); err != nil {
			return err
		}
		if members, err = memberIDs(tx, c.ID); err != nil {
			return err
		}

		if err := tx.Where("collection_id = ?", c.ID).Delete(&models.FeaturedCollection{}).Error; err != nil {
			return err
		}
		if err := tx.Where("collection_id = ?", c.ID).Delete(&models.CollectionAddon{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Collection{}, c.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: collection %d", ErrNotFound, c.ID)
		}

		return LogActivity(ctx, tx, models.ActionDeleteCollection, CollectionArg(c.ID))
	})
	if err != nil {
		return err
	}

	if featured {
		return s.Featured.UpdateFeaturedStatus(ctx, c.ID, members)
	}
	return nil
}

// Addons returns the ids of the collection's members in display order.
func (s *CollectionService) Addons(ctx context.Context, c *models.Collection) ([]uint64, error) {
	return memberIDs(s.DB.WithContext(ctx), c.ID)
}

// Feature promotes the collection for app, optionally for a single locale.
func (s *CollectionService) Feature(ctx context.Context, c *models.Collection, app models.Application, locale string) (*models.FeaturedCollection, error) {
	if !app.Valid() {
		return nil, fmt.Errorf("%w: unknown application %d", ErrInvalidInput, app)
	}

	fc := &models.FeaturedCollection{CollectionID: c.ID, Application: app}
	if locale = strings.TrimSpace(locale); locale != "" {
		fc.Locale = &locale
	}

	var members []uint64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.FeaturedCollection{}).
			Where("collection_id = ? AND application_id = ?", c.ID, app).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: collection %d is already featured for %s", ErrDuplicate, c.ID, app.Short())
		}

		if err := tx.Create(fc).Error; err != nil {
			return fmt.Errorf("failed to feature collection %d: %w", c.ID, err)
		}
		if err := LogActivity(ctx, tx, models.ActionFeatureCollection, CollectionArg(c.ID)); err != nil {
			return err
		}

		var err error
		members, err = memberIDs(tx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.Featured.UpdateFeaturedStatus(ctx, c.ID, members); err != nil {
		return fc, err
	}
	return fc, nil
}

// FindFeatured returns the featured row of a collection for app.
func (s *CollectionService) FindFeatured(ctx context.Context, collectionID uint64, app models.Application) (*models.FeaturedCollection, error) {
	var fc models.FeaturedCollection
	err := s.DB.WithContext(ctx).
		Where("collection_id = ? AND application_id = ?", collectionID, app).
		First(&fc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: collection %d is not featured for %s", ErrNotFound, collectionID, app.Short())
		}
		return nil, err
	}
	return &fc, nil
}

// Unfeature removes a featured row and reindexes the collection's members.
func (s *CollectionService) Unfeature(ctx context.Context, fc *models.FeaturedCollection) error {
	var members []uint64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.FeaturedCollection{}, fc.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: featured collection %d", ErrNotFound, fc.ID)
		}
		if err := LogActivity(ctx, tx, models.ActionUnfeatureCollection, CollectionArg(fc.CollectionID)); err != nil {
			return err
		}

		var err error
		members, err = memberIDs(tx, fc.CollectionID)
		return err
	})
	if err != nil {
		return err
	}

	return s.Featured.UpdateFeaturedStatus(ctx, fc.CollectionID, members)
}

func isFeatured(tx *gorm.DB, collectionID uint64) (bool, error) {
	var count int64
	err := tx.Model(&models.FeaturedCollection{}).Where("collection_id = ?", collectionID).Count(&count).Error
	return count > 0, err
}

func memberIDs(db *gorm.DB, collectionID uint64) ([]uint64, error) {
	ids := []uint64{}
	err := db.Model(&models.CollectionAddon{}).
		Where("collection_id = ?", collectionID).
		Order("ordering").
		Order("id").
		Pluck("addon_id", &ids).Error
	return ids, err
}

func adjustAddonCount(tx *gorm.DB, c *models.Collection, delta int) error {
	query := tx.Model(&models.Collection{}).Where("id = ?", c.ID)
	if delta < 0 {
		query = query.Where("addon_count >= ?", -delta)
	}
	if err := query.UpdateColumn("addon_count", gorm.Expr("addon_count + ?", delta)).Error; err != nil {
		return fmt.Errorf("failed to update addon count of collection %d: %w", c.ID, err)
	}

	var fresh models.Collection
	if err := tx.Select("id", "addon_count").First(&fresh, c.ID).Error; err != nil {
		return err
	}
	c.AddonCount = fresh.AddonCount
	return nil
}
