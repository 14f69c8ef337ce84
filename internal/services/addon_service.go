package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/localnerve/amo-catalog/internal/models"
	"github.com/localnerve/amo-catalog/internal/tasks"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ReindexBatchSize is the number of add-ons put in one index_addons task.
const ReindexBatchSize = 150

// CompatibilityInput declares an add-on compatible with a version range of an application.
type CompatibilityInput struct {
	Application models.Application `json:"application"`
	Min         string             `json:"min"`
	Max         string             `json:"max"`
}

// AddonInput is the payload for creating an add-on.
type AddonInput struct {
	GUID              string               `json:"guid"`
	Name              string               `json:"name"`
	Slug              string               `json:"slug"`
	Type              models.AddonType     `json:"type"`
	Status            models.AddonStatus   `json:"status"`
	IsDisabled        bool                 `json:"is_disabled"`
	WeeklyDownloads   uint64               `json:"weekly_downloads"`
	BayesianRating    float64              `json:"bayesian_rating"`
	AverageDailyUsers uint64               `json:"average_daily_users"`
	Categories        []uint64             `json:"categories"`
	Compatibility     []CompatibilityInput `json:"compatibility"`
}

// Validate checks the fields that have no database default.
func (in AddonInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Slug, validation.Length(0, 30)),
		validation.Field(&in.GUID, validation.Length(0, 255)),
		validation.Field(&in.Type, validation.In(
			models.TypeExtension, models.TypeTheme, models.TypeDictionary, models.TypeSearch,
			models.TypeLanguage, models.TypeStatic, models.TypeStaticTheme,
		)),
		validation.Field(&in.BayesianRating, validation.Min(0.0), validation.Max(5.0)),
	)
}

// AddonService creates and reindexes add-ons. Every change is followed by an
// index_addons task on Queue.
type AddonService struct {
	DB     *gorm.DB
	Queue  tasks.Queue
	Logger *slog.Logger
}

// NewAddonService returns an AddonService using the default logger.
func NewAddonService(db *gorm.DB, queue tasks.Queue) *AddonService {
	return &AddonService{DB: db, Queue: queue, Logger: slog.Default()}
}

// Create stores a new add-on together with its categories and compatibility
// ranges, then queues it for indexing.
func (s *AddonService) Create(ctx context.Context, input AddonInput) (*models.Addon, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	addon := &models.Addon{
		Name:              input.Name,
		Type:              input.Type,
		Status:            input.Status,
		IsDisabled:        input.IsDisabled,
		WeeklyDownloads:   input.WeeklyDownloads,
		BayesianRating:    input.BayesianRating,
		AverageDailyUsers: input.AverageDailyUsers,
		LastUpdated:       &now,
	}
	if addon.Type == 0 {
		addon.Type = models.TypeExtension
	}
	if input.GUID != "" {
		addon.GUID = &input.GUID
	}
	if input.Slug != "" {
		addon.Slug = &input.Slug
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(input.Categories) > 0 {
			if err := tx.Where("id IN ?", input.Categories).Find(&addon.Categories).Error; err != nil {
				return err
			}
			if len(addon.Categories) != len(uniqueIDs(input.Categories)) {
				return fmt.Errorf("%w: unknown category in %v", ErrInvalidInput, input.Categories)
			}
		}

		for _, compat := range input.Compatibility {
			row, err := compatibilityRow(ctx, tx, compat)
			if err != nil {
				return err
			}
			addon.Compatibility = append(addon.Compatibility, row)
		}

		if err := tx.Create(addon).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: add-on guid or slug", ErrDuplicate)
			}
			return fmt.Errorf("failed to create add-on: %w", err)
		}

		return LogActivity(ctx, tx, models.ActionCreateAddon, AddonArg(addon.ID))
	})
	if err != nil {
		return nil, err
	}

	if err := tasks.IndexAddons(ctx, s.Queue, []uint64{addon.ID}); err != nil {
		return addon, fmt.Errorf("failed to queue indexing of add-on %d: %w", addon.ID, err)
	}
	return addon, nil
}

func compatibilityRow(ctx context.Context, tx *gorm.DB, compat CompatibilityInput) (models.AddonApp, error) {
	if !compat.Application.Valid() {
		return models.AddonApp{}, fmt.Errorf("%w: unknown application %d", ErrInvalidInput, compat.Application)
	}

	row := models.AddonApp{Application: compat.Application}
	if compat.Min != "" {
		v, err := FindAppVersion(ctx, tx, compat.Application, compat.Min)
		if err != nil {
			return row, fmt.Errorf("%w: min version: %v", ErrInvalidInput, err)
		}
		row.MinID = &v.ID
	}
	if compat.Max != "" {
		v, err := FindAppVersion(ctx, tx, compat.Application, compat.Max)
		if err != nil {
			return row, fmt.Errorf("%w: max version: %v", ErrInvalidInput, err)
		}
		row.MaxID = &v.ID
	}
	return row, nil
}

// Get loads an add-on with its categories and compatibility.
func (s *AddonService) Get(ctx context.Context, id uint64) (*models.Addon, error) {
	var addon models.Addon
	err := s.DB.WithContext(ctx).Session(&gorm.Session{Logger: s.DB.Logger.LogMode(logger.Silent)}).
		Preload("Categories").
		Preload("Compatibility").
		Preload("Compatibility.Min").
		Preload("Compatibility.Max").
		First(&addon, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: add-on %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &addon, nil
}

// Delete marks an add-on deleted and queues its removal from the index.
func (s *AddonService) Delete(ctx context.Context, id uint64) error {
	result := s.DB.WithContext(ctx).Model(&models.Addon{}).
		Where("id = ?", id).
		Update("status", models.StatusDeleted)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: add-on %d", ErrNotFound, id)
	}
	return tasks.UnindexAddons(ctx, s.Queue, []uint64{id})
}

// Reindex queues index_addons tasks for ids, or for every add-on when ids is
// empty, in batches of ReindexBatchSize. It returns the number of tasks queued.
func (s *AddonService) Reindex(ctx context.Context, ids []uint64) (int, error) {
	if len(ids) == 0 {
		if err := s.DB.WithContext(ctx).Model(&models.Addon{}).Order("id").Pluck("id", &ids).Error; err != nil {
			return 0, err
		}
	}

	queued := 0
	for start := 0; start < len(ids); start += ReindexBatchSize {
		end := min(start+ReindexBatchSize, len(ids))
		if err := tasks.IndexAddons(ctx, s.Queue, ids[start:end]); err != nil {
			return queued, fmt.Errorf("failed to queue reindex batch %d: %w", queued, err)
		}
		queued++
	}

	s.Logger.Info("queued reindex", "addons", len(ids), "tasks", queued)
	return queued, nil
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
