package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/localnerve/amo-catalog/internal/models"
	"github.com/localnerve/amo-catalog/internal/search"
	"gorm.io/gorm"
)

// RegisterIndexHandlers installs the search indexing tasks on runner.
func RegisterIndexHandlers(runner *Runner, db *gorm.DB, indexer search.Indexer, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	runner.Register(TaskIndexAddons, func(ctx context.Context, task *Task) error {
		return indexAddons(ctx, db, indexer, logger, task.AddonIDs)
	})
	runner.Register(TaskUnindexAddons, func(ctx context.Context, task *Task) error {
		return indexer.Delete(ctx, task.AddonIDs)
	})
}

// indexAddons loads the add-ons and writes their documents. Ids that no longer
// exist are removed from the index instead.
func indexAddons(ctx context.Context, db *gorm.DB, indexer search.Indexer, logger *slog.Logger, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	var addons []models.Addon
	err := db.WithContext(ctx).
		Preload("Categories").
		Preload("Compatibility").
		Where("id IN ?", ids).
		Order("id").
		Find(&addons).Error
	if err != nil {
		return fmt.Errorf("failed to load add-ons for indexing: %w", err)
	}

	docs := make([]search.Document, 0, len(addons))
	found := make(map[uint64]struct{}, len(addons))
	for i := range addons {
		docs = append(docs, search.Extract(&addons[i]))
		found[addons[i].ID] = struct{}{}
	}

	var missing []uint64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}

	logger.Info("indexing add-ons", "count", len(docs), "missing", len(missing))

	if err := indexer.Index(ctx, docs); err != nil {
		return err
	}
	return indexer.Delete(ctx, missing)
}
