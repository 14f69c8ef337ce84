package services

import (
	"context"
	"log/slog"

	"github.com/localnerve/amo-catalog/internal/tasks"
)

// FeaturedUpdater is told which add-ons changed featured status when a
// featured collection, or its membership, changes.
type FeaturedUpdater interface {
	UpdateFeaturedStatus(ctx context.Context, collectionID uint64, addonIDs []uint64) error
}

// ReindexFeatured reindexes the affected add-ons with a single index_addons task.
type ReindexFeatured struct {
	Queue  tasks.Queue
	Logger *slog.Logger
}

// UpdateFeaturedStatus implements FeaturedUpdater.
func (r ReindexFeatured) UpdateFeaturedStatus(ctx context.Context, collectionID uint64, addonIDs []uint64) error {
	if r.Logger != nil {
		r.Logger.Debug("featured collection changed", "collection_id", collectionID, "addon_ids", addonIDs)
	}
	return tasks.IndexAddons(ctx, r.Queue, addonIDs)
}
