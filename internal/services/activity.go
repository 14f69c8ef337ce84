package services

import (
	"context"
	"fmt"

	"github.com/localnerve/amo-catalog/internal/models"
	"gorm.io/gorm"
)

// ActivityArg references one object an activity is about, e.g. {"addon": 3615}.
type ActivityArg map[string]uint64

// AddonArg references an add-on in an activity log entry.
func AddonArg(id uint64) ActivityArg { return ActivityArg{"addon": id} }

// CollectionArg references a collection in an activity log entry.
func CollectionArg(id uint64) ActivityArg { return ActivityArg{"collection": id} }

// AppVersionArg references an application version in an activity log entry.
func AppVersionArg(id uint64) ActivityArg { return ActivityArg{"appversion": id} }

// LogActivity records action against the user in ctx. It must be called with
// the transaction performing the change so the log entry commits with it.
func LogActivity(ctx context.Context, db *gorm.DB, action models.ActivityAction, args ...ActivityArg) error {
	arguments, err := models.NewJSON(args)
	if err != nil {
		return err
	}

	entry := models.ActivityLog{
		Action:    action,
		UserID:    userIDFromContext(ctx),
		Arguments: arguments,
	}

	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to log activity %d: %w", action, err)
	}
	return nil
}

// CountActivity counts log entries of one action, or of every action when action is 0.
func CountActivity(ctx context.Context, db *gorm.DB, action models.ActivityAction) (int64, error) {
	query := db.WithContext(ctx).Model(&models.ActivityLog{})
	if action != 0 {
		query = query.Where("action = ?", action)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ActivityFor returns the newest entries of one action, newest first.
func ActivityFor(ctx context.Context, db *gorm.DB, action models.ActivityAction, limit int) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := db.WithContext(ctx).
		Where("action = ?", action).
		Order("created DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
