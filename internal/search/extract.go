package search

import (
	"fmt"
	"strconv"

	"github.com/localnerve/amo-catalog/internal/models"
)

// Document is the JSON body indexed for one add-on.
type Document map[string]interface{}

// ID returns the document id, which is the add-on id.
func (d Document) ID() string {
	switch id := d["id"].(type) {
	case uint64:
		return strconv.FormatUint(id, 10)
	default:
		return fmt.Sprint(id)
	}
}

// Extract copies the indexable attributes of an add-on into a Document.
// Categories and Compatibility must be preloaded.
func Extract(addon *models.Addon) Document {
	d := Document{
		"id":                  addon.ID,
		"name":                fmt.Sprint(addon.Name),
		"created":             addon.CreatedAt,
		"last_updated":        addon.LastUpdated,
		"weekly_downloads":    addon.WeeklyDownloads,
		"bayesian_rating":     addon.BayesianRating,
		"average_daily_users": addon.AverageDailyUsers,
		"status":              addon.Status,
		"type":                addon.Type,
		"is_disabled":         addon.IsDisabled,
	}

	apps := addon.CompatibleApps()
	appIDs := make([]uint, 0, len(apps))
	for _, app := range apps {
		appIDs = append(appIDs, uint(app))
	}
	d["app"] = appIDs
	d["category"] = addon.CategoryIDs()

	return d
}

// Mapping returns the index mapping for add-on documents. Most fields are
// detected and mapped automatically; name is kept unanalyzed so results can be
// sorted by it.
func Mapping() map[string]interface{} {
	return map[string]interface{}{
		"properties": map[string]interface{}{
			"name": map[string]interface{}{
				"type": "keyword",
			},
		},
	}
}
