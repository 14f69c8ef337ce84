package models

import (
	"sort"
	"time"
)

// AddonStatus is the review status of an add-on.
type AddonStatus int

const (
	StatusNull           AddonStatus = 0
	StatusAwaitingReview AddonStatus = 3
	StatusApproved       AddonStatus = 4
	StatusDisabled       AddonStatus = 5
	StatusDeleted        AddonStatus = 11
)

// AddonType is the kind of add-on.
type AddonType int

const (
	TypeExtension   AddonType = 1
	TypeTheme       AddonType = 2
	TypeDictionary  AddonType = 3
	TypeSearch      AddonType = 4
	TypeLanguage    AddonType = 5
	TypeStatic      AddonType = 9
	TypeStaticTheme AddonType = 10
)

// Category groups add-ons of one type for one application.
type Category struct {
	ID          uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Application Application `gorm:"column:application_id;not null;uniqueIndex:idx_category_slug" json:"application"`
	AddonType   AddonType   `gorm:"not null;uniqueIndex:idx_category_slug" json:"addon_type"`
	Slug        string      `gorm:"size:50;not null;uniqueIndex:idx_category_slug" json:"slug"`
	Name        string      `gorm:"size:50;not null" json:"name"`
	CreatedAt   time.Time   `json:"-"`
	UpdatedAt   time.Time   `json:"-"`
}

// TableName overrides the table name for Category
func (Category) TableName() string {
	return "categories"
}

// Addon is a distributable extension listed in the catalog.
type Addon struct {
	ID                uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	GUID              *string     `gorm:"size:255;uniqueIndex" json:"guid,omitempty"`
	Name              string      `gorm:"size:255;not null" json:"name"`
	Slug              *string     `gorm:"size:30;uniqueIndex" json:"slug,omitempty"`
	Type              AddonType   `gorm:"column:addontype_id;not null;default:1" json:"type"`
	Status            AddonStatus `gorm:"not null;default:0;index" json:"status"`
	IsDisabled        bool        `gorm:"column:inactive;not null;default:false" json:"is_disabled"`
	WeeklyDownloads   uint64      `gorm:"not null;default:0" json:"weekly_downloads"`
	BayesianRating    float64     `gorm:"not null;default:0" json:"bayesian_rating"`
	AverageDailyUsers uint64      `gorm:"not null;default:0" json:"average_daily_users"`
	LastUpdated       *time.Time  `gorm:"column:last_updated" json:"last_updated"`
	CreatedAt         time.Time   `gorm:"column:created" json:"created"`
	UpdatedAt         time.Time   `gorm:"column:modified" json:"modified"`
	Categories        []Category  `gorm:"many2many:addons_categories;joinForeignKey:addon_id;joinReferences:category_id" json:"-"`
	Compatibility     []AddonApp  `gorm:"foreignKey:AddonID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name for Addon
func (Addon) TableName() string {
	return "addons"
}

// CompatibleApps returns the distinct applications the add-on declares
// compatibility with, in id order. Compatibility must be preloaded.
func (a Addon) CompatibleApps() []Application {
	seen := make(map[Application]struct{}, len(a.Compatibility))
	apps := make([]Application, 0, len(a.Compatibility))
	for _, compat := range a.Compatibility {
		if _, ok := seen[compat.Application]; ok {
			continue
		}
		seen[compat.Application] = struct{}{}
		apps = append(apps, compat.Application)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i] < apps[j] })
	return apps
}

// CategoryIDs returns the ids of the add-on's categories. Categories must be preloaded.
func (a Addon) CategoryIDs() []uint64 {
	ids := make([]uint64, 0, len(a.Categories))
	for _, c := range a.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// AddonApp records that an add-on works with a range of versions of an application.
type AddonApp struct {
	ID          uint64      `gorm:"primaryKey;autoIncrement"`
	AddonID     uint64      `gorm:"not null;uniqueIndex:idx_addon_app"`
	Application Application `gorm:"column:application_id;not null;uniqueIndex:idx_addon_app"`
	MinID       *uint64     `gorm:"column:min"`
	MaxID       *uint64     `gorm:"column:max"`
	Min         *AppVersion `gorm:"foreignKey:MinID"`
	Max         *AppVersion `gorm:"foreignKey:MaxID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides the table name for AddonApp
func (AddonApp) TableName() string {
	return "addons_apps"
}
