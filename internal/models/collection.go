package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CollectionType distinguishes ordinary user collections from special ones.
type CollectionType int

const (
	CollectionNormal       CollectionType = 0
	CollectionSynchronized CollectionType = 1
	CollectionFeatured     CollectionType = 2
	CollectionRecommended  CollectionType = 3
	CollectionFavorites    CollectionType = 4
	CollectionMobile       CollectionType = 5
	CollectionAnonymous    CollectionType = 6
)

// Collection is a curated, ordered set of add-ons owned by a user.
type Collection struct {
	ID            uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID          uuid.UUID      `gorm:"type:char(36);not null;uniqueIndex" json:"uuid"`
	Name          string         `gorm:"size:255;not null;default:''" json:"name"`
	Slug          string         `gorm:"size:30;not null;uniqueIndex:idx_author_slug" json:"slug"`
	Description   string         `gorm:"type:text" json:"description"`
	DefaultLocale string         `gorm:"size:10;not null;default:'en-US'" json:"default_locale"`
	Type          CollectionType `gorm:"column:collection_type;not null;default:0" json:"type"`
	Listed        bool           `gorm:"not null;index:idx_collections_listed" json:"listed"`
	Application   *Application   `gorm:"column:application_id" json:"application,omitempty"`
	AuthorID      *uint64        `gorm:"column:author_id;uniqueIndex:idx_author_slug" json:"author_id"`
	Author        *UserProfile   `gorm:"foreignKey:AuthorID" json:"-"`
	AddonCount    uint           `gorm:"not null;default:0" json:"addon_count"`
	HasAddon      bool           `gorm:"->;-:migration" json:"has_addon,omitempty"`
	CreatedAt     time.Time      `gorm:"column:created" json:"created"`
	UpdatedAt     time.Time      `gorm:"column:modified" json:"modified"`
}

// TableName overrides the table name for Collection
func (Collection) TableName() string {
	return "collections"
}

// BeforeCreate assigns a UUID when the caller did not provide one.
func (c *Collection) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	return nil
}

// CollectionAddon is the membership row joining an add-on to a collection.
type CollectionAddon struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	CollectionID uint64    `gorm:"not null;uniqueIndex:idx_collection_addon"`
	AddonID      uint64    `gorm:"not null;uniqueIndex:idx_collection_addon;index"`
	UserID       *uint64   `gorm:"column:user_id"`
	Ordering     int       `gorm:"not null;default:0"`
	Comments     string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"column:created"`
	UpdatedAt    time.Time `gorm:"column:modified"`
}

// TableName overrides the table name for CollectionAddon
func (CollectionAddon) TableName() string {
	return "collections_addons"
}

// FeaturedCollection promotes a collection for one application.
type FeaturedCollection struct {
	ID           uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	CollectionID uint64      `gorm:"not null;uniqueIndex:idx_featured_collection_app" json:"collection_id"`
	Collection   *Collection `gorm:"foreignKey:CollectionID" json:"-"`
	Application  Application `gorm:"column:application_id;not null;uniqueIndex:idx_featured_collection_app" json:"application"`
	Locale       *string     `gorm:"size:10" json:"locale,omitempty"`
	CreatedAt    time.Time   `gorm:"column:created" json:"created"`
	UpdatedAt    time.Time   `gorm:"column:modified" json:"modified"`
}

// TableName overrides the table name for FeaturedCollection
func (FeaturedCollection) TableName() string {
	return "featured_collections"
}
