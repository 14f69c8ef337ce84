package models

import (
	"time"

	"github.com/localnerve/amo-catalog/internal/versions"
	"gorm.io/gorm"
)

// AppVersion is a released version of an application that add-ons declare
// compatibility against.
type AppVersion struct {
	ID          uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Application Application `gorm:"column:application_id;not null;uniqueIndex:idx_app_version" json:"application"`
	Version     string      `gorm:"size:255;not null;default:'';uniqueIndex:idx_app_version" json:"version"`
	VersionInt  int64       `gorm:"not null;index" json:"version_int"`
	CreatedAt   time.Time   `json:"created"`
	UpdatedAt   time.Time   `json:"modified"`
}

// TableName overrides the table name for AppVersion
func (AppVersion) TableName() string {
	return "appversions"
}

// BeforeSave derives the sortable version integer the first time the row is saved.
func (v *AppVersion) BeforeSave(tx *gorm.DB) error {
	if v.VersionInt == 0 {
		v.VersionInt = versions.Int(v.Version)
	}
	return nil
}

// Parts returns the major, minor, ... components of the version.
func (v AppVersion) Parts() versions.Dict {
	return versions.Parse(v.Version)
}

func (v AppVersion) String() string {
	return v.Version
}

// OrderAppVersions applies the default ordering, newest version first.
func OrderAppVersions(db *gorm.DB) *gorm.DB {
	return db.Order("version_int DESC")
}
