package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/localnerve/amo-catalog/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var versionPattern = regexp.MustCompile(`^(\d+|\*)(\.(\d+|\*)){0,3}([ab]\d*)?(pre\d?)?$`)

// AppVersionInput is the payload for creating an application version.
type AppVersionInput struct {
	Application models.Application `json:"application"`
	Version     string             `json:"version"`
}

// Validate checks the application is known and the version is well formed.
func (in AppVersionInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Application, validation.Required, validation.By(knownApplication)),
		validation.Field(&in.Version, validation.Required, validation.Length(1, 255),
			validation.Match(versionPattern).Error("must look like 3.6.2b1pre2")),
	)
}

func knownApplication(value interface{}) error {
	app, _ := value.(models.Application)
	if !app.Valid() {
		return errors.New("unknown application")
	}
	return nil
}

// CreateAppVersion stores a new version of an application. The sortable
// version integer is derived on save.
func CreateAppVersion(ctx context.Context, db *gorm.DB, input AppVersionInput) (*models.AppVersion, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	appVersion := &models.AppVersion{
		Application: input.Application,
		Version:     input.Version,
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.AppVersion{}).
			Where("application_id = ? AND version = ?", input.Application, input.Version).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: %s %s", ErrDuplicate, input.Application.Short(), input.Version)
		}

		if err := tx.Create(appVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s %s", ErrDuplicate, input.Application.Short(), input.Version)
			}
			return fmt.Errorf("failed to create app version: %w", err)
		}

		return LogActivity(ctx, tx, models.ActionAddAppVersion, AppVersionArg(appVersion.ID))
	})
	if err != nil {
		return nil, err
	}

	return appVersion, nil
}

// ListAppVersions returns the versions of app, newest first.
func ListAppVersions(ctx context.Context, db *gorm.DB, app models.Application) ([]models.AppVersion, error) {
	if !app.Valid() {
		return nil, fmt.Errorf("%w: unknown application %d", ErrInvalidInput, app)
	}

	var appVersions []models.AppVersion
	err := db.WithContext(ctx).Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Scopes(models.OrderAppVersions).
		Where("application_id = ?", app).
		Find(&appVersions).Error
	if err != nil {
		return nil, err
	}
	return appVersions, nil
}

// FindAppVersion looks up one version of an application.
func FindAppVersion(ctx context.Context, db *gorm.DB, app models.Application, version string) (*models.AppVersion, error) {
	var appVersion models.AppVersion
	err := db.WithContext(ctx).
		Where("application_id = ? AND version = ?", app, version).
		First(&appVersion).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, app.Short(), version)
		}
		return nil, err
	}
	return &appVersion, nil
}

// SeedAppVersions inserts the given versions, skipping the ones already
// present. It returns the number of rows created.
func SeedAppVersions(ctx context.Context, db *gorm.DB, seeds []AppVersionInput) (int64, error) {
	rows := make([]models.AppVersion, 0, len(seeds))
	for _, seed := range seeds {
		if err := seed.Validate(); err != nil {
			return 0, fmt.Errorf("%w: seed %s %q: %v", ErrInvalidInput, seed.Application.Short(), seed.Version, err)
		}
		rows = append(rows, models.AppVersion{Application: seed.Application, Version: seed.Version})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, 100)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to seed app versions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
