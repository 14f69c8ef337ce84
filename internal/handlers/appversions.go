package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/amo-catalog/internal/services"
	"gorm.io/gorm"
)

// AppVersionHandler handles application version routes
type AppVersionHandler struct {
	DB *gorm.DB
}

// appVersionBody is the request body for creating an application version.
type appVersionBody struct {
	App     string `json:"app" example:"firefox"`
	Version string `json:"version" example:"3.6.2"`
}

// ListAppVersions handles GET /api/appversions/:app
// @Summary List application versions
// @Description Versions of an application, newest first
// @Tags AppVersions
// @Produce json
// @Param app path string true "Application short name or id"
// @Success 200 {array} models.AppVersion
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /appversions/{app} [get]
func (h *AppVersionHandler) ListAppVersions(c *fiber.Ctx) error {
	app, err := lookupApplication(c.Params("app"))
	if err != nil {
		return serviceError(c, err, "listAppVersions")
	}

	versions, err := services.ListAppVersions(c.UserContext(), h.DB, app)
	if err != nil {
		return serviceError(c, err, "listAppVersions")
	}
	return c.Status(fiber.StatusOK).JSON(versions)
}

// CreateAppVersion handles POST /api/appversions
// @Summary Create an application version
// @Description Adds a version add-ons can declare compatibility with
// @Tags AppVersions
// @Accept json
// @Produce json
// @Param body body appVersionBody true "Application and version"
// @Success 201 {object} models.AppVersion
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /appversions [post]
func (h *AppVersionHandler) CreateAppVersion(c *fiber.Ctx) error {
	var body appVersionBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	app, err := lookupApplication(body.App)
	if err != nil {
		return serviceError(c, err, "createAppVersion")
	}

	ctx, err := userContext(c, h.DB)
	if err != nil {
		return serviceError(c, err, "createAppVersion")
	}

	appVersion, err := services.CreateAppVersion(ctx, h.DB, services.AppVersionInput{
		Application: app,
		Version:     body.Version,
	})
	if err != nil {
		return serviceError(c, err, "createAppVersion")
	}
	return c.Status(fiber.StatusCreated).JSON(appVersion)
}
