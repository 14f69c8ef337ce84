package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/amo-catalog/internal/search"
	"github.com/localnerve/amo-catalog/internal/services"
	"github.com/localnerve/amo-catalog/internal/types"
	"github.com/localnerve/amo-catalog/internal/utils"
)

// AddonHandler handles add-on routes
type AddonHandler struct {
	Service *services.AddonService
}

// reindexBody selects the add-ons to reindex.
type reindexBody struct {
	IDs types.IDList `json:"ids" swaggertype:"array,integer"`
	All bool                             `json:"all"`
}

// GetAddon handles GET /api/addons/:id
// @Summary Get an add-on
// @Description The add-on as it is sent to the search index
// @Tags Addons
// @Produce json
// @Param id path int true "Add-on id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /addons/{id} [get]
func (h *AddonHandler) GetAddon(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return serviceError(c, err, "getAddon")
	}

	addon, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err, "getAddon")
	}
	return c.Status(fiber.StatusOK).JSON(search.Extract(addon))
}

// CreateAddon handles POST /api/addons
// @Summary Create an add-on
// @Description Stores an add-on with its categories and compatibility and queues it for indexing
// @Tags Addons
// @Accept json
// @Produce json
// @Param body body services.AddonInput true "Add-on"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /addons [post]
func (h *AddonHandler) CreateAddon(c *fiber.Ctx) error {
	var body services.AddonInput
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	ctx, err := userContext(c, h.Service.DB)
	if err != nil {
		return serviceError(c, err, "createAddon")
	}

	addon, err := h.Service.Create(ctx, body)
	if err != nil {
		return serviceError(c, err, "createAddon")
	}
	return c.Status(fiber.StatusCreated).JSON(search.Extract(addon))
}

// ReindexAddons handles POST /api/addons/reindex
// @Summary Reindex add-ons
// @Description Queues index tasks for the given add-ons, or for every add-on
// @Tags Addons
// @Accept json
// @Produce json
// @Param body body reindexBody true "ids, or all=true"
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /addons/reindex [post]
func (h *AddonHandler) ReindexAddons(c *fiber.Ctx) error {
	var body reindexBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	ids := []uint64(body.IDs)
	if len(ids) == 0 && !body.All {
		return utils.ErrorResponse(c, "ids or all=true is required", fiber.StatusBadRequest, "reindexAddons")
	}
	if body.All {
		ids = nil
	}

	queued, err := h.Service.Reindex(c.UserContext(), ids)
	if err != nil {
		return serviceError(c, err, "reindexAddons")
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"ok":    true,
		"tasks": queued,
	})
}
