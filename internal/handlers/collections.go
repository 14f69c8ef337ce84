package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/amo-catalog/internal/models"
	"github.com/localnerve/amo-catalog/internal/services"
	"github.com/localnerve/amo-catalog/internal/types"
	"github.com/localnerve/amo-catalog/internal/utils"
)

// CollectionHandler handles collection routes
type CollectionHandler struct {
	Service *services.CollectionService
}

// addAddonBody names the add-on to add to a collection.
type addAddonBody struct {
	Addon types.FlexUint64 `json:"addon" swaggertype:"integer"`
}

// featureBody names the application (and optional locale) to feature a collection for.
type featureBody struct {
	App    string `json:"app" example:"firefox"`
	Locale string `json:"locale" example:"en-US"`
}

// collectionAddons is the response of GetCollectionAddons.
type collectionAddons struct {
	Collection *models.Collection `json:"collection"`
	Addons     []uint64           `json:"addons"`
}

// ListCollections handles GET /api/collections?app=&has_addon=&limit=&offset=
// @Summary List collections
// @Description Listed collections, newest first. has_addon annotates each collection with whether it contains that add-on.
// @Tags Collections
// @Produce json
// @Param app query string false "Application short name or id"
// @Param has_addon query int false "Add-on id to annotate membership of"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Collection
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /collections [get]
func (h *CollectionHandler) ListCollections(c *fiber.Ctx) error {
	opts := services.ListOptions{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if opts.Limit > 200 {
		opts.Limit = 200
	}

	if value := c.Query("app"); value != "" {
		app, err := lookupApplication(value)
		if err != nil {
			return serviceError(c, err, "listCollections")
		}
		opts.Application = &app
	}
	if value := c.Query("has_addon"); value != "" {
		id, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return utils.ErrorResponse(c, "has_addon must be an add-on id", fiber.StatusBadRequest, "listCollections")
		}
		opts.HasAddon = id
	}

	collections, err := h.Service.ListListed(c.UserContext(), opts)
	if err != nil {
		return serviceError(c, err, "listCollections")
	}
	return c.Status(fiber.StatusOK).JSON(collections)
}

// CreateCollection handles POST /api/collections
// @Summary Create a collection
// @Description Creates a collection owned by the caller. The slug is made unique and the description sanitized.
// @Tags Collections
// @Accept json
// @Produce json
// @Param body body services.CollectionInput true "Collection"
// @Success 201 {object} models.Collection
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /collections [post]
func (h *CollectionHandler) CreateCollection(c *fiber.Ctx) error {
	var body services.CollectionInput
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	ctx, err := userContext(c, h.Service.DB)
	if err != nil {
		return serviceError(c, err, "createCollection")
	}

	collection, err := h.Service.Create(ctx, body)
	if err != nil {
		return serviceError(c, err, "createCollection")
	}
	return c.Status(fiber.StatusCreated).JSON(collection)
}

// GetCollectionAddons handles GET /api/collections/:id/addons
// @Summary List the add-ons of a collection
// @Description Member add-on ids in display order. Unlisted collections are only visible to their author.
// @Tags Collections
// @Produce json
// @Param id path int true "Collection id"
// @Success 200 {object} collectionAddons
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /collections/{id}/addons [get]
func (h *CollectionHandler) GetCollectionAddons(c *fiber.Ctx) error {
	collection, err := h.collection(c)
	if err != nil {
		return serviceError(c, err, "getCollectionAddons")
	}
	if !collection.Listed && !canEdit(c, collection) {
		return utils.NotFoundResponse(c, "collection not found")
	}

	ids, err := h.Service.Addons(c.UserContext(), collection)
	if err != nil {
		return serviceError(c, err, "getCollectionAddons")
	}
	return c.Status(fiber.StatusOK).JSON(collectionAddons{Collection: collection, Addons: ids})
}

// AddCollectionAddon handles POST /api/collections/:id/addons
// @Summary Add an add-on to a collection
// @Tags Collections
// @Accept json
// @Produce json
// @Param id path int true "Collection id"
// @Param body body addAddonBody true "Add-on id"
// @Success 200 {object} models.Collection
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /collections/{id}/addons [post]
func (h *CollectionHandler) AddCollectionAddon(c *fiber.Ctx) error {
	var body addAddonBody
	if err := c.BodyParser(&body); err != nil || body.Addon == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	collection, ctx, err := h.editable(c)
	if err != nil {
		return serviceError(c, err, "addCollectionAddon")
	}

	if err := h.Service.AddAddon(ctx, collection, body.Addon.Uint64()); err != nil {
		return serviceError(c, err, "addCollectionAddon")
	}
	return c.Status(fiber.StatusOK).JSON(collection)
}

// RemoveCollectionAddon handles DELETE /api/collections/:id/addons/:addon
// @Summary Remove an add-on from a collection
// @Tags Collections
// @Produce json
// @Param id path int true "Collection id"
// @Param addon path int true "Add-on id"
// @Success 200 {object} models.Collection
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /collections/{id}/addons/{addon} [delete]
func (h *CollectionHandler) RemoveCollectionAddon(c *fiber.Ctx) error {
	addonID, err := paramID(c, "addon")
	if err != nil {
		return serviceError(c, err, "removeCollectionAddon")
	}

	collection, ctx, err := h.editable(c)
	if err != nil {
		return serviceError(c, err, "removeCollectionAddon")
	}

	if err := h.Service.RemoveAddon(ctx, collection, addonID); err != nil {
		return serviceError(c, err, "removeCollectionAddon")
	}
	return c.Status(fiber.StatusOK).JSON(collection)
}

// DeleteCollection handles DELETE /api/collections/:id
// @Summary Delete a collection
// @Tags Collections
// @Produce json
// @Param id path int true "Collection id"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /collections/{id} [delete]
func (h *CollectionHandler) DeleteCollection(c *fiber.Ctx) error {
	collection, ctx, err := h.editable(c)
	if err != nil {
		return serviceError(c, err, "deleteCollection")
	}

	if err := h.Service.Delete(ctx, collection); err != nil {
		return serviceError(c, err, "deleteCollection")
	}
	return utils.MutationSuccessResponse(c, 1)
}

// FeatureCollection handles POST /api/collections/:id/featured
// @Summary Feature a collection
// @Tags Collections
// @Accept json
// @Produce json
// @Param id path int true "Collection id"
// @Param body body featureBody true "Application and locale"
// @Success 201 {object} models.FeaturedCollection
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /collections/{id}/featured [post]
func (h *CollectionHandler) FeatureCollection(c *fiber.Ctx) error {
	var body featureBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	app, err := lookupApplication(body.App)
	if err != nil {
		return serviceError(c, err, "featureCollection")
	}

	collection, err := h.collection(c)
	if err != nil {
		return serviceError(c, err, "featureCollection")
	}

	ctx, err := userContext(c, h.Service.DB)
	if err != nil {
		return serviceError(c, err, "featureCollection")
	}

	featured, err := h.Service.Feature(ctx, collection, app, body.Locale)
	if err != nil {
		return serviceError(c, err, "featureCollection")
	}
	return c.Status(fiber.StatusCreated).JSON(featured)
}

// UnfeatureCollection handles DELETE /api/collections/:id/featured/:app
// @Summary Stop featuring a collection
// @Tags Collections
// @Produce json
// @Param id path int true "Collection id"
// @Param app path string true "Application short name or id"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /collections/{id}/featured/{app} [delete]
func (h *CollectionHandler) UnfeatureCollection(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return serviceError(c, err, "unfeatureCollection")
	}
	app, err := lookupApplication(c.Params("app"))
	if err != nil {
		return serviceError(c, err, "unfeatureCollection")
	}

	ctx, err := userContext(c, h.Service.DB)
	if err != nil {
		return serviceError(c, err, "unfeatureCollection")
	}

	featured, err := h.Service.FindFeatured(ctx, id, app)
	if err != nil {
		return serviceError(c, err, "unfeatureCollection")
	}
	if err := h.Service.Unfeature(ctx, featured); err != nil {
		return serviceError(c, err, "unfeatureCollection")
	}
	return utils.MutationSuccessResponse(c, 1)
}

// collection loads the collection named by the :id parameter.
func (h *CollectionHandler) collection(c *fiber.Ctx) (*models.Collection, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	return h.Service.Get(c.UserContext(), id)
}

// editable loads the :id collection and checks the caller may change it.
func (h *CollectionHandler) editable(c *fiber.Ctx) (*models.Collection, context.Context, error) {
	collection, err := h.collection(c)
	if err != nil {
		return nil, nil, err
	}
	if !canEdit(c, collection) {
		return nil, nil, fmt.Errorf("%w: collection %d belongs to another user", services.ErrForbidden, collection.ID)
	}

	ctx, err := userContext(c, h.Service.DB)
	if err != nil {
		return nil, nil, err
	}
	return collection, ctx, nil
}
