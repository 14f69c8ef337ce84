package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/amo-catalog/internal/middleware"
)

// Routes groups the handlers mounted under /api.
type Routes struct {
	AppVersions *AppVersionHandler
	Addons      *AddonHandler
	Collections *CollectionHandler
	Health      *HealthHandler
	JWTSecret   string
}

// Register mounts every API route on api.
func (r Routes) Register(api fiber.Router) {
	admin := middleware.AuthAdmin(r.JWTSecret)
	user := middleware.AuthUser(r.JWTSecret)
	optional := middleware.AuthOptional(r.JWTSecret)

	if r.Health != nil {
		api.Get("/health", r.Health.Health)
	}

	// Application versions (public GET, admin POST)
	api.Get("/appversions/:app", r.AppVersions.ListAppVersions)
	api.Post("/appversions", admin, r.AppVersions.CreateAppVersion)

	// Add-ons (public GET, admin POST)
	api.Post("/addons/reindex", admin, r.Addons.ReindexAddons)
	api.Get("/addons/:id", r.Addons.GetAddon)
	api.Post("/addons", admin, r.Addons.CreateAddon)

	// Collections
	collections := api.Group("/collections")
	collections.Get("/", r.Collections.ListCollections)
	collections.Post("/", user, r.Collections.CreateCollection)
	collections.Get("/:id/addons", optional, r.Collections.GetCollectionAddons)
	collections.Post("/:id/addons", user, r.Collections.AddCollectionAddon)
	collections.Delete("/:id/addons/:addon", user, r.Collections.RemoveCollectionAddon)
	collections.Delete("/:id", user, r.Collections.DeleteCollection)

	// Featuring is admin only
	collections.Post("/:id/featured", admin, r.Collections.FeatureCollection)
	collections.Delete("/:id/featured/:app", admin, r.Collections.UnfeatureCollection)
}
