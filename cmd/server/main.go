// main.go
//
// Add-on catalog backend for the add-on marketplace
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of amo-catalog.
// amo-catalog is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// amo-catalog is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with amo-catalog.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.


package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/amo-catalog/internal/bootstrap"
	"github.com/localnerve/amo-catalog/internal/config"
	"github.com/localnerve/amo-catalog/internal/database"
	"github.com/localnerve/amo-catalog/internal/handlers"
	"github.com/localnerve/amo-catalog/internal/middleware"

	_ "github.com/localnerve/amo-catalog/docs/api" // Swagger docs
)

// @title AMO Catalog API
// @version 1.0.0
// @description Add-on catalog service: application versions, add-ons, collections and search indexing
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/amo-catalog
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name amo_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect database, search and task queue
	backends, err := bootstrap.Open(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("Failed to open backends: %v", err)
	}
	defer backends.Close()

	// Run auto-migrations
	if err := database.AutoMigrate(backends.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Search errors are logged by the indexer, the index is created on demand
	if err := backends.Indexer.SetupMapping(ctx); err != nil {
		log.Printf("Failed to set up search mapping: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("amo_catalog")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API routes under /api
	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())

	handlers.Routes{
		AppVersions: &handlers.AppVersionHandler{DB: backends.DB},
		Addons:      &handlers.AddonHandler{Service: backends.AddonService()},
		Collections: &handlers.CollectionHandler{Service: backends.CollectionService()},
		Health:      &handlers.HealthHandler{Config: cfg, Deps: backends.HealthDeps()},
		JWTSecret:   cfg.JWTSecret,
	}.Register(api)

	// 404 handler
	app.Use(handlers.NotFound)

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}
