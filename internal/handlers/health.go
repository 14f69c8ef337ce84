package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/amo-catalog/internal/config"
	"github.com/localnerve/amo-catalog/internal/services"
)

// HealthHandler reports the state of the service dependencies
type HealthHandler struct {
	Config *config.Config
	Deps   services.HealthDeps
}

// Health handles GET /api/health
// @Summary Service health
// @Description Database, search and queue reachability
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	result := services.HealthCheck(c.UserContext(), h.Config, h.Deps)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
