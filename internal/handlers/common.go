// common.go
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

package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/amo-catalog/internal/middleware"
	"github.com/localnerve/amo-catalog/internal/models"
	"github.com/localnerve/amo-catalog/internal/services"
	"github.com/localnerve/amo-catalog/internal/types"
	"github.com/localnerve/amo-catalog/internal/utils"
	"gorm.io/gorm"
)

// ErrorHandler handles errors globally
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	// Check if it's a Fiber error
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	// Errors raised by middleware
	var customErr *types.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
		errorType = customErr.Type
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// NotFound answers requests no route matched.
func NotFound(c *fiber.Ctx) error {
	return utils.NotFoundResponse(c, "[404] Resource Not Found")
}

// serviceError maps a service error to its response.
func serviceError(c *fiber.Ctx, err error, errorType string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, errorType)
	case errors.Is(err, services.ErrDuplicate):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusConflict, errorType)
	case errors.Is(err, services.ErrForbidden):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, errorType)
	}
	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
}

// paramID parses a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", services.ErrInvalidInput, name)
	}
	return id, nil
}

// lookupApplication accepts an application short name ("firefox") or id ("1").
func lookupApplication(value string) (models.Application, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if app, ok := models.ApplicationByShort(value); ok {
		return app, nil
	}
	if id, err := strconv.ParseUint(value, 10, 32); err == nil {
		if app, ok := models.ApplicationByID(uint(id)); ok {
			return app, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown application %q", services.ErrInvalidInput, value)
}

// currentUser loads the profile of the authenticated caller.
func currentUser(c *fiber.Ctx, db *gorm.DB) (*models.UserProfile, error) {
	claims := middleware.Claims(c)
	if claims == nil {
		return nil, fmt.Errorf("%w: not authenticated", services.ErrForbidden)
	}

	var user models.UserProfile
	if err := db.WithContext(c.UserContext()).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown user %d", services.ErrForbidden, claims.UserID)
		}
		return nil, err
	}
	return &user, nil
}

// canEdit reports whether the caller owns the collection or is an admin.
func canEdit(c *fiber.Ctx, collection *models.Collection) bool {
	claims := middleware.Claims(c)
	if claims == nil {
		return false
	}
	if claims.Role == services.RoleAdmin {
		return true
	}
	return collection.AuthorID != nil && *collection.AuthorID == claims.UserID
}

// userContext returns the request context carrying the caller's profile.
func userContext(c *fiber.Ctx, db *gorm.DB) (context.Context, error) {
	user, err := currentUser(c, db)
	if err != nil {
		return nil, err
	}
	return services.WithUser(c.UserContext(), user), nil
}
