package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/buspass-vn/buspass-go-api/internal/middleware"
	"github.com/buspass-vn/buspass-go-api/internal/models"
	"github.com/buspass-vn/buspass-go-api/internal/service"
	"github.com/buspass-vn/buspass-go-api/internal/utils"
)

func usernameFromContext(c *fiber.Ctx) string {
	if value, ok := c.Locals(middleware.LocalUsername).(string); ok {
		return value
	}
	return ""
}

func roleFromContext(c *fiber.Ctx) string {
	if value, ok := c.Locals(middleware.LocalRole).(string); ok {
		return value
	}
	return ""
}

func cardIDFromContext(c *fiber.Ctx) string {
	if value, ok := c.Locals(middleware.LocalCardID).(string); ok {
		return value
	}
	return ""
}

func managedClassFromContext(c *fiber.Ctx) string {
	if value, ok := c.Locals(middleware.LocalManagedClass).(string); ok {
		return value
	}
	return ""
}

func actorFromContext(c *fiber.Ctx) service.ActivityActor {
	return service.ActivityActor{
		Username: usernameFromContext(c),
		Role:     roleFromContext(c),
	}
}

// canAccessCard gates per-card reads: staff roles see every card, students
// only their linked card. Class scoping for teachers applies to the
// class-level routes via canAccessClass, not here.
func canAccessCard(c *fiber.Ctx, cardID string) bool {
	switch roleFromContext(c) {
	case models.RoleAdmin, models.RoleTeacher:
		return true
	case models.RoleStudent:
		return cardIDFromContext(c) == cardID
	default:
		return false
	}
}

// canAccessClass gates class-scoped reads: teachers are limited to the class
// they manage.
func canAccessClass(c *fiber.Ctx, className string) bool {
	switch roleFromContext(c) {
	case models.RoleAdmin:
		return true
	case models.RoleTeacher:
		return managedClassFromContext(c) == className
	default:
		return false
	}
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errors.New("invalid " + key)
	}
	return value, nil
}

// respondError maps service errors to HTTP responses.
func respondError(c *fiber.Ctx, err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return utils.SendValidationError(c, validationErrs)
	}

	switch {
	case errors.Is(err, service.ErrPendingCardNotFound),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrClassNotFound),
		errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrNotificationMissing),
		errors.Is(err, service.ErrCardNotEnrolled):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCardAlreadyEnrolled),
		errors.Is(err, service.ErrUsernameTaken):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrMessageRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrMissingPasswordHash):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	default:
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}
}
