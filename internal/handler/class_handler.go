package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/buspass-vn/buspass-go-api/internal/dto"
	"github.com/buspass-vn/buspass-go-api/internal/models"
	"github.com/buspass-vn/buspass-go-api/internal/service"
	"github.com/buspass-vn/buspass-go-api/internal/utils"
)

// ClassHandler exposes classes, rosters, student profiles and the roster
// repair operation.
type ClassHandler struct {
	service service.ClassService
	logger  zerolog.Logger
}

// NewClassHandler constructs a handler instance.
func NewClassHandler(service service.ClassService, logger zerolog.Logger) *ClassHandler {
	return &ClassHandler{
		service: service,
		logger:  logger.With().Str("component", "class_handler").Logger(),
	}
}

// Register binds the class and student routes.
func (h *ClassHandler) Register(router fiber.Router) {
	router.Get("/classes", h.listClasses)
	router.Get("/classes/:className/roster", h.roster)
	router.Post("/classes/:className/resync", h.resync)
	router.Delete("/classes/:className/members/:cardID", h.removeMember)

	router.Get("/students", h.listStudents)
	router.Get("/students/:cardID", h.getStudent)
	router.Patch("/students/:cardID", h.updateStudent)
}

func (h *ClassHandler) listClasses(c *fiber.Ctx) error {
	if roleFromContext(c) != models.RoleAdmin {
		return utils.SendError(c, fiber.StatusForbidden, "admin role required")
	}

	result, err := h.service.List(requestContext(c))
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "classes", result)
}

func (h *ClassHandler) roster(c *fiber.Ctx) error {
	className := c.Params("className")
	if !canAccessClass(c, className) {
		return utils.SendError(c, fiber.StatusForbidden, "class not accessible")
	}

	result, err := h.service.Roster(requestContext(c), className)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "class roster", result)
}

func (h *ClassHandler) resync(c *fiber.Ctx) error {
	if roleFromContext(c) != models.RoleAdmin {
		return utils.SendError(c, fiber.StatusForbidden, "admin role required")
	}

	className := c.Params("className")
	result, err := h.service.ResyncRoster(requestContext(c), actorFromContext(c), className)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "roster resynced", result)
}

func (h *ClassHandler) removeMember(c *fiber.Ctx) error {
	if roleFromContext(c) != models.RoleAdmin {
		return utils.SendError(c, fiber.StatusForbidden, "admin role required")
	}

	className := c.Params("className")
	cardID := c.Params("cardID")

	if err := h.service.RemoveMember(requestContext(c), actorFromContext(c), className, cardID); err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "member removed", nil)
}

func (h *ClassHandler) listStudents(c *fiber.Ctx) error {
	var req dto.StudentListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	// Teachers are always scoped to their own class.
	if roleFromContext(c) == models.RoleTeacher {
		managed := managedClassFromContext(c)
		if managed == "" {
			return utils.SendError(c, fiber.StatusForbidden, "no class assigned")
		}
		req.ClassName = managed
	} else if roleFromContext(c) != models.RoleAdmin {
		return utils.SendError(c, fiber.StatusForbidden, "staff role required")
	}

	result, err := h.service.ListStudents(requestContext(c), req)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "students", result)
}

func (h *ClassHandler) getStudent(c *fiber.Ctx) error {
	cardID := c.Params("cardID")
	if !canAccessCard(c, cardID) {
		return utils.SendError(c, fiber.StatusForbidden, "student not accessible")
	}

	result, err := h.service.GetStudent(requestContext(c), cardID)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "student", result)
}

func (h *ClassHandler) updateStudent(c *fiber.Ctx) error {
	if roleFromContext(c) != models.RoleAdmin {
		return utils.SendError(c, fiber.StatusForbidden, "admin role required")
	}

	cardID := c.Params("cardID")

	var req dto.StudentUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.UpdateStudent(requestContext(c), actorFromContext(c), cardID, req)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "student updated", result)
}
