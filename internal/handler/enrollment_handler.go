package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/buspass-vn/buspass-go-api/internal/dto"
	"github.com/buspass-vn/buspass-go-api/internal/service"
	"github.com/buspass-vn/buspass-go-api/internal/utils"
)

// EnrollmentHandler exposes the pending card queue and the approval flow.
type EnrollmentHandler struct {
	service service.EnrollmentService
	logger  zerolog.Logger
}

// NewEnrollmentHandler constructs a handler instance.
func NewEnrollmentHandler(service service.EnrollmentService, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		logger:  logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register binds the enrollment routes. The group is expected to carry the
// admin role requirement.
func (h *EnrollmentHandler) Register(router fiber.Router) {
	router.Get("/pending", h.listPending)
	router.Post("/pending/:cardID/approve", h.approve)
	router.Delete("/pending/:cardID", h.reject)
}

func (h *EnrollmentHandler) listPending(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	result, err := h.service.ListPending(requestContext(c), page, pageSize)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "pending cards", result)
}

func (h *EnrollmentHandler) approve(c *fiber.Ctx) error {
	cardID := c.Params("cardID")
	if cardID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "card id required")
	}

	var req dto.ApprovalRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Approve(requestContext(c), actorFromContext(c), cardID, req)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "enrollment approved", result)
}

func (h *EnrollmentHandler) reject(c *fiber.Ctx) error {
	cardID := c.Params("cardID")
	if cardID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "card id required")
	}

	if err := h.service.Reject(requestContext(c), actorFromContext(c), cardID); err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "pending card rejected", nil)
}
