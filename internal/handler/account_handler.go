package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/buspass-vn/buspass-go-api/internal/dto"
	"github.com/buspass-vn/buspass-go-api/internal/models"
	"github.com/buspass-vn/buspass-go-api/internal/service"
	"github.com/buspass-vn/buspass-go-api/internal/utils"
)

// AccountHandler exposes login plus admin account management.
type AccountHandler struct {
	service service.AccountService
	logger  zerolog.Logger
}

// NewAccountHandler constructs a handler instance.
func NewAccountHandler(service service.AccountService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		logger:  logger.With().Str("component", "account_handler").Logger(),
	}
}

// Login handles credential submission on the public auth route.
func (h *AccountHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Authenticate(requestContext(c), req)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "login successful", result)
}

// Register binds the admin account management routes.
func (h *AccountHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/:username", h.get)
	router.Delete("/:username", h.remove)
}

func (h *AccountHandler) list(c *fiber.Ctx) error {
	var req dto.AccountListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.List(requestContext(c), req)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "accounts", result)
}

func (h *AccountHandler) create(c *fiber.Ctx) error {
	var req dto.AccountCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Create(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account created", result)
}

// Me returns the caller's own account regardless of role.
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	username := usernameFromContext(c)
	if username == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	result, err := h.service.Get(requestContext(c), username)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "account", result)
}

func (h *AccountHandler) get(c *fiber.Ctx) error {
	username := c.Params("username")

	if roleFromContext(c) != models.RoleAdmin && usernameFromContext(c) != username {
		return utils.SendError(c, fiber.StatusForbidden, "cannot view another account")
	}

	result, err := h.service.Get(requestContext(c), username)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "account", result)
}

func (h *AccountHandler) remove(c *fiber.Ctx) error {
	username := c.Params("username")

	if usernameFromContext(c) == username {
		return utils.SendError(c, fiber.StatusBadRequest, "cannot delete your own account")
	}

	if err := h.service.Delete(requestContext(c), actorFromContext(c), username); err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "account deleted", nil)
}
