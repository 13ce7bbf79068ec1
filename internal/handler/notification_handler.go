package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/buspass-vn/buspass-go-api/internal/dto"
	"github.com/buspass-vn/buspass-go-api/internal/models"
	"github.com/buspass-vn/buspass-go-api/internal/service"
	"github.com/buspass-vn/buspass-go-api/internal/utils"
)

// NotificationHandler manages guardian notifications and the SSE stream.
type NotificationHandler struct {
	service   service.NotificationService
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewNotificationHandler constructs a handler instance.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger, keepAlive time.Duration) *NotificationHandler {
	return &NotificationHandler{
		service:   service,
		logger:    logger.With().Str("component", "notification_handler").Logger(),
		keepAlive: keepAlive,
	}
}

// Register binds the notification routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Post("/", h.send)
	router.Get("/", h.list)
	router.Get("/stream", h.stream)
	router.Patch("/:id/read", h.markRead)
	router.Post("/read-all", h.markAllRead)
}

// resolveRecipientCard picks the card whose feed the caller may read.
// Students are pinned to their linked card; staff pass an explicit card_id.
func resolveRecipientCard(c *fiber.Ctx) (string, error) {
	if roleFromContext(c) == models.RoleStudent {
		cardID := cardIDFromContext(c)
		if cardID == "" {
			return "", fmt.Errorf("account has no linked card")
		}
		return cardID, nil
	}

	cardID := c.Query("card_id")
	if cardID == "" {
		return "", fmt.Errorf("card_id query parameter required")
	}
	return cardID, nil
}

// recipientSessionCard is the stricter variant for the read-state
// transitions: only the recipient's own session may mark notifications read,
// so staff sessions are rejected outright.
func recipientSessionCard(c *fiber.Ctx) (string, error) {
	if roleFromContext(c) != models.RoleStudent {
		return "", service.ErrForbidden
	}

	cardID := cardIDFromContext(c)
	if cardID == "" {
		return "", fmt.Errorf("account has no linked card")
	}
	return cardID, nil
}

func (h *NotificationHandler) send(c *fiber.Ctx) error {
	role := roleFromContext(c)
	if role != models.RoleAdmin && role != models.RoleTeacher {
		return utils.SendError(c, fiber.StatusForbidden, "staff role required")
	}

	var req dto.NotificationSendRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Send(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "notification sent", result)
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	cardID, err := resolveRecipientCard(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	result, err := h.service.List(requestContext(c), cardID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "notifications", result)
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	cardID, err := recipientSessionCard(c)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			return respondError(c, err)
		}
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	parsed, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid notification id")
	}

	result, err := h.service.MarkRead(requestContext(c), uint(parsed), cardID)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "notification updated", result)
}

func (h *NotificationHandler) markAllRead(c *fiber.Ctx) error {
	cardID, err := recipientSessionCard(c)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			return respondError(c, err)
		}
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.MarkAllRead(requestContext(c), cardID)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "notifications updated", result)
}

func (h *NotificationHandler) stream(c *fiber.Ctx) error {
	cardID, err := resolveRecipientCard(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(requestContext(c))
	stream, cleanup := h.service.Subscribe(cardID)

	keepAlive := h.keepAlive
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cleanup()
			cancel()
		}()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case notification, ok := <-stream:
				if !ok {
					return
				}
				if err := writeNotificationEvent(w, notification); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write notification event")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write notification keepalive")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

func writeNotificationEvent(w *bufio.Writer, notification interface{}) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: notification\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}

	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
		return err
	}
	return w.Flush()
}
