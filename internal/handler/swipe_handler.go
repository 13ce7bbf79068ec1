package handler

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/buspass-vn/buspass-go-api/internal/dto"
	"github.com/buspass-vn/buspass-go-api/internal/service"
	"github.com/buspass-vn/buspass-go-api/internal/utils"
)

// SwipeHandler accepts reader swipes and serves history, chart and live feed
// views.
type SwipeHandler struct {
	service service.SwipeService
	logger  zerolog.Logger
}

// NewSwipeHandler constructs a handler instance.
func NewSwipeHandler(service service.SwipeService, logger zerolog.Logger) *SwipeHandler {
	return &SwipeHandler{
		service: service,
		logger:  logger.With().Str("component", "swipe_handler").Logger(),
	}
}

// RegisterIngest binds the reader-facing ingestion route. The bus readers
// authenticate at the network layer, not with user tokens.
func (h *SwipeHandler) RegisterIngest(router fiber.Router) {
	router.Post("/swipes", h.ingest)
}

// Register binds the authenticated read routes.
func (h *SwipeHandler) Register(router fiber.Router) {
	router.Get("/cards/:cardID/history", h.history)
	router.Get("/cards/:cardID/summary", h.summary)

	router.Use("/cards/:cardID/feed", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			if !canAccessCard(c, c.Params("cardID")) {
				return fiber.ErrForbidden
			}
			c.Locals("request_ctx", requestContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/cards/:cardID/feed", websocket.New(h.feed))
}

func (h *SwipeHandler) ingest(c *fiber.Ctx) error {
	var req dto.SwipeIngestRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Ingest(requestContext(c), req)
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusCreated
	if result.Outcome == dto.SwipeOutcomePending {
		status = fiber.StatusAccepted
	}

	return utils.SendSuccessWithStatus(c, status, "swipe processed", result)
}

func (h *SwipeHandler) history(c *fiber.Ctx) error {
	cardID := c.Params("cardID")
	if !canAccessCard(c, cardID) {
		return utils.SendError(c, fiber.StatusForbidden, "card not accessible")
	}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	result, err := h.service.History(requestContext(c), cardID, page, pageSize)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "swipe history", result)
}

func (h *SwipeHandler) summary(c *fiber.Ctx) error {
	cardID := c.Params("cardID")
	if !canAccessCard(c, cardID) {
		return utils.SendError(c, fiber.StatusForbidden, "card not accessible")
	}

	result, err := h.service.WeeklySummary(requestContext(c), cardID)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SendSuccess(c, "weekly summary", result)
}

// feed pushes live swipe events for one card over a websocket. The
// connection closes when the client goes away or the request context ends.
func (h *SwipeHandler) feed(conn *websocket.Conn) {
	cardID := conn.Params("cardID")

	baseCtx, _ := conn.Locals("request_ctx").(context.Context)
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	stream, cleanup := h.service.Subscribe(cardID)
	defer cleanup()

	// Drain reads so close frames from the client are noticed.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Info().Str("card_id", cardID).Msg("swipe feed connected")
	defer h.logger.Info().Str("card_id", cardID).Msg("swipe feed disconnected")

	for {
		select {
		case event, ok := <-stream:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
