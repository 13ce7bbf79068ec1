package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/buspass-vn/buspass-go-api/internal/dto"
	"github.com/buspass-vn/buspass-go-api/internal/handler"
	"github.com/buspass-vn/buspass-go-api/internal/middleware"
	"github.com/buspass-vn/buspass-go-api/internal/service"
)

type stubNotificationService struct {
	markReadCard    string
	markAllReadCard string
}

func (s *stubNotificationService) Send(context.Context, service.ActivityActor, dto.NotificationSendRequest) (dto.NotificationResponse, error) {
	return dto.NotificationResponse{}, nil
}

func (s *stubNotificationService) List(context.Context, string, int, int) (dto.NotificationListResponse, error) {
	return dto.NotificationListResponse{}, nil
}

func (s *stubNotificationService) MarkRead(_ context.Context, _ uint, cardID string) (dto.NotificationResponse, error) {
	s.markReadCard = cardID
	return dto.NotificationResponse{}, nil
}

func (s *stubNotificationService) MarkAllRead(_ context.Context, cardID string) (dto.MarkAllReadResponse, error) {
	s.markAllReadCard = cardID
	return dto.MarkAllReadResponse{}, nil
}

func (s *stubNotificationService) Subscribe(string) (<-chan dto.NotificationResponse, func()) {
	ch := make(chan dto.NotificationResponse)
	return ch, func() { close(ch) }
}

func (s *stubNotificationService) Start(context.Context) {}

func notificationApp(svc *stubNotificationService, role, cardID string) *fiber.App {
	app := fiber.New()
	group := app.Group("/", func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUsername, "caller")
		c.Locals(middleware.LocalRole, role)
		if cardID != "" {
			c.Locals(middleware.LocalCardID, cardID)
		}
		return c.Next()
	})
	handler.NewNotificationHandler(svc, zerolog.Nop(), time.Second).Register(group)
	return app
}

func TestMarkReadUsesSessionCard(t *testing.T) {
	svc := &stubNotificationService{}
	app := notificationApp(svc, "student", "CARD-500")

	req := httptest.NewRequest(http.MethodPatch, "/7/read", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "CARD-500", svc.markReadCard)
}

func TestMarkReadForbidsStaffSessions(t *testing.T) {
	for _, role := range []string{"admin", "teacher"} {
		svc := &stubNotificationService{}
		app := notificationApp(svc, role, "")

		req := httptest.NewRequest(http.MethodPatch, "/7/read?card_id=CARD-500", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusForbidden, resp.StatusCode, role)
		require.Empty(t, svc.markReadCard, role)
	}
}

func TestMarkAllReadForbidsStaffSessions(t *testing.T) {
	svc := &stubNotificationService{}
	app := notificationApp(svc, "admin", "")

	req := httptest.NewRequest(http.MethodPost, "/read-all?card_id=CARD-500", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Empty(t, svc.markAllReadCard)
}

func TestListAllowsStaffWithExplicitCard(t *testing.T) {
	svc := &stubNotificationService{}
	app := notificationApp(svc, "teacher", "")

	req := httptest.NewRequest(http.MethodGet, "/?card_id=CARD-500", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
