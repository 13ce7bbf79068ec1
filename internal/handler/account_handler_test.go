package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/buspass-vn/buspass-go-api/internal/dto"
	"github.com/buspass-vn/buspass-go-api/internal/handler"
	"github.com/buspass-vn/buspass-go-api/internal/service"
)

type stubAccountService struct {
	loginResult dto.LoginResponse
	loginErr    error
	lastLogin   dto.LoginRequest
}

func (s *stubAccountService) Authenticate(_ context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	s.lastLogin = req
	if s.loginErr != nil {
		return dto.LoginResponse{}, s.loginErr
	}
	return s.loginResult, nil
}

func (s *stubAccountService) Create(context.Context, service.ActivityActor, dto.AccountCreateRequest) (dto.AccountResponse, error) {
	return dto.AccountResponse{}, nil
}

func (s *stubAccountService) Get(context.Context, string) (dto.AccountResponse, error) {
	return dto.AccountResponse{}, nil
}

func (s *stubAccountService) List(context.Context, dto.AccountListRequest) (dto.AccountListResponse, error) {
	return dto.AccountListResponse{}, nil
}

func (s *stubAccountService) Delete(context.Context, service.ActivityActor, string) error {
	return nil
}

func TestLoginHandlerSuccess(t *testing.T) {
	svc := &stubAccountService{
		loginResult: dto.LoginResponse{
			Token: "token-123",
			Principal: dto.PrincipalResponse{
				Username: "tranth123",
				Role:     "student",
				LoginAt:  time.Now(),
			},
		},
	}

	app := fiber.New()
	app.Post("/login", handler.NewAccountHandler(svc, zerolog.Nop()).Login)

	body, err := json.Marshal(dto.LoginRequest{Username: "tranth123", Password: "tranth123"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool              `json:"success"`
		Data    dto.LoginResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	resp.Body.Close()

	require.True(t, payload.Success)
	require.Equal(t, "token-123", payload.Data.Token)
	require.Equal(t, "tranth123", svc.lastLogin.Username)
}

func TestLoginHandlerRejectsBadCredentials(t *testing.T) {
	svc := &stubAccountService{loginErr: service.ErrInvalidCredentials}

	app := fiber.New()
	app.Post("/login", handler.NewAccountHandler(svc, zerolog.Nop()).Login)

	body, err := json.Marshal(dto.LoginRequest{Username: "tranth123", Password: "wrong"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLoginHandlerReportsUnknownAccount(t *testing.T) {
	svc := &stubAccountService{loginErr: service.ErrAccountNotFound}

	app := fiber.New()
	app.Post("/login", handler.NewAccountHandler(svc, zerolog.Nop()).Login)

	body, err := json.Marshal(dto.LoginRequest{Username: "ghost", Password: "ghost"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestLoginHandlerRejectsMalformedBody(t *testing.T) {
	svc := &stubAccountService{}

	app := fiber.New()
	app.Post("/login", handler.NewAccountHandler(svc, zerolog.Nop()).Login)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
