package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/buspass-vn/buspass-go-api/internal/config"
	"github.com/buspass-vn/buspass-go-api/internal/utils"
)

// HealthCheck reports liveness for load balancers and uptime probes.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "service healthy", fiber.Map{
			"app": cfg.AppName,
			"env": cfg.AppEnv,
		})
	}
}
