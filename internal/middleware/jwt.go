package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/buspass-vn/buspass-go-api/internal/utils"
)

// Context keys populated by JWTProtected for downstream handlers.
const (
	LocalUsername     = "username"
	LocalRole         = "user_role"
	LocalCardID       = "card_id"
	LocalManagedClass = "managed_class"
)

// JWTProtected returns a middleware that validates JWT bearer tokens and
// exposes the session principal (username, role, linked card, managed class)
// through request locals.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		username := claimString(claims, "sub")
		if username == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token subject")
		}

		c.Locals(LocalUsername, username)
		if role := strings.ToLower(claimString(claims, "role")); role != "" {
			c.Locals(LocalRole, role)
		}
		if cardID := claimString(claims, "card_id"); cardID != "" {
			c.Locals(LocalCardID, cardID)
		}
		if class := claimString(claims, "class"); class != "" {
			c.Locals(LocalManagedClass, class)
		}

		return c.Next()
	}
}

func claimString(claims jwt.MapClaims, key string) string {
	value, ok := claims[key]
	if !ok {
		return ""
	}
	if str, ok := value.(string); ok {
		return strings.TrimSpace(str)
	}
	return ""
}
