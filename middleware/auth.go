package middleware

import (
	"rugged-weave-auth/config"
	"rugged-weave-auth/types"
	"rugged-weave-auth/utils"

	"github.com/gofiber/fiber/v2"
)

// IsAuthenticated validates the bearer access token and stores the subject
// uuid in locals for downstream handlers.
func IsAuthenticated(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := utils.ExtractBearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
				Message: "Unauthorized",
				Status:  fiber.StatusUnauthorized,
			})
		}

		claims, err := utils.ParseAccessToken(tokenString, cfg.JWTSecret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
				Message: "Invalid or expired token",
				Status:  fiber.StatusUnauthorized,
			})
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
				Message: "Invalid token claims",
				Status:  fiber.StatusUnauthorized,
			})
		}

		c.Locals("user_uuid", sub)
		c.Locals("claims", claims)

		return c.Next()
	}
}
