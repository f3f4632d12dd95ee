package user

import (
	"rugged-weave-auth/logger"
	authModel "rugged-weave-auth/models/auth"
	"rugged-weave-auth/types"
	authTypes "rugged-weave-auth/types/auth"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Controller struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *Controller {
	return &Controller{DB: db}
}

// GetUserInfo returns the authenticated user's profile. The auth middleware
// stores the subject uuid in locals.
func (uc *Controller) GetUserInfo(c *fiber.Ctx) error {
	userUuid, ok := c.Locals("user_uuid").(string)
	if !ok || userUuid == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Message: "Unauthorized",
			Status:  fiber.StatusUnauthorized,
		})
	}

	var user authModel.User
	if err := uc.DB.Where("uuid = ?", userUuid).First(&user).Error; err != nil {
		logger.Error("Failed to load user profile", err)
		return c.Status(fiber.StatusNotFound).JSON(types.ErrorResponse{
			Message: "User not found",
			Status:  fiber.StatusNotFound,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Profile loaded",
		Status:  fiber.StatusOK,
		Data: authTypes.UserResponse{
			Uuid:          user.Uuid,
			Name:          user.Name,
			Email:         user.Email,
			EmailVerified: user.EmailVerified,
			Image:         user.Image,
		},
	})
}
