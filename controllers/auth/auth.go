package auth

import (
	"fmt"

	"rugged-weave-auth/config"
	"rugged-weave-auth/constants"
	"rugged-weave-auth/logger"
	authModel "rugged-weave-auth/models/auth"
	otpModel "rugged-weave-auth/models/otp"
	otpService "rugged-weave-auth/services/otp"
	sessionService "rugged-weave-auth/services/session"
	"rugged-weave-auth/types"
	authTypes "rugged-weave-auth/types/auth"
	"rugged-weave-auth/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct {
	db       *gorm.DB
	sessions *sessionService.Service
	otp      *otpService.Service
	cfg      *config.Config
}

func NewAuthController(db *gorm.DB, sessions *sessionService.Service, otp *otpService.Service, cfg *config.Config) *AuthController {
	return &AuthController{db: db, sessions: sessions, otp: otp, cfg: cfg}
}

// Helper function to set secure cookies based on environment
func (h *AuthController) setSecureCookie(c *fiber.Ctx, name, value string, maxAge int) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		HTTPOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: "None",
		MaxAge:   maxAge,
		Path:     "/",
	})
}

// Register creates a user with a credential account and fires an
// email-verification code at the new address.
func (h *AuthController) Register(c *fiber.Ctx) error {
	var req authTypes.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: fmt.Sprintf("Validation failed: %v", err),
			Status:  fiber.StatusBadRequest,
		})
	}

	email := utils.NormalizeEmail(req.Email)
	name := utils.DeriveDisplayName(email, req.Name)

	// Reject duplicate identities up front
	var existing authModel.User
	err := h.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(types.ErrorResponse{
			Message: "An account with this email already exists",
			Status:  fiber.StatusConflict,
		})
	}
	if err != gorm.ErrRecordNotFound {
		logger.Error("Failed to check existing user", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Internal server error",
			Status:  fiber.StatusInternalServerError,
		})
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Internal server error",
			Status:  fiber.StatusInternalServerError,
		})
	}

	user := authModel.User{
		Uuid:  uuid.NewString(),
		Name:  name,
		Email: email,
	}

	hash := string(passwordHash)
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		account := authModel.Account{
			UserID:       user.ID,
			ProviderID:   constants.ProviderCredential,
			AccountID:    email,
			PasswordHash: &hash,
		}
		return tx.Create(&account).Error
	})
	if err != nil {
		logger.Error("Failed to create user", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Failed to create account",
			Status:  fiber.StatusInternalServerError,
		})
	}

	h.sessions.PublishUserCreated(&user, c)
	logger.Success("User registered: " + user.Uuid)

	// Kick off email verification. The account exists either way; a
	// delivery failure only means the code must be re-requested.
	message := "Account created. A verification code has been sent to your email."
	if _, err := h.otp.SendOTP(c.Context(), email, otpModel.OTPPurposeEmailVerification, c); err != nil {
		logger.Error("Failed to send verification code", err)
		message = "Account created, but we were unable to send the verification code. Please request a new one."
	}

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Message: message,
		Status:  fiber.StatusCreated,
		Data: authTypes.UserResponse{
			Uuid:          user.Uuid,
			Name:          user.Name,
			Email:         user.Email,
			EmailVerified: user.EmailVerified,
			Image:         user.Image,
		},
	})
}

// Login authenticates email+password and opens a session.
func (h *AuthController) Login(c *fiber.Ctx) error {
	var req authTypes.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: fmt.Sprintf("Validation failed: %v", err),
			Status:  fiber.StatusBadRequest,
		})
	}

	email := utils.NormalizeEmail(req.Email)

	var user authModel.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Message: "Invalid email or password",
			Status:  fiber.StatusUnauthorized,
		})
	}

	var account authModel.Account
	err := h.db.Where("user_id = ? AND provider_id = ?", user.ID, constants.ProviderCredential).
		First(&account).Error
	if err != nil || account.PasswordHash == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Message: "Invalid email or password",
			Status:  fiber.StatusUnauthorized,
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*account.PasswordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Message: "Invalid email or password",
			Status:  fiber.StatusUnauthorized,
		})
	}

	session, accessToken, err := h.sessions.CreateSession(&user, c)
	if err != nil {
		logger.Error("Failed to create session", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Message: "Internal server error",
			Status:  fiber.StatusInternalServerError,
		})
	}

	h.setSecureCookie(c, "session_token", session.Token, int(h.cfg.SessionTTL.Seconds()))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Login successful",
		Status:  fiber.StatusOK,
		Token:   accessToken,
		Data: authTypes.SessionResponse{
			User: authTypes.UserResponse{
				Uuid:          user.Uuid,
				Name:          user.Name,
				Email:         user.Email,
				EmailVerified: user.EmailVerified,
				Image:         user.Image,
			},
			SessionToken: session.Token,
			ExpiresAt:    session.ExpiresAt.Format("2006-01-02 15:04:05"),
		},
	})
}

// Refresh extends the current session and returns a fresh access token.
func (h *AuthController) Refresh(c *fiber.Ctx) error {
	token := c.Cookies("session_token")
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Message: "No active session",
			Status:  fiber.StatusUnauthorized,
		})
	}

	session, accessToken, err := h.sessions.RefreshSession(token, c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Message: "Session expired or invalid",
			Status:  fiber.StatusUnauthorized,
		})
	}

	h.setSecureCookie(c, "session_token", session.Token, int(h.cfg.SessionTTL.Seconds()))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Session refreshed",
		Status:  fiber.StatusOK,
		Token:   accessToken,
	})
}

// LogOut closes the current session and clears the cookie.
func (h *AuthController) LogOut(c *fiber.Ctx) error {
	token := c.Cookies("session_token")
	if token == "" {
		// Fall back to bearer-style logout for API clients
		if bearer, err := utils.ExtractBearerToken(c); err == nil {
			token = bearer
		}
	}

	if token != "" {
		if err := h.sessions.DeleteSession(token); err != nil {
			logger.Error("Failed to delete session", err)
		}
	}

	h.setSecureCookie(c, "session_token", "", -1)

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Logged out",
		Status:  fiber.StatusOK,
	})
}
