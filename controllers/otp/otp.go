package otp

import (
	"errors"
	"fmt"
	"time"

	"rugged-weave-auth/config"
	"rugged-weave-auth/constants"
	"rugged-weave-auth/logger"
	authModel "rugged-weave-auth/models/auth"
	otpModel "rugged-weave-auth/models/otp"
	otpService "rugged-weave-auth/services/otp"
	"rugged-weave-auth/services/rate"
	sessionService "rugged-weave-auth/services/session"
	"rugged-weave-auth/types"
	authTypes "rugged-weave-auth/types/auth"
	otpTypes "rugged-weave-auth/types/otp"
	"rugged-weave-auth/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Controller handles OTP-related HTTP requests
type Controller struct {
	DB         *gorm.DB
	OTPService *otpService.Service
	Sessions   *sessionService.Service
	Cfg        *config.Config
}

// NewOTPController creates a new OTP controller
func NewOTPController(db *gorm.DB, otpSvc *otpService.Service, sessions *sessionService.Service, cfg *config.Config) *Controller {
	return &Controller{
		DB:         db,
		OTPService: otpSvc,
		Sessions:   sessions,
		Cfg:        cfg,
	}
}

// SendOTP sends a one-time code to the provided email address.
func (oc *Controller) SendOTP(c *fiber.Ctx) error {
	var req otpTypes.SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid email or OTP purpose",
		})
	}

	purpose, ok := otpModel.ParsePurpose(req.Purpose)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid OTP purpose",
		})
	}

	otpRecord, err := oc.OTPService.SendOTP(c.Context(), req.Email, purpose, c)
	if err != nil {
		switch {
		case errors.Is(err, rate.ErrRateLimited), errors.Is(err, otpService.ErrActiveOTPExists):
			return c.Status(fiber.StatusTooManyRequests).JSON(types.ApiResponse{
				Status:  fiber.StatusTooManyRequests,
				Message: err.Error(),
				Data: otpTypes.OTPResponse{
					Message: "Please wait before requesting a new code",
					Success: false,
				},
			})
		case errors.Is(err, otpService.ErrOTPBlocked):
			return c.Status(fiber.StatusTooManyRequests).JSON(types.ApiResponse{
				Status:  fiber.StatusTooManyRequests,
				Message: err.Error(),
			})
		default:
			// Delivery failures (including a missing transport) are never
			// detailed to the end user; telemetry carries the reason.
			logger.Error("Failed to send OTP", err)
			return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
				Status:  fiber.StatusInternalServerError,
				Message: "Unable to send code",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "OTP sent successfully",
		Data: otpTypes.OTPResponse{
			Message:   "OTP sent to your email address",
			ExpiresAt: otpRecord.ExpiresAt.Format("2006-01-02 15:04:05"),
			Success:   true,
		},
	})
}

// VerifyOTP verifies the provided code and completes the purpose-specific
// flow: sign-in opens a session, email-verification flips the flag, and
// forget-password returns a short-lived reset grant.
func (oc *Controller) VerifyOTP(c *fiber.Ctx) error {
	var req otpTypes.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid email, code or purpose",
		})
	}

	purpose, ok := otpModel.ParsePurpose(req.Purpose)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid OTP purpose",
		})
	}

	valid, _, err := oc.OTPService.VerifyOTP(req.Email, req.OTPCode, purpose)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: err.Error(),
		})
	}
	if !valid {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Invalid or expired OTP",
		})
	}

	email := utils.NormalizeEmail(req.Email)

	switch purpose {
	case otpModel.OTPPurposeSignIn:
		return oc.completeSignIn(c, email)
	case otpModel.OTPPurposeEmailVerification:
		return oc.completeEmailVerification(c, email)
	case otpModel.OTPPurposeForgetPassword:
		return oc.issueResetGrant(c, email)
	}

	return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
		Status:  fiber.StatusBadRequest,
		Message: "Invalid OTP purpose",
	})
}

// completeSignIn opens a session for the verified identity, creating the
// user on first sign-in, mirroring passwordless email sign-up.
func (oc *Controller) completeSignIn(c *fiber.Ctx, email string) error {
	var user authModel.User
	err := oc.DB.Where("email = ?", email).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		user = authModel.User{
			Uuid:          uuid.NewString(),
			Name:          utils.DeriveDisplayName(email, ""),
			Email:         email,
			EmailVerified: true, // they just proved ownership
		}
		if err := oc.DB.Create(&user).Error; err != nil {
			logger.Error("Failed to create user on OTP sign-in", err)
			return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
				Status:  fiber.StatusInternalServerError,
				Message: "Internal server error",
			})
		}
		oc.Sessions.PublishUserCreated(&user, c)
	} else if err != nil {
		logger.Error("Failed to load user", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	session, accessToken, err := oc.Sessions.CreateSession(&user, c)
	if err != nil {
		logger.Error("Failed to create session", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     "session_token",
		Value:    session.Token,
		HTTPOnly: true,
		Secure:   oc.Cfg.IsProduction(),
		SameSite: "None",
		MaxAge:   int(oc.Cfg.SessionTTL.Seconds()),
		Path:     "/",
	})

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Sign-in successful",
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

func (oc *Controller) completeEmailVerification(c *fiber.Ctx, email string) error {
	res := oc.DB.Model(&authModel.User{}).Where("email = ?", email).Update("email_verified", true)
	if res.Error != nil {
		logger.Error("Failed to mark email verified", res.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "No account found for this email",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Email verified successfully",
		Data: otpTypes.OTPResponse{
			Message: "Email verified",
			Success: true,
		},
	})
}

// issueResetGrant mints a short-lived token proving the forget-password OTP
// was verified; ResetPassword consumes it.
func (oc *Controller) issueResetGrant(c *fiber.Ctx, email string) error {
	claims := jwt.MapClaims{
		"sub":     email,
		"purpose": "password-reset",
		"exp":     time.Now().Add(15 * time.Minute).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(oc.Cfg.JWTSecret))
	if err != nil {
		logger.Error("Failed to sign reset grant", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "OTP verified. Use the reset token to set a new password.",
		Token:   signed,
	})
}

// ResetPassword applies a new password using a reset grant.
func (oc *Controller) ResetPassword(c *fiber.Ctx) error {
	var req otpTypes.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid reset token or password",
		})
	}

	claims, err := utils.ParseAccessToken(req.ResetToken, oc.Cfg.JWTSecret)
	if err != nil || claims["purpose"] != "password-reset" {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Invalid or expired reset token",
		})
	}

	email, _ := claims["sub"].(string)
	if email == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Invalid or expired reset token",
		})
	}

	var user authModel.User
	if err := oc.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "No account found for this email",
		})
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	hash := string(passwordHash)
	err = oc.DB.Transaction(func(tx *gorm.DB) error {
		var account authModel.Account
		err := tx.Where("user_id = ? AND provider_id = ?", user.ID, constants.ProviderCredential).
			First(&account).Error
		if err == gorm.ErrRecordNotFound {
			account = authModel.Account{
				UserID:       user.ID,
				ProviderID:   constants.ProviderCredential,
				AccountID:    email,
				PasswordHash: &hash,
			}
			return tx.Create(&account).Error
		}
		if err != nil {
			return err
		}
		account.PasswordHash = &hash
		return tx.Save(&account).Error
	})
	if err != nil {
		logger.Error("Failed to update password", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to update password",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Password updated successfully",
	})
}

// GetOTPRetryInfo returns retry/block state for an email and purpose.
func (oc *Controller) GetOTPRetryInfo(c *fiber.Ctx) error {
	var req otpTypes.SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	purpose, ok := otpModel.ParsePurpose(req.Purpose)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid OTP purpose",
		})
	}

	info, err := oc.OTPService.GetOTPRetryInfo(req.Email, purpose)
	if err != nil {
		logger.Error("Failed to get OTP retry info", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: fmt.Sprintf("Retry info for %s", purpose),
		Data:    info,
	})
}
