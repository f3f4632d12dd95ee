package routes

import (
	"rugged-weave-auth/config"
	authController "rugged-weave-auth/controllers/auth"
	otpController "rugged-weave-auth/controllers/otp"
	userController "rugged-weave-auth/controllers/user"
	"rugged-weave-auth/logger"
	"rugged-weave-auth/middleware"
	"rugged-weave-auth/services/dispatch"
	otpService "rugged-weave-auth/services/otp"
	"rugged-weave-auth/services/rate"
	sessionService "rugged-weave-auth/services/session"
	"rugged-weave-auth/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	asyncLogger := logger.NewAsyncLogger(db)
	go asyncLogger.ProcessLog()

	publisher := telemetry.NewPublisher(cfg, asyncLogger)
	transport := dispatch.SelectTransport(cfg)
	dispatcher := dispatch.NewDispatcher(publisher, transport)

	var limiter *rate.Limiter
	if rdb != nil {
		limiter = rate.NewLimiter(rdb, cfg.OTPRateWindow, cfg.OTPMaxPerWindow, cfg.OTPCooldown)
	}

	otpSvc := otpService.NewOTPService(db, dispatcher, limiter, cfg)
	sessions := sessionService.NewService(db, publisher, cfg)

	auth := authController.NewAuthController(db, sessions, otpSvc, cfg)
	otp := otpController.NewOTPController(db, otpSvc, sessions, cfg)
	user := userController.NewUserController(db)

	// Health probe
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	api := app.Group("/api")
	api.Post("/auth/register", auth.Register)
	api.Post("/auth/login", auth.Login)
	api.Post("/auth/refresh", auth.Refresh)
	api.Post("/auth/logout", auth.LogOut)

	/*=============================================================================
	| OTP Routes
	===============================================================================*/
	otpGroup := api.Group("/otp")
	otpGroup.Post("/send", otp.SendOTP)
	otpGroup.Post("/verify", otp.VerifyOTP)
	otpGroup.Post("/retry-info", otp.GetOTPRetryInfo)
	otpGroup.Post("/reset-password", otp.ResetPassword)

	/*=============================================================================
	| Protected Routes
	===============================================================================*/
	protected := api.Group("/user").Use(middleware.IsAuthenticated(cfg))
	protected.Get("/profile", user.GetUserInfo)
}
