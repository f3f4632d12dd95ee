package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, resolved once at startup.
// Nothing inside the request path reads the environment directly.
type Config struct {
	AppHost     string
	AppPort     string
	AppEnv      string
	FrontendURL string

	DBHost     string
	DBPort     string
	DBDatabase string
	DBUsername string
	DBPassword string
	DBSSLMode  string

	RedisAddr string
	RedisPass string
	RedisDB   int

	JWTSecret      string
	SessionTTL     time.Duration
	AccessTokenTTL time.Duration

	// OTP lifecycle settings
	OTPTTL          time.Duration
	OTPMaxRetries   int
	OTPRateWindow   time.Duration
	OTPMaxPerWindow int
	OTPCooldown     time.Duration

	// Telemetry sink settings
	TelemetryWebhookURL   string
	TelemetryWebhookToken string
	TelemetryDebug        bool
	TelemetryEnabled      bool

	// OTP delivery settings
	OTPWebhookURL   string
	OTPWebhookToken string
	DebugShowOTP    bool

	// Retention for telemetry journal and OTP event rows, in days
	RetentionDays int
}

// Load reads the environment (plus an optional .env file) into a Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on system env vars")
	}

	return &Config{
		AppHost:     getEnv("APP_HOST", "0.0.0.0"),
		AppPort:     getEnv("APP_PORT", "8080"),
		AppEnv:      getEnv("APP_ENV", "development"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBDatabase: getEnv("DB_DATABASE", "rugged_weave_auth"),
		DBUsername: getEnv("DB_USERNAME", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass: getEnv("REDIS_PASS", ""),
		RedisDB:   atoiOrDefault(getEnv("REDIS_DB", "0"), 0),

		JWTSecret:      getEnv("JWT_SECRET", ""),
		SessionTTL:     durationOrDefault(getEnv("SESSION_TTL", ""), 168*time.Hour),
		AccessTokenTTL: durationOrDefault(getEnv("ACCESS_TOKEN_TTL", ""), 15*time.Minute),

		OTPTTL:          durationOrDefault(getEnv("OTP_TTL", ""), 5*time.Minute),
		OTPMaxRetries:   atoiOrDefault(getEnv("OTP_MAX_RETRIES", "3"), 3),
		OTPRateWindow:   durationOrDefault(getEnv("OTP_RATE_WINDOW", ""), 10*time.Minute),
		OTPMaxPerWindow: atoiOrDefault(getEnv("OTP_MAX_PER_WINDOW", "5"), 5),
		OTPCooldown:     durationOrDefault(getEnv("OTP_COOLDOWN", ""), 45*time.Second),

		TelemetryWebhookURL:   getEnv("AUTH_TELEMETRY_WEBHOOK_URL", ""),
		TelemetryWebhookToken: getEnv("AUTH_TELEMETRY_WEBHOOK_TOKEN", ""),
		TelemetryDebug:        getEnv("AUTH_TELEMETRY_DEBUG", "false") == "true",
		TelemetryEnabled:      getEnv("AUTH_TELEMETRY_ENABLED", "true") != "false",

		OTPWebhookURL:   getEnv("AUTH_OTP_WEBHOOK_URL", ""),
		OTPWebhookToken: getEnv("AUTH_OTP_WEBHOOK_TOKEN", ""),
		DebugShowOTP:    getEnv("AUTH_DEBUG_SHOW_OTP", "false") == "true",

		RetentionDays: atoiOrDefault(getEnv("RETENTION_DAYS", "30"), 30),
	}
}

// IsProduction reports whether the service runs with the production tag.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func atoiOrDefault(s string, def int) int {
	var i int
	_, err := fmt.Sscanf(s, "%d", &i)
	if err != nil || i < 0 {
		return def
	}
	return i
}
