package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPHost string
	HTTPPort string

	MongoURI      string
	MongoDatabase string

	ClientURL string

	JWTSessionSecret    string
	JWTActivationSecret string
	JWTResetSecret      string
	SessionTokenTTL     time.Duration
	ActivationTokenTTL  time.Duration
	ResetTokenTTL       time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	MediaBaseURL    string
	MediaAPIKey     string
	MediaAPISecret  string
	MediaRootFolder string

	UploadDir        string
	MaxUploadBytes   int64
	AllowedMIMETypes []string

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		return nil, errors.New("MONGO_URI environment variable is required")
	}

	sessionSecret := os.Getenv("JWT_SESSION_SECRET")
	if sessionSecret == "" {
		return nil, errors.New("JWT_SESSION_SECRET environment variable is required")
	}

	activationSecret := os.Getenv("JWT_ACTIVATION_SECRET")
	if activationSecret == "" {
		return nil, errors.New("JWT_ACTIVATION_SECRET environment variable is required")
	}

	resetSecret := os.Getenv("JWT_RESET_SECRET")
	if resetSecret == "" {
		return nil, errors.New("JWT_RESET_SECRET environment variable is required")
	}

	return &Config{
		HTTPHost: getEnv("HTTP_HOST", ""),
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		MongoURI:      mongoURI,
		MongoDatabase: getEnv("MONGO_DATABASE", "commerce"),

		ClientURL: getEnv("CLIENT_URL", "http://localhost:3000"),

		JWTSessionSecret:    sessionSecret,
		JWTActivationSecret: activationSecret,
		JWTResetSecret:      resetSecret,
		SessionTokenTTL:     getDurationEnv("SESSION_TOKEN_TTL", 15*time.Minute),
		ActivationTokenTTL:  getDurationEnv("ACTIVATION_TOKEN_TTL", 10*time.Minute),
		ResetTokenTTL:       getDurationEnv("RESET_TOKEN_TTL", 10*time.Minute),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getIntEnv("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@localhost"),

		MediaBaseURL:    getEnv("MEDIA_BASE_URL", ""),
		MediaAPIKey:     getEnv("MEDIA_API_KEY", ""),
		MediaAPISecret:  getEnv("MEDIA_API_SECRET", ""),
		MediaRootFolder: getEnv("MEDIA_ROOT_FOLDER", "EcommerceImageServer"),

		UploadDir:        getEnv("UPLOAD_DIR", os.TempDir()),
		MaxUploadBytes:   getInt64Env("MAX_UPLOAD_BYTES", 4*1024*1024),
		AllowedMIMETypes: []string{"image/jpeg", "image/png", "image/webp"},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
