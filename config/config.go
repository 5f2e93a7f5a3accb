package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	PasswordReset PasswordResetConfig
	Email         EmailConfig
	S3            S3Config
	OpenAI        OpenAIConfig
	GoogleDrive   GoogleDriveConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Enabled switches the password reset rate limiter to the Redis
	// fixed-window implementation. When false the database-backed
	// counter store is used and Redis is not contacted.
	Enabled bool
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// PasswordResetConfig holds the reset token lifecycle settings.
// Overriding any value does not change the lifecycle invariants.
type PasswordResetConfig struct {
	TokenExpiry      time.Duration
	TokenLength      int
	UserLimitPerHour int
	IPLimitPerHour   int
	CleanupInterval  time.Duration
	CleanupGrace     time.Duration
}

type EmailConfig struct {
	ResendAPIKey string
	FromAddress  string
	AppBaseURL   string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type GoogleDriveConfig struct {
	AccessToken string
	BaseURL     string
	UploadURL   string
	FolderID    string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "resume_modifier"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "false")),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m"), 15*time.Minute),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		PasswordReset: PasswordResetConfig{
			TokenExpiry:      time.Duration(parseInt(getEnv("RESET_TOKEN_EXPIRY_HOURS", "24"), 24)) * time.Hour,
			TokenLength:      parseInt(getEnv("RESET_TOKEN_LENGTH", "64"), 64),
			UserLimitPerHour: parseInt(getEnv("RESET_RATE_LIMIT_USER_PER_HOUR", "5"), 5),
			IPLimitPerHour:   parseInt(getEnv("RESET_RATE_LIMIT_IP_PER_HOUR", "10"), 10),
			CleanupInterval:  time.Duration(parseInt(getEnv("RESET_CLEANUP_INTERVAL_HOURS", "6"), 6)) * time.Hour,
			CleanupGrace:     time.Duration(parseInt(getEnv("RESET_CLEANUP_GRACE_HOURS", "24"), 24)) * time.Hour,
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromAddress:  getEnv("EMAIL_FROM_ADDRESS", "noreply@resumemodifier.app"),
			AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:3000"),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-southeast-2"),
			Bucket:          getEnv("AWS_S3_BUCKET", "resume-modifier-uploads"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		GoogleDrive: GoogleDriveConfig{
			AccessToken: getEnv("GDRIVE_ACCESS_TOKEN", ""),
			BaseURL:     getEnv("GDRIVE_BASE_URL", "https://www.googleapis.com/drive/v3"),
			UploadURL:   getEnv("GDRIVE_UPLOAD_URL", "https://www.googleapis.com/upload/drive/v3"),
			FolderID:    getEnv("GDRIVE_FOLDER_ID", ""),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
