package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// DatabaseConfig holds PostgreSQL settings for the submission log.
type DatabaseConfig struct {
	Host               string `validate:"required"`
	Port               string `validate:"required,numeric"`
	User               string `validate:"required"`
	Password           string
	Name               string `validate:"required"`
	SSLMode            string `validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	ApplicationName    string
	ConnectTimeoutSec  int    `validate:"gte=0"`
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// Validate checks that the connection settings can form a DSN.
func (c DatabaseConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validation failed for DatabaseConfig: %w", err)
	}
	return nil
}

// MinIOConfig holds object storage settings for the payload archive.
type MinIOConfig struct {
	Endpoint  string `validate:"required,hostname_port"`
	AccessKey string `validate:"required"`
	SecretKey string `validate:"required"`
	Bucket    string `validate:"required,min=3,max=63"`
	UseSSL    bool
}

// Validate checks the object storage settings.
func (c MinIOConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validation failed for MinIOConfig: %w", err)
	}
	return nil
}

// CRPTConfig holds the upstream ISMP endpoint and the outgoing request budget.
type CRPTConfig struct {
	BaseURL      string `validate:"required,url"`
	APIVersion   string `validate:"required,startswith=/"`
	Token        string
	RequestLimit int    `validate:"gt=0"`
	TimeUnit     string `validate:"required"`
	TimeoutSec   int    `validate:"gt=0"`
}

// Validate checks the CRPT settings.
func (c CRPTConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validation failed for CRPTConfig: %w", err)
	}
	return nil
}

// LoggerConfig controls the structured logger.
// File is optional; when set, logs are also written to a rotated file.
type LoggerConfig struct {
	Level      string `validate:"required,oneof=debug info warn error"`
	File       string
	MaxSizeMB  int `validate:"omitempty,min=1,max=100"`
	MaxBackups int `validate:"omitempty,min=1,max=10"`
	MaxAgeDays int `validate:"omitempty,min=1,max=365"`
}

// Validate checks the logger settings.
func (c LoggerConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validation failed for LoggerConfig: %w", err)
	}
	return nil
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	AppScheme string
	Port      string
	Database  DatabaseConfig
	MinIO     MinIOConfig
	CRPT      CRPTConfig
	Logger    LoggerConfig

	// HTTPRateLimit is the inbound requests per second per client IP; 0 disables it.
	HTTPRateLimit int
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:   getEnv("APP_HOST", "localhost:8080"),
		AppScheme: getEnv("APP_SCHEME", "http"),
		Port:      getEnv("PORT", "8080"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			ApplicationName:    getEnv("DB_APPLICATION_NAME", "crptapi"),
			ConnectTimeoutSec:  getEnvInt("DB_CONNECT_TIMEOUT_SEC", 5),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		CRPT: CRPTConfig{
			BaseURL:      getEnv("CRPT_BASE_URL", "https://ismp.crpt.ru"),
			APIVersion:   getEnv("CRPT_API_VERSION", "/api/v3"),
			Token:        getEnv("CRPT_TOKEN", ""),
			RequestLimit: getEnvInt("CRPT_REQUEST_LIMIT", 5),
			TimeUnit:     getEnv("CRPT_TIME_UNIT", "SECONDS"),
			TimeoutSec:   getEnvInt("CRPT_TIMEOUT_SEC", 30),
		},
		Logger: LoggerConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		},
		HTTPRateLimit: getEnvInt("HTTP_RATE_LIMIT_PER_SEC", 20),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
