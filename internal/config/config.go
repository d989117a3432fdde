package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Payment   PaymentConfig
	Email     EmailConfig
	SMS       SMSConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Scheduler SchedulerConfig
	CORS      CORSConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

// AdminConfig lists emails that are granted admin rights on registration.
type AdminConfig struct {
	Emails []string
}

// PaymentConfig configures the payment gateway. KeySecret signs and verifies
// provider callbacks; StripeSecretKey enables real order creation.
type PaymentConfig struct {
	KeySecret       string
	StripeSecretKey string
	Currency        string
	Timeout         time.Duration
}

type EmailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	Timeout        time.Duration
}

type SMSConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

type RedisConfig struct {
	URL string
}

type StorageConfig struct {
	AWSRegion     string
	AWSAccessKey  string
	AWSSecretKey  string
	Bucket        string
	LocalDir      string
	PublicBaseURL string
}

type SchedulerConfig struct {
	ReminderSpec string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			URL:          getEnv("DATABASE_URL", ""),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			Secret:         getEnv("JWT_SECRET", ""),
			AccessTokenTTL: getDurationEnv("JWT_ACCESS_TTL", 7*24*time.Hour),
		},
		Admin: AdminConfig{
			Emails: getStringSliceEnv("ADMIN_EMAILS", nil),
		},
		Payment: PaymentConfig{
			KeySecret:       getEnv("PAYMENT_KEY_SECRET", ""),
			StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			Currency:        strings.ToLower(getEnv("PAYMENT_CURRENCY", "inr")),
			Timeout:         getDurationEnv("PAYMENT_TIMEOUT", 10*time.Second),
		},
		Email: EmailConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			FromEmail:      getEnv("SENDGRID_FROM_EMAIL", ""),
			FromName:       getEnv("SENDGRID_FROM_NAME", "VehiRent"),
			Timeout:        getDurationEnv("NOTIFY_TIMEOUT", 15*time.Second),
		},
		SMS: SMSConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Storage: StorageConfig{
			AWSRegion:     getEnv("AWS_REGION", ""),
			AWSAccessKey:  getEnv("AWS_ACCESS_KEY_ID", ""),
			AWSSecretKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Bucket:        getEnv("INVOICE_BUCKET", ""),
			LocalDir:      getEnv("INVOICE_DIR", "./invoices"),
			PublicBaseURL: getEnv("BASE_URL", "http://localhost:8080"),
		},
		Scheduler: SchedulerConfig{
			ReminderSpec: getEnv("REMINDER_CRON", "0 9 * * *"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Payment.KeySecret == "" {
		return fmt.Errorf("PAYMENT_KEY_SECRET is required")
	}
	if c.Payment.Timeout <= 0 || c.Email.Timeout <= 0 {
		return fmt.Errorf("PAYMENT_TIMEOUT and NOTIFY_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) IsEmailConfigured() bool {
	return c.Email.SendGridAPIKey != "" && c.Email.FromEmail != ""
}

func (c *Config) IsSMSConfigured() bool {
	return c.SMS.AccountSID != "" && c.SMS.AuthToken != "" && c.SMS.FromNumber != ""
}

func (c *Config) IsS3Configured() bool {
	return c.Storage.AWSRegion != "" && c.Storage.AWSAccessKey != "" && c.Storage.AWSSecretKey != "" && c.Storage.Bucket != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var parts []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return defaultValue
	}
	return parts
}
