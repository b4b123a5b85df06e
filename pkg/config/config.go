// ==============================================================================
// CONFIG PACKAGE - pkg/config/config.go
// ==============================================================================
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Vision     VisionConfig
	Email      EmailConfig
	Compliance ComplianceConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// VisionConfig points at the external OCR / face-similarity service.
type VisionConfig struct {
	BaseURL string
	Timeout time.Duration
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPUseTLS   bool
	// ComplianceInbox receives renewal and settlement notices.
	ComplianceInbox string
}

type ComplianceConfig struct {
	// MarginRate is the flat margin requirement as a fraction of trade value.
	MarginRate string
	// ExpiryNoticeDays is the look-ahead window for KYC renewal notices.
	ExpiryNoticeDays int
	// IdleThresholdDays marks funds as settlement-due when no trade occurred.
	IdleThresholdDays int
	// KYCValidityDays is the offset between kyc_last_updated and
	// kyc_expiry_date. Defaults to 8 years at 365 days each; not leap-aware.
	KYCValidityDays int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:      normalizeRedisURL(getEnv("REDIS_URL", "localhost:6379")),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Vision: VisionConfig{
			BaseURL: getEnv("VISION_SERVICE_URL", "http://localhost:7500"),
			Timeout: getDurationEnv("VISION_TIMEOUT", 30*time.Second),
		},
		Email: EmailConfig{
			SMTPHost:        getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:        getIntEnv("SMTP_PORT", 587),
			SMTPUsername:    getEnv("SMTP_USERNAME", ""),
			SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
			SMTPFrom:        getEnv("SMTP_FROM", ""),
			SMTPUseTLS:      getBoolEnv("SMTP_USE_TLS", true),
			ComplianceInbox: getEnv("COMPLIANCE_INBOX", "compliance@localhost"),
		},
		Compliance: ComplianceConfig{
			MarginRate:        getEnv("MARGIN_RATE", "0.20"),
			ExpiryNoticeDays:  getIntEnv("KYC_EXPIRY_NOTICE_DAYS", 30),
			IdleThresholdDays: getIntEnv("SETTLEMENT_IDLE_DAYS", 90),
			KYCValidityDays:   getIntEnv("KYC_VALIDITY_DAYS", 2920),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func normalizeRedisURL(url string) string {
	// Strip redis:// or redis+tls:// scheme if present
	if strings.HasPrefix(url, "redis+tls://") {
		return url[len("redis+tls://"):]
	}
	if strings.HasPrefix(url, "redis://") {
		return url[len("redis://"):]
	}
	return url
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return defaultValue
}
