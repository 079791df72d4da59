package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Security SecurityConfig
	Notify   NotifyConfig
	Logger   LoggerConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ServerConfig struct {
	Host string
	Port int
}

// SecurityConfig carries the validation and anti-abuse constants shared by
// the submit endpoint and the client pipeline.
type SecurityConfig struct {
	AllowedOrigins     []string
	SubmissionCooldown time.Duration
	RateLimitMax       int
	RateLimitWindow    time.Duration
	TimestampMaxAge    time.Duration
	TimestampMaxSkew   time.Duration
	SubmitRPS          int
	SubmitBurst        int
	RequestTimeout     time.Duration
}

type NotifyConfig struct {
	Enabled  bool
	SMTPHost string
	SMTPPort int
	Username string
	Password string
	From     string
}

type LoggerConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// It's okay if .env file doesn't exist in production
	}

	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	serverPort, _ := strconv.Atoi(getEnv("SERVER_PORT", "4710"))
	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "587"))

	rateLimitMax, _ := strconv.Atoi(getEnv("RATE_LIMIT_MAX", "3"))
	submitRPS, _ := strconv.Atoi(getEnv("SUBMIT_RPS", "1"))
	submitBurst, _ := strconv.Atoi(getEnv("SUBMIT_BURST", "5"))

	cooldown, _ := time.ParseDuration(getEnv("SUBMISSION_COOLDOWN", "30s"))
	rateWindow, _ := time.ParseDuration(getEnv("RATE_LIMIT_WINDOW", "1h"))
	tsMaxAge, _ := time.ParseDuration(getEnv("TIMESTAMP_MAX_AGE", "5m"))
	tsMaxSkew, _ := time.ParseDuration(getEnv("TIMESTAMP_MAX_SKEW", "1m"))
	reqTimeout, _ := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "10s"))

	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     port,
			User:     getEnv("DB_USER", "nexora_user"),
			Password: getEnv("DB_PASSWORD", "nexora_password"),
			DBName:   getEnv("DB_NAME", "nexora_forms"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: serverPort,
		},
		Security: SecurityConfig{
			AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "*")),
			SubmissionCooldown: cooldown,
			RateLimitMax:       rateLimitMax,
			RateLimitWindow:    rateWindow,
			TimestampMaxAge:    tsMaxAge,
			TimestampMaxSkew:   tsMaxSkew,
			SubmitRPS:          submitRPS,
			SubmitBurst:        submitBurst,
			RequestTimeout:     reqTimeout,
		},
		Notify: NotifyConfig{
			Enabled:  getEnv("NOTIFY_ENABLED", "false") == "true",
			SMTPHost: getEnv("SMTP_HOST", "localhost"),
			SMTPPort: smtpPort,
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@novanexushub.org"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
