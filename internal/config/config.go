package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// HTTP Server
	Port           string
	Env            string
	LogLevel       string
	RequestTimeout time.Duration
	RateLimit      int

	// Databases
	TasksDBPath   string
	FinanceDBPath string

	// Auth
	JWTSecret string
	JWTTTL    time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	ExportBackend            string
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Recurring worker
	RecurringSchedule string
	RecurringCatchUp  bool

	// Sync worker
	SyncPollInterval time.Duration
	SyncBatchSize    int

	// Timezone decides which calendar day "today" is.
	Timezone string
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("APP_ENV", "production"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		RateLimit:      getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		TasksDBPath:   getEnv("TASKS_DB_PATH", "./data/tasks.db"),
		FinanceDBPath: getEnv("FINANCE_DB_PATH", "./data/finance.db"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getEnvDuration("JWT_TTL", 7*24*time.Hour),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "produtivo"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_transactions"),

		ExportBackend:            getEnv("EXPORT_BACKEND", "memory"),
		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),

		RecurringSchedule: getEnv("RECURRING_SCHEDULE", "0 2 * * *"),
		RecurringCatchUp:  getEnvBool("RECURRING_CATCH_UP", false),

		SyncPollInterval: getEnvDuration("SYNC_POLL_INTERVAL", time.Minute),
		SyncBatchSize:    getEnvInt("SYNC_BATCH_SIZE", 20),

		Timezone: getEnv("TZ_NAME", "America/Sao_Paulo"),
	}

	return cfg
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate validates the configuration of the API server.
func (c *Config) Validate() error {
	return c.validate(true)
}

// ValidateWorker validates the configuration of the background workers,
// which never issue or verify tokens.
func (c *Config) ValidateWorker() error {
	return c.validate(false)
}

func (c *Config) validate(requireAuth bool) error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.Env {
	case "development", "production", "test":
	default:
		errors = append(errors, fmt.Sprintf("invalid APP_ENV '%s': must be development, production or test", c.Env))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	for _, db := range []struct{ name, path string }{{"tasks", c.TasksDBPath}, {"finance", c.FinanceDBPath}} {
		name, path := db.name, db.path
		if path == "" {
			errors = append(errors, fmt.Sprintf("%s database path cannot be empty", name))
			continue
		}
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create %s database directory '%s': %v", name, dir, err))
				}
			}
		}
	}

	if requireAuth {
		if c.JWTSecret == "" {
			errors = append(errors, "JWT_SECRET is required")
		} else if len(c.JWTSecret) < 16 && !c.IsDevelopment() {
			errors = append(errors, "JWT_SECRET must be at least 16 characters outside development")
		}
		if c.JWTTTL < time.Minute {
			errors = append(errors, fmt.Sprintf("invalid JWT TTL %v: must be at least 1 minute", c.JWTTTL))
		}
	}

	if c.RequestTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at least 1 second", c.RequestTimeout))
	}
	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimit))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.ExportBackend {
	case "memory":
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets export")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets export")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets export")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid export backend '%s': must be one of [memory sheets]", c.ExportBackend))
	}

	if c.SyncPollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync poll interval %v: must be at least 1 second", c.SyncPollInterval))
	}
	if c.SyncBatchSize < 1 || c.SyncBatchSize > 500 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be between 1 and 500", c.SyncBatchSize))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if _, err := cron.ParseStandard(c.RecurringSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid recurring schedule '%s': %v", c.RecurringSchedule, err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
