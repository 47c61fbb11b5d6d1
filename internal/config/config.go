package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"invoicegen/internal/booking"
	"invoicegen/internal/i18n"
	"invoicegen/internal/invoice"
	"invoicegen/internal/logger"
)

type Config struct {
	// Document Configuration
	InvoiceLanguage   string
	ValidationProfile string
	LogoFetchTimeout  time.Duration

	// Google Cloud Storage Configuration
	GCSBucket         string
	StoragePathPrefix string
	StoragePublicURL  string

	// Google Sheets Configuration
	GoogleSheetURL   string
	LedgerWorksheet  string
	BookingWorksheet string

	// Chart of Accounts Configuration
	ChartOfAccounts string

	// SendGrid Configuration
	SendGridAPIKey  string
	MailFromAddress string
	MailFromName    string

	// HTTP Configuration
	HTTPAddr           string
	CORSAllowedOrigins []string

	// Seller defaults
	Settings Settings

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	timeout, err := time.ParseDuration(getEnv("LOGO_FETCH_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: LOGO_FETCH_TIMEOUT: %w", err)
	}

	config := &Config{
		InvoiceLanguage:    getEnv("INVOICE_LANGUAGE", string(i18n.German)),
		ValidationProfile:  getEnv("VALIDATION_PROFILE", string(invoice.ProfileXRechnung)),
		LogoFetchTimeout:   timeout,
		GCSBucket:          getEnv("GCS_BUCKET", ""),
		StoragePathPrefix:  getEnv("STORAGE_PATH_PREFIX", ""),
		StoragePublicURL:   getEnv("STORAGE_PUBLIC_URL", ""),
		GoogleSheetURL:     getEnv("GOOGLE_SHEET_URL", ""),
		LedgerWorksheet:    getEnv("LEDGER_WORKSHEET", "Debitoren"),
		BookingWorksheet:   getEnv("BOOKING_WORKSHEET", "Buchungen"),
		ChartOfAccounts:    getEnv("CHART_OF_ACCOUNTS", "SKR03"),
		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		MailFromAddress:    getEnv("MAIL_FROM_ADDRESS", ""),
		MailFromName:       getEnv("MAIL_FROM_NAME", ""),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		Settings:           LoadSettings(),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:      getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:          getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validate checks formats only. Backends are optional here; each command
// requires the ones it uses.
func (c *Config) validate() error {
	if _, err := i18n.ParseLanguage(c.InvoiceLanguage); err != nil {
		return fmt.Errorf("INVOICE_LANGUAGE: %w", err)
	}
	if _, err := invoice.ParseProfile(c.ValidationProfile); err != nil {
		return fmt.Errorf("VALIDATION_PROFILE: %w", err)
	}
	if _, err := booking.ParseChart(c.ChartOfAccounts); err != nil {
		return fmt.Errorf("CHART_OF_ACCOUNTS: %w", err)
	}
	if c.LogoFetchTimeout <= 0 {
		return fmt.Errorf("LOGO_FETCH_TIMEOUT must be positive")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	return nil
}

// Language returns the configured document language.
func (c *Config) Language() i18n.Language {
	lang, err := i18n.ParseLanguage(c.InvoiceLanguage)
	if err != nil {
		return i18n.German
	}
	return lang
}

// Profile returns the configured validation profile.
func (c *Config) Profile() invoice.Profile {
	profile, err := invoice.ParseProfile(c.ValidationProfile)
	if err != nil {
		return invoice.ProfileXRechnung
	}
	return profile
}

// RequireStorage reports an error when no bucket is configured.
func (c *Config) RequireStorage() error {
	if c.GCSBucket == "" {
		return fmt.Errorf("GCS_BUCKET is required")
	}
	return nil
}

// RequireLedger reports an error when no spreadsheet is configured.
func (c *Config) RequireLedger() error {
	if c.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL is required")
	}
	return nil
}

// MailEnabled reports whether SendGrid delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.SendGridAPIKey != "" && c.MailFromAddress != ""
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
