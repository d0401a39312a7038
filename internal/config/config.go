package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
	"taxfiler/internal/logger"
)

type Config struct {
	// Portal Configuration
	PortalBaseURL  string
	PortalReferrer string
	PortalTimeout  time.Duration

	// Batch Configuration
	BatchTimeout        time.Duration
	CacheCompanyLookups bool

	// HTTP Server Configuration
	ServerAddr    string
	AllowedOrigin string
	MaxBodyBytes  int64

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORTAL_BASE_URL", "https://efiling.tax.gov.kh/gdtefilingweb")
	v.SetDefault("PORTAL_REFERRER", "https://efiling.tax.gov.kh/gdtefilingweb/entry/purchase-sale/PZXAr702MNle")
	v.SetDefault("PORTAL_TIMEOUT", 30*time.Second)
	v.SetDefault("BATCH_TIMEOUT", 10*time.Minute)
	v.SetDefault("CACHE_COMPANY_LOOKUPS", false)
	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("ALLOWED_ORIGIN", "*")
	v.SetDefault("MAX_BODY_BYTES", int64(10<<20))
	v.SetDefault("GOOGLE_SHEET_URL", "")
	v.SetDefault("GOOGLE_SHEET_WORKSHEET", "Invoices")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_TIME_FORMAT", time.RFC3339)
	v.SetDefault("LOG_OUTPUT", "stderr")
}

// Load reads configuration from the environment on top of the defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	config := fromViper(v)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Default returns the built-in configuration without consulting the environment
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		PortalBaseURL:        v.GetString("PORTAL_BASE_URL"),
		PortalReferrer:       v.GetString("PORTAL_REFERRER"),
		PortalTimeout:        v.GetDuration("PORTAL_TIMEOUT"),
		BatchTimeout:         v.GetDuration("BATCH_TIMEOUT"),
		CacheCompanyLookups:  v.GetBool("CACHE_COMPANY_LOOKUPS"),
		ServerAddr:           v.GetString("SERVER_ADDR"),
		AllowedOrigin:        v.GetString("ALLOWED_ORIGIN"),
		MaxBodyBytes:         v.GetInt64("MAX_BODY_BYTES"),
		GoogleSheetURL:       v.GetString("GOOGLE_SHEET_URL"),
		GoogleSheetWorksheet: v.GetString("GOOGLE_SHEET_WORKSHEET"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFormat:            v.GetString("LOG_FORMAT"),
		LogTimeFormat:        v.GetString("LOG_TIME_FORMAT"),
		LogOutput:            v.GetString("LOG_OUTPUT"),
	}
}

// Validate checks the values the portal client and server depend on
func (c *Config) Validate() error {
	u, err := url.Parse(c.PortalBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("PORTAL_BASE_URL must be an absolute URL, got %q", c.PortalBaseURL)
	}
	if c.PortalTimeout <= 0 {
		return fmt.Errorf("PORTAL_TIMEOUT must be positive")
	}
	if c.BatchTimeout <= 0 {
		return fmt.Errorf("BATCH_TIMEOUT must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	return nil
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
