package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Mail     MailConfig
	Portal   PortalConfig
	Extract  ExtractConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string
}

// MailConfig holds the IMAP mailbox polled for voucher emails.
type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Address  string
	Password string
	Mailbox  string
}

// PortalConfig holds the merchant portal used for authenticated voucher scans.
type PortalConfig struct {
	Enabled bool
	BaseURL string
	Email   string
	Timeout int // seconds
}

// ExtractConfig holds extraction tuning.
type ExtractConfig struct {
	FetchTimeout int // seconds, for the fallback barcode page fetch
	ExpiryDays   int // default voucher validity when the source gives none
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "fersal"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		Mail: MailConfig{
			Enabled:  getEnvAsBool("MAIL_ENABLED", true),
			Host:     getEnv("MAIL_IMAP_HOST", "imap.gmail.com"),
			Port:     getEnvAsInt("MAIL_IMAP_PORT", 993),
			Address:  getEnv("MAIL_ADDRESS", ""),
			Password: getEnv("MAIL_APP_PASSWORD", ""),
			Mailbox:  getEnv("MAIL_MAILBOX", "INBOX"),
		},
		Portal: PortalConfig{
			Enabled: getEnvAsBool("PORTAL_ENABLED", false),
			BaseURL: getEnv("PORTAL_BASE_URL", ""),
			Email:   getEnv("PORTAL_EMAIL", ""),
			Timeout: getEnvAsInt("PORTAL_TIMEOUT", 15),
		},
		Extract: ExtractConfig{
			FetchTimeout: getEnvAsInt("EXTRACT_FETCH_TIMEOUT", 10),
			ExpiryDays:   getEnvAsInt("EXTRACT_EXPIRY_DAYS", 180),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	if c.Mail.Enabled {
		if c.Mail.Host == "" {
			return fmt.Errorf("IMAP host is required when mail scanning is enabled")
		}
		if c.Mail.Address == "" {
			return fmt.Errorf("mail address is required when mail scanning is enabled")
		}
		if c.Mail.Password == "" {
			return fmt.Errorf("mail app password is required when mail scanning is enabled")
		}
	}

	if c.Portal.Enabled {
		if c.Portal.BaseURL == "" {
			return fmt.Errorf("portal base URL is required when portal scanning is enabled")
		}
		if c.Portal.Email == "" {
			return fmt.Errorf("portal account email is required when portal scanning is enabled")
		}
	}

	if c.Extract.FetchTimeout < 1 {
		return fmt.Errorf("extract fetch timeout must be at least 1 second")
	}

	if c.Extract.ExpiryDays < 1 {
		return fmt.Errorf("extract expiry days must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerAddress returns the IMAP host:port dial address.
func (c *MailConfig) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FetchTimeoutDuration returns the fallback fetch timeout as a duration.
func (c *ExtractConfig) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
