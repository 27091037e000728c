// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSessionTTL  = 8 * time.Hour
	DefaultCookieName  = "plantfloor_session"
	DefaultIssuer      = "plantfloor"
	DefaultDigestCron  = "0 7 * * 1-5"
	DefaultEmailRegion = "us-east-1"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type AuthConfig struct {
	SessionTTL time.Duration `yaml:"session_ttl"`
	CookieName string        `yaml:"cookie_name"`
	Issuer     string        `yaml:"issuer"`
}

type AdminConfig struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"-"` // Loaded from environment
}

type EmailConfig struct {
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	SalesInbox      string `yaml:"sales_inbox"`
	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

// Enabled reports whether enough settings exist to build an SES client.
func (e EmailConfig) Enabled() bool {
	return e.AccessKeyID != "" && e.SecretAccessKey != "" && e.Region != "" && e.Sender != ""
}

type DigestConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
		TrustProxy  bool   `yaml:"trust_proxy"`
		SecretKey   string `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Admin    AdminConfig    `yaml:"admin"`
	Email    EmailConfig    `yaml:"email"`
	Digest   DigestConfig   `yaml:"digest"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.loadSecrets()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a configuration purely from environment variables. Used when
// the server is started without a config file.
func FromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	var cfg Config
	cfg.App.Name = getEnv("APP_NAME", "plantfloor")
	cfg.App.Environment = getEnv("ENVIRONMENT", "development")
	cfg.App.BaseURL = getEnv("BASE_URL", "http://localhost:8080")
	cfg.App.TrustProxy = strings.EqualFold(getEnv("TRUST_PROXY", "false"), "true")
	port, err := parsePort(getEnv("PORT", "8080"))
	if err != nil {
		return nil, err
	}
	cfg.App.Port = port

	cfg.Database.Driver = "sqlite"
	cfg.Database.Filename = getEnv("DATABASE_FILE", "data/plantfloor.db")

	cfg.Admin.Email = os.Getenv("ADMIN_EMAIL")
	cfg.Admin.Name = getEnv("ADMIN_NAME", "Site Administrator")

	cfg.Email.Region = os.Getenv("AWS_REGION")
	cfg.Email.Sender = os.Getenv("EMAIL_SENDER")
	cfg.Email.SalesInbox = os.Getenv("SALES_INBOX")

	cfg.Digest.Enabled = strings.EqualFold(getEnv("DIGEST_ENABLED", "false"), "true")
	cfg.Digest.Cron = os.Getenv("DIGEST_CRON")

	cfg.loadSecrets()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) loadSecrets() {
	c.App.SecretKey = os.Getenv("APP_SECRET_KEY")
	c.Admin.Password = os.Getenv("ADMIN_PASSWORD")
	c.Email.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	c.Email.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
}

func (c *Config) applyDefaults() {
	if c.Auth.SessionTTL <= 0 {
		c.Auth.SessionTTL = DefaultSessionTTL
	}
	if strings.TrimSpace(c.Auth.CookieName) == "" {
		c.Auth.CookieName = DefaultCookieName
	}
	if strings.TrimSpace(c.Auth.Issuer) == "" {
		c.Auth.Issuer = DefaultIssuer
	}
	if strings.TrimSpace(c.Email.Region) == "" {
		c.Email.Region = DefaultEmailRegion
	}
	if strings.TrimSpace(c.Digest.Cron) == "" {
		c.Digest.Cron = DefaultDigestCron
	}
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.App.Environment == "development"
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.App.SecretKey == "" && c.App.Environment != "development" {
		return fmt.Errorf("APP_SECRET_KEY is required outside development")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Admin.Email != "" && !strings.Contains(c.Admin.Email, "@") {
		return fmt.Errorf("admin email must be a valid address")
	}

	if c.Digest.Enabled {
		if _, err := cron.ParseStandard(c.Digest.Cron); err != nil {
			return fmt.Errorf("digest cron is invalid: %w", err)
		}
		if c.Email.SalesInbox == "" {
			return fmt.Errorf("email sales_inbox is required when the digest is enabled")
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func parsePort(raw string) (int, error) {
	var port int
	if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%d", &port); err != nil || port <= 0 {
		return 0, fmt.Errorf("PORT must be a positive integer")
	}
	return port, nil
}
