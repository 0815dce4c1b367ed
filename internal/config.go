package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"http_server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Sheets    SheetsConfig    `mapstructure:"sheets"`
	Drive     DriveConfig     `mapstructure:"drive"`
	Mail      MailConfig      `mapstructure:"mail"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Reminders RemindersConfig `mapstructure:"reminders"`
	Payments  PaymentsConfig  `mapstructure:"payments"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig selects the row-store backend. Backend "sheets" is the
// production default; "postgres" and "sqlite" persist rows relationally behind
// the same interface; "memory" is for local development and seeding.
type DatabaseConfig struct {
	Backend         string        `mapstructure:"backend" validate:"oneof=sheets postgres sqlite memory"`
	Source          string        `mapstructure:"source"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
}

type SheetsConfig struct {
	SpreadsheetID       string `mapstructure:"spreadsheet_id"`
	ServiceAccountEmail string `mapstructure:"service_account_email"`
	PrivateKey          string `mapstructure:"private_key"`
}

type DriveConfig struct {
	RootFolderID        string `mapstructure:"root_folder_id"`
	ServiceAccountEmail string `mapstructure:"service_account_email"`
	PrivateKey          string `mapstructure:"private_key"`
}

type MailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
	TeamEmails   string `mapstructure:"team_emails"`
}

type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	AllowedEmails string `mapstructure:"allowed_emails"`
	AllowedDomain string `mapstructure:"allowed_domain"`
	AdminEmails   string `mapstructure:"admin_emails"`
}

type RemindersConfig struct {
	CronSecret string `mapstructure:"cron_secret"`
}

type PaymentsConfig struct {
	EnforceTransitions bool `mapstructure:"enforce_transitions"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if c.Database.Backend == "sheets" {
		if err := c.Sheets.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("sheets config: %v", err))
		}
	}

	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("auth config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		for _, origin := range strings.Split(c.AllowedOrigins, ",") {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	switch c.Backend {
	case "sheets", "memory":
	case "postgres", "sqlite":
		if c.Source == "" {
			return fmt.Errorf("source is required for backend %q", c.Backend)
		}
		if c.MaxIdleConns > c.MaxOpenConns {
			return errors.New("max_idle_conns cannot be greater than max_open_conns")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.CacheTTL < 0 {
		return errors.New("cache_ttl cannot be negative")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

// EffectiveCacheTTL falls back to the seconds-scale default the read paths
// assume when the config leaves cache_ttl unset.
func (c *DatabaseConfig) EffectiveCacheTTL() time.Duration {
	if c.CacheTTL <= 0 {
		return 5 * time.Second
	}
	return c.CacheTTL
}

func (c *SheetsConfig) Validate() error {
	if c.SpreadsheetID == "" {
		return errors.New("spreadsheet_id is required")
	}
	if c.ServiceAccountEmail == "" || c.PrivateKey == "" {
		return errors.New("service account credentials are required")
	}
	return nil
}

func (c *AuthConfig) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if c.AllowedEmails == "" && c.AllowedDomain == "" {
		return errors.New("at least one of allowed_emails or allowed_domain must be set")
	}
	return nil
}

// SplitEmails parses a comma separated list, trimming and lowercasing entries.
func SplitEmails(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
