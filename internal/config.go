package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notebox/internal/noteservice"
	"github.com/starford/notebox/internal/notestore"
	"github.com/starford/notebox/internal/pager"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Database DatabaseConfig    `yaml:"database"`
	Images   ImagesConfig      `yaml:"images"`
	Pager    PagerConfig       `yaml:"pager"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Images.Validate(); err != nil {
		return err
	}
	return c.Pager.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration. RateLimit is requests per
// second per client; zero disables limiting.
type HTTPConfig struct {
	Port      int     `yaml:"port"`
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.RateLimit, validation.Min(0.0)),
		validation.Field(&c.RateBurst, validation.When(c.RateLimit > 0, validation.Required, validation.Min(1))),
	)
}

// DatabaseConfig selects the note store backend.
//
// Driver is "sqlite" (default) or "postgres". For sqlite DSN is a file path;
// for postgres it is a pgx connection string.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = notestore.DriverSQLite
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(notestore.DriverSQLite, notestore.DriverPostgres)),
		validation.Field(&c.DSN, validation.Required),
	)
}

// ImagesConfig controls image handling.
//
// TempDir is where edit sessions materialise images (empty means the OS temp
// dir). OnReadError is "abort" (default) or "skip".
type ImagesConfig struct {
	TempDir     string `yaml:"temp_dir"`
	OnReadError string `yaml:"on_read_error"`
}

// Validate validates the images configuration.
func (c *ImagesConfig) Validate() error {
	if c.OnReadError == "" {
		c.OnReadError = string(noteservice.PolicyAbort)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.OnReadError, validation.In(string(noteservice.PolicyAbort), string(noteservice.PolicySkip))),
	)
}

// Policy returns the configured image read failure policy.
func (c *ImagesConfig) Policy() noteservice.ImagePolicy {
	return noteservice.ImagePolicy(c.OnReadError)
}

// PagerConfig holds paging configuration.
type PagerConfig struct {
	PageSize int `yaml:"page_size"`
}

// Validate validates the pager configuration.
func (c *PagerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PageSize, validation.Required, validation.Min(1)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:      8080,
				RateLimit: 20,
				RateBurst: 40,
			},
		},
		Database: DatabaseConfig{
			Driver: notestore.DriverSQLite,
			DSN:    "./notebox.db",
		},
		Images: ImagesConfig{
			OnReadError: string(noteservice.PolicyAbort),
		},
		Pager: PagerConfig{
			PageSize: pager.DefaultSize,
		},
	}
}
