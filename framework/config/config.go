package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the typed configuration resolved as "config" from the root
// container.
type Config struct {
	App  AppConfig  `yaml:"app"`
	Log  LogConfig  `yaml:"log"`
	HTTP HTTPConfig `yaml:"http"`
}

type AppConfig struct {
	Name  string `yaml:"name" validate:"required"`
	Env   string `yaml:"env" validate:"oneof=local production testing"`
	Debug bool   `yaml:"debug"`
	Port  string `yaml:"port" validate:"required,numeric"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

type HTTPConfig struct {
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

// Addr is the listen address derived from App.Port.
func (c *Config) Addr() string { return ":" + c.App.Port }

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:  "GoScope",
			Env:   "local",
			Debug: true,
			Port:  "8000",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		HTTP: HTTPConfig{
			ReadTimeout:     10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

var validate = validator.New()

// Validate checks the configuration against its validate tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Load builds a Config in three layers: defaults, then the YAML file named by
// APP_CONFIG (if set), then environment variables. The given .env files (or
// ".env") are loaded first and never override variables already set.
//
//	cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	cfg := Default()
	if path := Get("APP_CONFIG", ""); path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
	}

	cfg.App.Name = Get("APP_NAME", cfg.App.Name)
	cfg.App.Env = Get("APP_ENV", cfg.App.Env)
	cfg.App.Debug = GetBool("APP_DEBUG", cfg.App.Debug)
	cfg.App.Port = Get("APP_PORT", cfg.App.Port)
	cfg.Log.Level = Get("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = Get("LOG_FORMAT", cfg.Log.Format)
	cfg.HTTP.ReadTimeout = GetDuration("HTTP_READ_TIMEOUT", cfg.HTTP.ReadTimeout)
	cfg.HTTP.ShutdownTimeout = GetDuration("HTTP_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlay decodes a YAML file on top of c; keys absent from the file keep
// their current value.
func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return b
}

// GetDuration returns a time.Duration env value such as "750ms".
func GetDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return d
}
