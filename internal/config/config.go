package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/existflow/todoapi/internal/db"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config file is given and it exists
const DefaultPath = "config.yaml"

// Config holds server settings
type Config struct {
	Port    string `yaml:"port"`    // HTTP listen port
	Testing bool   `yaml:"testing"` // SQLite backend with a clean schema on start

	Database DatabaseConfig `yaml:"database"`

	// Logging configuration
	LogLevel   string `yaml:"log_level"`   // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file"`    // Path to log file, empty disables file output
	LogConsole bool   `yaml:"log_console"` // Enable console logging

	Observability ObservabilityConfig `yaml:"observability"`
}

// DatabaseConfig describes how to reach the store
type DatabaseConfig struct {
	Driver     string `yaml:"driver"` // postgres or sqlite; testing mode forces sqlite
	URL        string `yaml:"url"`    // Full postgres DSN, overrides the parts below
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	SSLMode    string `yaml:"sslmode"`
	SQLitePath string `yaml:"sqlite_path"`
}

// ObservabilityConfig toggles metrics and tracing
type ObservabilityConfig struct {
	Metrics        bool   `yaml:"metrics"`
	Tracing        string `yaml:"tracing"` // none, stdout or zipkin
	ZipkinEndpoint string `yaml:"zipkin_endpoint"`
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	return &Config{
		Port: "8080",
		Database: DatabaseConfig{
			Driver:     db.DriverPostgres,
			User:       "todo_user",
			Password:   "todo_pass",
			Name:       "todo_db",
			Host:       "db",
			Port:       "5432",
			SSLMode:    "disable",
			SQLitePath: "./test.db",
		},
		LogLevel:   "INFO",
		LogConsole: true,
		Observability: ObservabilityConfig{
			Metrics:        true,
			Tracing:        "none",
			ZipkinEndpoint: "http://localhost:9411/api/v2/spans",
		},
	}
}

// Load builds the config from defaults, the YAML file at path and the environment.
// An empty path falls back to TODO_CONFIG, then to DefaultPath if it exists.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("TODO_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Defaults only
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings with environment variables
func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	if os.Getenv("TESTING") != "" {
		c.Testing = true
	}

	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.User = getEnv("POSTGRES_USER", c.Database.User)
	c.Database.Password = getEnv("POSTGRES_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("POSTGRES_DB", c.Database.Name)
	c.Database.Host = getEnv("POSTGRES_HOST", c.Database.Host)
	c.Database.Port = getEnv("POSTGRES_PORT", c.Database.Port)
	c.Database.SQLitePath = getEnv("SQLITE_PATH", c.Database.SQLitePath)

	c.LogLevel = getEnv("TODO_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("TODO_LOG_FILE", c.LogFile)
	c.LogConsole = getEnvBool("TODO_LOG_CONSOLE", c.LogConsole)

	c.Observability.Metrics = getEnvBool("TODO_METRICS", c.Observability.Metrics)
	c.Observability.Tracing = getEnv("TODO_TRACING_EXPORTER", c.Observability.Tracing)
	c.Observability.ZipkinEndpoint = getEnv("TODO_ZIPKIN_ENDPOINT", c.Observability.ZipkinEndpoint)
}

// Validate checks that the settings can be used to start the server
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}

	switch c.Database.Driver {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if opts := c.DatabaseOptions(); opts.DSN == "" {
		return fmt.Errorf("database %s: empty connection string", opts.Driver)
	}

	switch c.Observability.Tracing {
	case "", "none", "stdout":
	case "zipkin":
		if c.Observability.ZipkinEndpoint == "" {
			return fmt.Errorf("zipkin tracing requires zipkin_endpoint")
		}
	default:
		return fmt.Errorf("unknown tracing exporter %q", c.Observability.Tracing)
	}

	return nil
}

// DatabaseOptions resolves which store to open.
// Testing mode always uses SQLite and resets the schema.
func (c *Config) DatabaseOptions() db.Options {
	if c.Testing {
		return db.Options{Driver: db.DriverSQLite, DSN: c.Database.SQLitePath, Reset: true}
	}
	if c.Database.Driver == db.DriverSQLite {
		return db.Options{Driver: db.DriverSQLite, DSN: c.Database.SQLitePath}
	}
	return db.Options{Driver: db.DriverPostgres, DSN: c.Database.PostgresDSN()}
}

// PostgresDSN returns URL if set, otherwise a URL assembled from the parts
func (d DatabaseConfig) PostgresDSN() string {
	if d.URL != "" {
		return d.URL
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return ":" + c.Port
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
