package ctemock

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// ErrConfigValidation is returned when configuration validation fails
var ErrConfigValidation = errors.New("configuration validation failed")

// DefaultEnvironment is the environment name synthesised from DATABASE_URL.
const DefaultEnvironment = "default"

// Config represents the ctemock configuration
type Config struct {
	Dialect   string              `yaml:"dialect"`
	CasesDir  string              `yaml:"cases_dir"`
	Databases map[string]Database `yaml:"databases"`
	Query     QueryConfig         `yaml:"query"`
	Test      TestConfig          `yaml:"test"`
}

// Database represents database connection configuration
type Database struct {
	Driver     string `yaml:"driver"`
	Connection string `yaml:"connection"`
}

// QueryConfig represents query execution settings
type QueryConfig struct {
	DefaultFormat string        `yaml:"default_format"`
	Timeout       time.Duration `yaml:"timeout"`
}

// TestConfig represents test case execution settings
type TestConfig struct {
	// Parallel is the number of cases executed at once. 0 means the CPU count.
	Parallel int `yaml:"parallel"`
	// Timeout bounds a single case.
	Timeout time.Duration `yaml:"timeout"`
	// Strict turns an unreferenced mock table into a failure instead of a warning.
	Strict bool `yaml:"strict"`
	// Ordered compares result rows by position unless a case overrides it.
	Ordered bool `yaml:"ordered"`
}

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	// Return default configuration if file doesn't exist
	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		config := getDefaultConfig()
		expandConfigEnvVars(config)
		applyDatabaseURL(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses, validates and completes a configuration document.
func ParseConfig(data []byte) (*Config, error) {
	// rows compare by position unless the file says otherwise
	config := Config{Test: TestConfig{Ordered: true}}

	// Strict mode detects unknown fields
	err := yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)
	applyDatabaseURL(&config)

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	if config.Dialect != "" {
		if _, err := ParseDialect(config.Dialect); err != nil {
			return fmt.Errorf("%w: invalid dialect '%s': must be one of postgres, mysql, sqlite", ErrConfigValidation, config.Dialect)
		}
	}

	for name, db := range config.Databases {
		if db.Connection == "" {
			return fmt.Errorf("%w: database '%s': connection is required", ErrConfigValidation, name)
		}
	}

	if config.Query.Timeout < 0 {
		return fmt.Errorf("%w: query.timeout must be non-negative, got %s", ErrConfigValidation, config.Query.Timeout)
	}

	if config.Query.DefaultFormat != "" {
		validFormats := map[string]bool{
			"table":    true,
			"json":     true,
			"yaml":     true,
			"csv":      true,
			"markdown": true,
		}
		if !validFormats[config.Query.DefaultFormat] {
			return fmt.Errorf("%w: query.default_format '%s' is invalid: must be one of table, json, yaml, csv, markdown", ErrConfigValidation, config.Query.DefaultFormat)
		}
	}

	if config.Test.Parallel < 0 {
		return fmt.Errorf("%w: test.parallel must be non-negative, got %d", ErrConfigValidation, config.Test.Parallel)
	}

	if config.Test.Timeout < 0 {
		return fmt.Errorf("%w: test.timeout must be non-negative, got %s", ErrConfigValidation, config.Test.Timeout)
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Dialect:   string(DialectPostgres),
		CasesDir:  "./testdata",
		Databases: make(map[string]Database),
		Query: QueryConfig{
			DefaultFormat: "table",
			Timeout:       30 * time.Second,
		},
		Test: TestConfig{
			Parallel: 0,
			Timeout:  2 * time.Minute,
			Strict:   false,
			Ordered:  true,
		},
	}
}

// applyDefaults applies default values to missing configuration fields
func applyDefaults(config *Config) {
	defaults := getDefaultConfig()

	if config.Dialect == "" {
		config.Dialect = defaults.Dialect
	}

	if config.CasesDir == "" {
		config.CasesDir = defaults.CasesDir
	}

	if config.Databases == nil {
		config.Databases = make(map[string]Database)
	}

	if config.Query.DefaultFormat == "" {
		config.Query.DefaultFormat = defaults.Query.DefaultFormat
	}

	if config.Query.Timeout == 0 {
		config.Query.Timeout = defaults.Query.Timeout
	}

	if config.Test.Timeout == 0 {
		config.Test.Timeout = defaults.Test.Timeout
	}
}

// applyDatabaseURL adds a "default" environment from DATABASE_URL when nothing is configured.
func applyDatabaseURL(config *Config) {
	if len(config.Databases) > 0 {
		return
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return
	}

	if dialect, err := InferDialect(dbURL); err == nil {
		config.Dialect = string(dialect)
	}

	config.Databases[DefaultEnvironment] = Database{Connection: dbURL}
}

// Environment returns the named database configuration. An empty name selects
// the only configured database, or "default" when several exist.
func (c *Config) Environment(name string) (Database, error) {
	if name == "" {
		if len(c.Databases) == 1 {
			for _, db := range c.Databases {
				return db, nil
			}
		}

		name = DefaultEnvironment
	}

	db, ok := c.Databases[name]
	if !ok {
		return Database{}, fmt.Errorf("%w: %s", ErrEnvironmentNotFound, name)
	}

	return db, nil
}

// OpenParams returns the driver name and data source name for the database.
// When no driver is configured the connection is treated as a URL.
func (d Database) OpenParams() (driver, dsn string, err error) {
	if d.Driver == "" || strings.Contains(d.Connection, "://") {
		return OpenParams(d.Connection)
	}

	if dialect, err := ParseDialect(d.Driver); err == nil {
		return dialect.DriverName(), d.Connection, nil
	}

	return d.Driver, d.Connection, nil
}

// loadEnvFiles loads .env files if they exist
func loadEnvFiles() error {
	if fileExists(".env") {
		err := godotenv.Load(".env")
		if err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

var (
	bracedEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	plainEnvVar  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	s = bracedEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	return plainEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
}

// expandConfigEnvVars expands environment variables in config
func expandConfigEnvVars(config *Config) {
	for name, db := range config.Databases {
		db.Connection = expandEnvVars(db.Connection)
		db.Driver = expandEnvVars(db.Driver)
		config.Databases[name] = db
	}

	config.CasesDir = expandEnvVars(config.CasesDir)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
