package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigDir  = ".catops"
	DefaultConfigFile = "config.yaml"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database,omitempty"`
	Storage  StorageConfig  `yaml:"storage"`
	Import   ImportConfig   `yaml:"import"`
	Outputs  OutputsConfig  `yaml:"outputs"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Postgres   PostgresConfig     `yaml:"postgres"`
	ClickHouse ClickHouseDBConfig `yaml:"clickhouse"`
	UseDB      bool               `yaml:"use_db"` // Postgres catalog instead of the JSON state file
}

// PostgresConfig holds PostgreSQL settings
type PostgresConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Database    string `yaml:"database"`
	UsernameEnv string `yaml:"username_env"`
	PasswordEnv string `yaml:"password_env"`
	SSLMode     string `yaml:"ssl_mode"`
}

// ClickHouseDBConfig holds ClickHouse settings for import analytics
type ClickHouseDBConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Database    string `yaml:"database"`
	UsernameEnv string `yaml:"username_env"`
	PasswordEnv string `yaml:"password_env"`
	Secure      bool   `yaml:"secure"`
}

// StorageConfig selects where embedded images are uploaded
type StorageConfig struct {
	Backend string             `yaml:"backend"` // local, s3
	S3      S3StorageConfig    `yaml:"s3"`
	Local   LocalStorageConfig `yaml:"local"`
}

// S3StorageConfig holds S3-compatible bucket settings. Credentials come
// from the default AWS chain (AWS_ACCESS_KEY_ID, profiles, ...).
type S3StorageConfig struct {
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint,omitempty"`
	Prefix        string `yaml:"prefix,omitempty"`
	PublicBaseURL string `yaml:"public_base_url,omitempty"`
}

// LocalStorageConfig holds local directory settings
type LocalStorageConfig struct {
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// ImportConfig holds spreadsheet import settings
type ImportConfig struct {
	Currency        string `yaml:"currency"`
	MaxImagePx      int    `yaml:"max_image_px"`
	GuessSampleRows int    `yaml:"guess_sample_rows"`
	StateFile       string `yaml:"state_file"`
}

// OutputsConfig contains configuration for all output adapters
type OutputsConfig struct {
	File FileOutputConfig `yaml:"file"`
}

// FileOutputConfig holds file output settings
type FileOutputConfig struct {
	OutputDir string `yaml:"output_dir"`
	Pretty    bool   `yaml:"pretty"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			UseDB: false, // Disabled by default, use JSON state
			Postgres: PostgresConfig{
				Host:        "localhost",
				Port:        5432,
				Database:    "catalogops",
				UsernameEnv: "POSTGRES_USER",
				PasswordEnv: "POSTGRES_PASSWORD",
				SSLMode:     "prefer",
			},
			ClickHouse: ClickHouseDBConfig{
				Enabled:     false,
				Host:        "localhost",
				Port:        9000,
				Database:    "catalogops",
				UsernameEnv: "CLICKHOUSE_USERNAME",
				PasswordEnv: "CLICKHOUSE_PASSWORD",
				Secure:      false,
			},
		},
		Storage: StorageConfig{
			Backend: "local",
			S3: S3StorageConfig{
				Region: "us-east-1",
				Prefix: "entries/",
			},
			Local: LocalStorageConfig{
				Dir: "./output/images",
			},
		},
		Import: ImportConfig{
			Currency:        "USD",
			MaxImagePx:      1600,
			GuessSampleRows: 5,
			StateFile:       "./output/.catops-state.json",
		},
		Outputs: OutputsConfig{
			File: FileOutputConfig{
				OutputDir: "./output",
				Pretty:    true,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile), nil
}

// Load reads the configuration from the config file
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	return LoadFrom(configPath)
}

// LoadFrom reads the configuration from a specific path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply defaults for missing values
	applyDefaults(&config)

	return &config, nil
}

// Save writes the configuration to the config file
func Save(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return SaveTo(config, configPath)
}

// SaveTo writes the configuration to a specific path
func SaveTo(config *Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Init creates a new config file with defaults
func Init() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	return Save(DefaultConfig())
}

// Exists checks if the config file exists
func Exists() bool {
	configPath, err := GetConfigPath()
	if err != nil {
		return false
	}

	_, err = os.Stat(configPath)
	return err == nil
}

// applyDefaults fills in missing values with defaults
func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	// Database
	if config.Database.Postgres.Port == 0 {
		config.Database.Postgres.Port = defaults.Database.Postgres.Port
	}
	if config.Database.ClickHouse.Port == 0 {
		config.Database.ClickHouse.Port = defaults.Database.ClickHouse.Port
	}

	// Storage
	if config.Storage.Backend == "" {
		config.Storage.Backend = defaults.Storage.Backend
	}
	if config.Storage.Local.Dir == "" {
		config.Storage.Local.Dir = defaults.Storage.Local.Dir
	}

	// Import
	if config.Import.Currency == "" {
		config.Import.Currency = defaults.Import.Currency
	}
	if config.Import.GuessSampleRows <= 0 {
		config.Import.GuessSampleRows = defaults.Import.GuessSampleRows
	}
	if config.Import.StateFile == "" {
		config.Import.StateFile = defaults.Import.StateFile
	}

	// Outputs
	if config.Outputs.File.OutputDir == "" {
		config.Outputs.File.OutputDir = defaults.Outputs.File.OutputDir
	}

	if config.Logging.Level == "" {
		config.Logging.Level = defaults.Logging.Level
	}
}

// Set updates a specific config value
func Set(key, value string) error {
	config, err := Load()
	if err != nil {
		return err
	}

	if err := config.Set(key, value); err != nil {
		return err
	}

	return Save(config)
}

// Get retrieves a specific config value
func Get(key string) (string, error) {
	config, err := Load()
	if err != nil {
		return "", err
	}

	return config.Get(key)
}

// Set updates one dotted key in memory
func (c *Config) Set(key, value string) error {
	switch key {
	case "database.use_db":
		c.Database.UseDB = value == "true"
	case "database.postgres.host":
		c.Database.Postgres.Host = value
	case "database.postgres.port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port: %s", value)
		}
		c.Database.Postgres.Port = port
	case "database.postgres.database":
		c.Database.Postgres.Database = value
	case "database.postgres.username_env":
		c.Database.Postgres.UsernameEnv = value
	case "database.postgres.password_env":
		c.Database.Postgres.PasswordEnv = value
	case "database.clickhouse.enabled":
		c.Database.ClickHouse.Enabled = value == "true"
	case "database.clickhouse.host":
		c.Database.ClickHouse.Host = value
	case "database.clickhouse.database":
		c.Database.ClickHouse.Database = value
	case "storage.backend":
		c.Storage.Backend = value
	case "storage.s3.bucket":
		c.Storage.S3.Bucket = value
	case "storage.s3.region":
		c.Storage.S3.Region = value
	case "storage.s3.endpoint":
		c.Storage.S3.Endpoint = value
	case "storage.s3.prefix":
		c.Storage.S3.Prefix = value
	case "storage.s3.public_base_url":
		c.Storage.S3.PublicBaseURL = value
	case "storage.local.dir":
		c.Storage.Local.Dir = value
	case "storage.local.base_url":
		c.Storage.Local.BaseURL = value
	case "import.currency":
		c.Import.Currency = value
	case "import.max_image_px":
		px, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid pixel size: %s", value)
		}
		c.Import.MaxImagePx = px
	case "import.state_file":
		c.Import.StateFile = value
	case "outputs.file.output_dir":
		c.Outputs.File.OutputDir = value
	case "logging.level":
		c.Logging.Level = value
	case "logging.development":
		c.Logging.Development = value == "true"
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// Get returns one dotted key as text
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "database.use_db":
		return strconv.FormatBool(c.Database.UseDB), nil
	case "database.postgres.host":
		return c.Database.Postgres.Host, nil
	case "database.postgres.port":
		return strconv.Itoa(c.Database.Postgres.Port), nil
	case "database.postgres.database":
		return c.Database.Postgres.Database, nil
	case "database.postgres.username_env":
		return c.Database.Postgres.UsernameEnv, nil
	case "database.postgres.password_env":
		return c.Database.Postgres.PasswordEnv, nil
	case "database.clickhouse.enabled":
		return strconv.FormatBool(c.Database.ClickHouse.Enabled), nil
	case "database.clickhouse.host":
		return c.Database.ClickHouse.Host, nil
	case "database.clickhouse.database":
		return c.Database.ClickHouse.Database, nil
	case "storage.backend":
		return c.Storage.Backend, nil
	case "storage.s3.bucket":
		return c.Storage.S3.Bucket, nil
	case "storage.s3.region":
		return c.Storage.S3.Region, nil
	case "storage.s3.endpoint":
		return c.Storage.S3.Endpoint, nil
	case "storage.s3.prefix":
		return c.Storage.S3.Prefix, nil
	case "storage.s3.public_base_url":
		return c.Storage.S3.PublicBaseURL, nil
	case "storage.local.dir":
		return c.Storage.Local.Dir, nil
	case "storage.local.base_url":
		return c.Storage.Local.BaseURL, nil
	case "import.currency":
		return c.Import.Currency, nil
	case "import.max_image_px":
		return strconv.Itoa(c.Import.MaxImagePx), nil
	case "import.state_file":
		return c.Import.StateFile, nil
	case "outputs.file.output_dir":
		return c.Outputs.File.OutputDir, nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.development":
		return strconv.FormatBool(c.Logging.Development), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}
