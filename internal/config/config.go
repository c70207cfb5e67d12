// Package config loads service configuration from an optional YAML file and
// per-integration environment variable bundles. Each integration is
// independently "configured" or not; a missing bundle is a normal state that
// degrades that integration's endpoints, never a startup failure.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultServerPort    = 8050
	defaultServerTimeout = 30 * time.Second
	defaultIdleTimeout   = 120 * time.Second

	defaultDatabasePort    = 5432
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
)

// Config is the aggregate service configuration.
type Config struct {
	Debug  bool         `yaml:"debug"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`

	// Integrations, each nil when not configured.
	Database *DatabaseConfig
	Purge    *PurgeConfig
	Images   *ImagesConfig
	Search   *SearchConfig
	Admin    *AdminConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// PurgeConfig holds CDN purge API credentials and behavior toggles.
type PurgeConfig struct {
	ZoneID             string
	APIToken           string
	SiteURL            string
	IncludeProductURLs bool
	// BaseURL overrides the purge API endpoint, used in tests.
	BaseURL string
}

// ImagesConfig holds image CDN API credentials.
type ImagesConfig struct {
	AccountID string
	APIToken  string
	// BaseURL overrides the images API endpoint, used in tests.
	BaseURL string
}

// SearchConfig holds search index service credentials.
type SearchConfig struct {
	Addresses          []string
	APIKey             string
	Username           string
	Password           string
	IndexName          string
	InsecureSkipVerify bool
}

// AdminConfig holds admin console credentials.
type AdminConfig struct {
	Username      string
	Password      string
	SessionSecret string
	// Development relaxes the Secure cookie attribute for local work.
	Development bool
}

// Load reads the optional YAML file at path, loads .env files, and resolves
// every integration bundle from the environment. A missing YAML file is not
// an error; a malformed one is.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.setDefaults()
	cfg.overrideFromEnv()

	cfg.Database = databaseFromEnv()
	cfg.Purge = purgeFromEnv()
	cfg.Images = imagesFromEnv()
	cfg.Search = searchFromEnv()
	cfg.Admin = adminFromEnv(cfg.Debug)

	return cfg, nil
}

// loadEnvFiles loads .env.local then .env; missing files are ignored.
func loadEnvFiles() {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		_ = godotenv.Load(envFile)
		return
	}
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultServerPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaultServerTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaultServerTimeout
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = defaultIdleTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) overrideFromEnv() {
	if v, ok := Value("ADMIN_SERVICE_HOST"); ok {
		c.Server.Host = v
	}
	if v, ok := Value("ADMIN_SERVICE_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v, ok := Boolean("APP_DEBUG"); ok {
		c.Debug = v
	}
	if v, ok := Value("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}

// databaseFromEnv returns nil unless every required variable is present.
func databaseFromEnv() *DatabaseConfig {
	required, err := RequireAll(
		"DATABASE_HOST", "DATABASE_USER", "DATABASE_PASSWORD", "DATABASE_NAME",
	)
	if err != nil {
		return nil
	}

	cfg := &DatabaseConfig{
		Host:            required["DATABASE_HOST"],
		Port:            defaultDatabasePort,
		User:            required["DATABASE_USER"],
		Password:        required["DATABASE_PASSWORD"],
		Database:        required["DATABASE_NAME"],
		SSLMode:         "disable",
		MaxOpenConns:    defaultMaxOpenConns,
		MaxIdleConns:    defaultMaxIdleConns,
		ConnMaxLifetime: defaultConnMaxLifetime,
	}
	if v, ok := Value("DATABASE_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v, ok := Value("DATABASE_SSLMODE"); ok {
		cfg.SSLMode = v
	}
	return cfg
}

func purgeFromEnv() *PurgeConfig {
	required, err := RequireAll("PURGE_ZONE_ID", "PURGE_API_TOKEN", "SITE_URL")
	if err != nil {
		return nil
	}

	cfg := &PurgeConfig{
		ZoneID:   required["PURGE_ZONE_ID"],
		APIToken: required["PURGE_API_TOKEN"],
		SiteURL:  required["SITE_URL"],
	}
	if v, ok := Boolean("PURGE_INCLUDE_PRODUCT_URLS"); ok {
		cfg.IncludeProductURLs = v
	}
	if v, ok := Value("PURGE_API_BASE_URL"); ok {
		cfg.BaseURL = v
	}
	return cfg
}

func imagesFromEnv() *ImagesConfig {
	required, err := RequireAll("IMAGES_ACCOUNT_ID", "IMAGES_API_TOKEN")
	if err != nil {
		return nil
	}

	cfg := &ImagesConfig{
		AccountID: required["IMAGES_ACCOUNT_ID"],
		APIToken:  required["IMAGES_API_TOKEN"],
	}
	if v, ok := Value("IMAGES_API_BASE_URL"); ok {
		cfg.BaseURL = v
	}
	return cfg
}

func searchFromEnv() *SearchConfig {
	required, err := RequireAll("SEARCH_URL", "SEARCH_INDEX_NAME")
	if err != nil {
		return nil
	}

	cfg := &SearchConfig{
		Addresses: []string{required["SEARCH_URL"]},
		IndexName: required["SEARCH_INDEX_NAME"],
	}
	if v, ok := Value("SEARCH_API_KEY"); ok {
		cfg.APIKey = v
	}
	if v, ok := Value("SEARCH_USERNAME"); ok {
		cfg.Username = v
	}
	if v, ok := Value("SEARCH_PASSWORD"); ok {
		cfg.Password = v
	}
	if v, ok := Boolean("SEARCH_TLS_SKIP_VERIFY"); ok {
		cfg.InsecureSkipVerify = v
	}
	return cfg
}

func adminFromEnv(development bool) *AdminConfig {
	required, err := RequireAll("ADMIN_PASSWORD", "ADMIN_SESSION_SECRET")
	if err != nil {
		return nil
	}

	cfg := &AdminConfig{
		Username:      "admin",
		Password:      required["ADMIN_PASSWORD"],
		SessionSecret: required["ADMIN_SESSION_SECRET"],
		Development:   development,
	}
	if v, ok := Value("ADMIN_USERNAME"); ok {
		cfg.Username = v
	}
	return cfg
}
