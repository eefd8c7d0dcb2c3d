package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App            AppConfig            `yaml:"app"`
	Docstore       DocstoreConfig       `yaml:"docstore"`
	Redis          RedisConfig          `yaml:"redis"`
	Audit          AuditConfig          `yaml:"audit"`
	Monitoring     MonitoringConfig     `yaml:"monitoring"`
	Logging        LoggingConfig        `yaml:"logging"`
	API            APIConfig            `yaml:"api"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	Booking        BookingConfig        `yaml:"booking"`
	Sync           SyncConfig           `yaml:"sync"`
	Exports        ExportConfig         `yaml:"exports"`
	Google         GoogleConfig         `yaml:"google"`
	Telegram       TelegramConfig       `yaml:"telegram"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// DocstoreConfig selects the document store backend. Driver is "redis"
// in deployments and "memory" for local runs.
type DocstoreConfig struct {
	Driver string `yaml:"driver"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// AuditConfig locates the append-only SQLite audit log.
type AuditConfig struct {
	Path string `yaml:"path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// ReconciliationConfig tunes the derived payment status rule.
// RejectedDominates makes any rejected row force the overall status;
// the default is override-by-recency.
type ReconciliationConfig struct {
	RejectedDominates bool `yaml:"rejected_dominates"`
}

// BookingConfig controls the confirm transition. AtomicUpdates applies
// booking and room writes as one batch; disabling it issues independent
// writes and surfaces partial failure to the caller.
type BookingConfig struct {
	AtomicUpdates *bool `yaml:"atomic_updates"`
}

type SyncConfig struct {
	PassTimeoutSeconds int `yaml:"pass_timeout_seconds"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type GoogleConfig struct {
	CredentialsFile       string `yaml:"credentials_file"`
	BookingsSpreadsheetID string `yaml:"bookings_spreadsheet_id"`
}

type TelegramConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BotToken    string `yaml:"bot_token"`
	AdminChatID int64  `yaml:"admin_chat_id"`
	Debug       bool   `yaml:"debug"`
}

func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Environment variables expand before YAML parsing so secrets stay
	// out of the file.
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Docstore.Driver {
	case "redis":
		if c.Redis.Address == "" {
			return errors.New("redis address is required for the redis docstore driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown docstore driver %q", c.Docstore.Driver)
	}

	if c.API.Enabled && c.API.Auth.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("api auth is enabled but no api keys are configured")
	}
	for _, key := range c.API.Auth.APIKeys {
		if key.Key == "" {
			return fmt.Errorf("api key for client %q is empty", key.Name)
		}
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
			return errors.New("telegram bot token is required when telegram is enabled")
		}
		if c.Telegram.AdminChatID == 0 {
			return errors.New("telegram admin chat id is required when telegram is enabled")
		}
	}

	return nil
}

// AtomicUpdatesEnabled defaults to true; the sequential path is opt-in.
func (c *Config) AtomicUpdatesEnabled() bool {
	if c.Booking.AtomicUpdates == nil {
		return true
	}
	return *c.Booking.AtomicUpdates
}

func (c *Config) applyDefaults() {
	if c.Docstore.Driver == "" {
		c.Docstore.Driver = "redis"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.Enabled && !c.API.Auth.Enabled {
		c.API.Auth.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Audit.Path == "" {
		c.Audit.Path = "data/audit.db"
	}
	if c.Sync.PassTimeoutSeconds == 0 {
		c.Sync.PassTimeoutSeconds = 15
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
