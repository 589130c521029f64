package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"inspection-service/internal/models"
)

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port            string        `yaml:"port"`
		Mode            string        `yaml:"mode"` // gin mode: debug, release, test
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
	} `yaml:"server"`
	Database struct {
		Driver     string `yaml:"driver"` // "postgres", "sqlite" or "memory"
		URL        string `yaml:"url"`
		Migrations string `yaml:"migrations"`
	} `yaml:"database"`
	MLService struct {
		URL            string        `yaml:"url"`
		Enabled        bool          `yaml:"enabled"`
		Timeout        time.Duration `yaml:"timeout"`
		RequestsPerSec float64       `yaml:"requests_per_second"`
		Burst          int           `yaml:"burst"`
	} `yaml:"ml_service"`
	Classifier struct {
		MaxTextBytes int `yaml:"max_text_bytes"`
	} `yaml:"classifier"`
	Stats struct {
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"stats"`
	Cache struct {
		RedisURL string `yaml:"redis_url"`
	} `yaml:"cache"`
	Notifier struct {
		Enabled          bool   `yaml:"enabled"`
		TelegramBotToken string `yaml:"telegram_bot_token"`
		ChatID           int64  `yaml:"chat_id"`
		MinRiskLevel     string `yaml:"min_risk_level"`
	} `yaml:"notifier"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Log struct {
		Development bool `yaml:"development"`
	} `yaml:"log"`
}

// LoadConfig reads configuration from the specified YAML file, applies
// defaults and lets the environment override deployment settings.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyEnv()
	config.setDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Default returns a configuration with every default applied, suitable for
// local runs without a config file.
func Default() *Config {
	config := &Config{}
	config.setDefaults()
	return config
}

func (c *Config) setDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.URL == "" && c.Database.Driver == "sqlite" {
		c.Database.URL = "./data/alerts.db"
	}
	if c.Database.Migrations == "" {
		c.Database.Migrations = "file://migrations"
	}
	if c.MLService.Timeout == 0 {
		c.MLService.Timeout = 5 * time.Second
	}
	if c.MLService.RequestsPerSec == 0 {
		c.MLService.RequestsPerSec = 20
	}
	if c.MLService.Burst == 0 {
		c.MLService.Burst = 5
	}
	if c.Classifier.MaxTextBytes == 0 {
		c.Classifier.MaxTextBytes = 10000
	}
	if c.Stats.CacheTTL == 0 {
		c.Stats.CacheTTL = 30 * time.Second
	}
	if c.Notifier.MinRiskLevel == "" {
		c.Notifier.MinRiskLevel = string(models.RiskHigh)
	}
	c.Notifier.MinRiskLevel = strings.ToUpper(c.Notifier.MinRiskLevel)
}

func (c *Config) applyEnv() {
	c.Auth.JWTSecret = os.ExpandEnv(c.Auth.JWTSecret)
	c.Notifier.TelegramBotToken = os.ExpandEnv(c.Notifier.TelegramBotToken)
	c.Database.URL = os.ExpandEnv(c.Database.URL)
	c.Cache.RedisURL = os.ExpandEnv(c.Cache.RedisURL)

	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Notifier.TelegramBotToken = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Cache.RedisURL = v
	}
	if v := os.Getenv("ML_SERVICE_URL"); v != "" {
		c.MLService.URL = v
	}
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("database.url is required for postgres")
	}
	if c.MLService.Enabled && c.MLService.URL == "" {
		return fmt.Errorf("ml_service.url is required when ml_service.enabled is set")
	}
	if c.Notifier.Enabled && (c.Notifier.TelegramBotToken == "" || c.Notifier.ChatID == 0) {
		return fmt.Errorf("notifier requires telegram_bot_token and chat_id")
	}
	if !models.RiskLevel(c.Notifier.MinRiskLevel).Valid() {
		return fmt.Errorf("unsupported notifier.min_risk_level %q", c.Notifier.MinRiskLevel)
	}
	return nil
}
