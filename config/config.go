package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds all process configuration read from the environment
type Config struct {
	Matrix   MatrixConfig
	Bot      BotFileConfig
	Store    StoreConfig
	Render   RenderConfig
	Kafka    KafkaConfig
	Database DatabaseConfig
	S3       S3Config
	Logging  LoggingConfig
	Service  ServiceConfig
}

// MatrixConfig holds homeserver connection settings
type MatrixConfig struct {
	HomeserverURL string  `env:"MATRIX_HOMESERVER_URL"`
	UserID        string  `env:"MATRIX_USER_ID"`
	Password      string  `env:"BOT_PASSWORD"`
	AccessToken   string  `env:"MATRIX_ACCESS_TOKEN"`
	DeviceName    string  `env:"MATRIX_DEVICE_NAME" envDefault:"hebbot"`
	SendRate      float64 `env:"MATRIX_SEND_RATE" envDefault:"2"`
	SendBurst     int     `env:"MATRIX_SEND_BURST" envDefault:"5"`
}

// BotFileConfig points at the bot configuration file (rooms, editors, sections, projects)
type BotFileConfig struct {
	Path string `env:"CONFIG_PATH" envDefault:"./config.yaml"`
}

// StoreConfig selects the snapshot backend
type StoreConfig struct {
	Driver string `env:"STORE_DRIVER" envDefault:"file"`
	Path   string `env:"STORE_PATH" envDefault:"./store.json"`
}

// RenderConfig holds render settings
type RenderConfig struct {
	TemplatePath string `env:"TEMPLATE_PATH"`
	HTMLPreview  bool   `env:"RENDER_HTML_PREVIEW" envDefault:"false"`
}

// KafkaConfig holds change feed settings. The feed is disabled without brokers.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"hebbot.news"`
}

// DatabaseConfig holds PostgreSQL settings for STORE_DRIVER=postgres
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"hebbot"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" envDefault:"hebbot"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// S3Config holds render archive settings. The archive is disabled without an endpoint.
type S3Config struct {
	Endpoint  string `env:"S3_ENDPOINT"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	Bucket    string `env:"S3_BUCKET" envDefault:"hebbot-renders"`
	UseSSL    bool   `env:"S3_USE_SSL" envDefault:"false"`
	PublicURL string `env:"S3_PUBLIC_URL"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
}

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Name string `env:"SERVICE_NAME" envDefault:"hebbot"`
	Port string `env:"SERVICE_PORT" envDefault:"8080"`
}

// Store drivers
const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"
)

// Result provides config parts for fx dependency injection using fx.Out pattern
type Result struct {
	fx.Out

	Config   *Config
	Matrix   *MatrixConfig
	BotFile  *BotFileConfig
	Store    *StoreConfig
	Render   *RenderConfig
	Kafka    *KafkaConfig
	Database *DatabaseConfig
	S3       *S3Config
	Logging  *LoggingConfig
	Service  *ServiceConfig
	Holder   *Holder
}

// Out loads configuration and returns Result for fx injection
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	holder, err := NewHolder(cfg.Bot.Path)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:   cfg,
		Matrix:   &cfg.Matrix,
		BotFile:  &cfg.Bot,
		Store:    &cfg.Store,
		Render:   &cfg.Render,
		Kafka:    &cfg.Kafka,
		Database: &cfg.Database,
		S3:       &cfg.S3,
		Logging:  &cfg.Logging,
		Service:  &cfg.Service,
		Holder:   holder,
	}, nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Matrix.HomeserverURL == "" {
		return fmt.Errorf("MATRIX_HOMESERVER_URL is required")
	}

	if c.Matrix.Password == "" && c.Matrix.AccessToken == "" {
		return fmt.Errorf("BOT_PASSWORD or MATRIX_ACCESS_TOKEN is required")
	}

	if c.Matrix.SendRate <= 0 {
		return fmt.Errorf("MATRIX_SEND_RATE must be positive")
	}

	switch c.Store.Driver {
	case StoreDriverFile:
		if c.Store.Path == "" {
			return fmt.Errorf("STORE_PATH is required for the file store")
		}
	case StoreDriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	return nil
}
