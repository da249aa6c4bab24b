// Package config loads application configuration from file and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Load    LoadConfig    `yaml:"load" mapstructure:"load"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// CatalogConfig configures access to the dados.gov.br open-data API.
type CatalogConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Dataset string `yaml:"dataset" mapstructure:"dataset"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
}

// StoreConfig configures the target Postgres database. The DSN is assembled
// from parts so each can come from its own environment variable.
type StoreConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"sslmode" mapstructure:"sslmode"`
}

// DSN returns the pgx connection string for the configured database.
func (s StoreConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User, s.Password, s.Host, s.Port, s.Database, s.SSLMode)
}

// LoadConfig configures the ETL run itself.
type LoadConfig struct {
	Workers       int           `yaml:"workers" mapstructure:"workers"`
	Deadline      time.Duration `yaml:"deadline" mapstructure:"deadline"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`
	RetryAttempts int           `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BE_ANALYTIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("catalog.base_url", "https://dados.gov.br/dados/api/publico")
	v.SetDefault("catalog.dataset", "indice-desempenho-atendimento")
	// Secrets have no file default; registering an empty one keeps the
	// key visible to Unmarshal when it arrives via the environment only.
	v.SetDefault("catalog.api_key", "")
	v.SetDefault("store.password", "")
	v.SetDefault("store.host", "localhost")
	v.SetDefault("store.port", 5432)
	v.SetDefault("store.user", "postgres")
	v.SetDefault("store.database", "be_analytic_database")
	v.SetDefault("store.sslmode", "disable")
	v.SetDefault("load.workers", 4)
	v.SetDefault("load.deadline", 30*time.Minute)
	v.SetDefault("load.fetch_timeout", 60*time.Second)
	v.SetDefault("load.retry_attempts", 3)
	v.SetDefault("load.user_agent", "be-analytic-etl/1.0")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
