package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the host application configuration loaded from environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	LogLevel string `mapstructure:"log_level"`

	// ServiceConfigFile points at a "Service Info" file; when set it wins
	// over Endpoint/APIKey/VerifyCertificate.
	ServiceConfigFile string        `mapstructure:"service_config_file"`
	Endpoint          string        `mapstructure:"endpoint"`
	APIKey            string        `mapstructure:"api_key"`
	VerifyCertificate bool          `mapstructure:"verify_certificate"`
	QueryTimeoutMS    int64         `mapstructure:"query_timeout_ms"`
	QueryTimeout      time.Duration `mapstructure:"-"`

	HistoryType            string        `mapstructure:"history_type"`
	HistoryPath            string        `mapstructure:"history_path"`
	HistoryTTLSeconds      int64         `mapstructure:"history_ttl_seconds"`
	HistoryCleanupSeconds  int64         `mapstructure:"history_cleanup_interval_seconds"`
	HistoryTTL             time.Duration `mapstructure:"-"`
	HistoryCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and configs/.env.
func Load() (*Config, error) {
	return LoadWithServiceFile("")
}

// LoadWithServiceFile is Load with serviceConfigFile, when non-empty,
// taking precedence over SERVICE_CONFIG_FILE.
func LoadWithServiceFile(serviceConfigFile string) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "psclient")
	v.SetDefault("log_level", "info")
	v.SetDefault("service_config_file", "")
	v.SetDefault("endpoint", "")
	v.SetDefault("api_key", "")
	v.SetDefault("verify_certificate", true)
	v.SetDefault("query_timeout_ms", 10000)
	v.SetDefault("history_type", "bbolt")
	v.SetDefault("history_path", "./data/history.db")
	v.SetDefault("history_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("history_cleanup_interval_seconds", int64((6*time.Hour)/time.Second))

	v.AutomaticEnv()
	if path := strings.TrimSpace(serviceConfigFile); path != "" {
		v.Set("service_config_file", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) finalize() error {
	cfg.ServiceConfigFile = strings.TrimSpace(cfg.ServiceConfigFile)
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)

	if cfg.ServiceConfigFile == "" && cfg.Endpoint == "" {
		return fmt.Errorf("either service_config_file or endpoint must be set")
	}
	if cfg.QueryTimeoutMS <= 0 {
		return fmt.Errorf("invalid query_timeout_ms (must be positive milliseconds)")
	}
	cfg.QueryTimeout = time.Duration(cfg.QueryTimeoutMS) * time.Millisecond

	if cfg.HistoryTTLSeconds <= 0 {
		return fmt.Errorf("invalid history_ttl_seconds (must be positive seconds)")
	}
	if cfg.HistoryCleanupSeconds <= 0 {
		return fmt.Errorf("invalid history_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.HistoryTTL = time.Duration(cfg.HistoryTTLSeconds) * time.Second
	cfg.HistoryCleanupInterval = time.Duration(cfg.HistoryCleanupSeconds) * time.Second
	return nil
}
