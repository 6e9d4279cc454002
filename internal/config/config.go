package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is built once at
// process start and passed explicitly into component constructors.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Telegram  TelegramConfig  `yaml:"telegram" mapstructure:"telegram"`
	Resolver  ResolverConfig  `yaml:"resolver" mapstructure:"resolver"`
	Valuation ValuationConfig `yaml:"valuation" mapstructure:"valuation"`
	Carfax    CarfaxConfig    `yaml:"carfax" mapstructure:"carfax"`
	Listing   ListingConfig   `yaml:"listing" mapstructure:"listing"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Profile   ProfileConfig   `yaml:"profile" mapstructure:"profile"`
	Dedup     DedupConfig     `yaml:"dedup" mapstructure:"dedup"`
	History   HistoryConfig   `yaml:"history" mapstructure:"history"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP server and its two auth surfaces: the
// shared-secret webhook token and basic auth for the operator API.
type ServerConfig struct {
	Port          int    `yaml:"port" mapstructure:"port"`
	WebhookSecret string `yaml:"webhook_secret" mapstructure:"webhook_secret"`
	UIUser        string `yaml:"ui_user" mapstructure:"ui_user"`
	UIPass        string `yaml:"ui_pass" mapstructure:"ui_pass"`
}

// TelegramConfig holds delivery credentials and throttling.
type TelegramConfig struct {
	BotToken      string  `yaml:"bot_token" mapstructure:"bot_token"`
	ChatID        string  `yaml:"chat_id" mapstructure:"chat_id"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst         int     `yaml:"burst" mapstructure:"burst"`
}

// ResolverConfig points at the external VIN/odometer resolver. An empty
// URL disables the enrichment step.
type ResolverConfig struct {
	URL       string `yaml:"url" mapstructure:"url"`
	TimeoutMS int    `yaml:"timeout_ms" mapstructure:"timeout_ms"`
}

// Timeout returns the per-call deadline.
func (c ResolverConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// ValuationConfig points at the market-value (MMR) lookup service.
type ValuationConfig struct {
	URL       string `yaml:"url" mapstructure:"url"`
	TimeoutMS int    `yaml:"timeout_ms" mapstructure:"timeout_ms"`
}

// Timeout returns the per-call deadline.
func (c ValuationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// CarfaxConfig holds the history-report link template, keyed by VIN.
type CarfaxConfig struct {
	Template string `yaml:"template" mapstructure:"template"`
}

// ListingConfig holds the listing URL template, keyed by lot id.
type ListingConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// StoreConfig configures the history database backend.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// ProfileConfig locates the operator profiles file.
type ProfileConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// DedupConfig configures the in-process duplicate suppression window.
type DedupConfig struct {
	TTLMinutes int `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// TTL returns the suppression window.
func (c DedupConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// HistoryConfig bounds the /history listing.
type HistoryConfig struct {
	Limit int `yaml:"limit" mapstructure:"limit"`
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
	v.SetEnvPrefix("LOTBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8789)
	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("telegram.rate_per_second", 0.5)
	v.SetDefault("telegram.burst", 1)
	v.SetDefault("resolver.timeout_ms", 1200)
	v.SetDefault("valuation.timeout_ms", 1500)
	v.SetDefault("carfax.template", "https://www.carfaxonline.com/vhr/%s")
	v.SetDefault("listing.base_url", "https://www.copart.com/lot/%s")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "lotbridge.db")
	v.SetDefault("profile.path", "profiles.yaml")
	v.SetDefault("dedup.ttl_minutes", 30)
	v.SetDefault("history.limit", 500)
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
