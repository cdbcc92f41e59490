// Package config loads application configuration from file and environment
// and bootstraps the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Index    IndexConfig    `yaml:"index" mapstructure:"index"`
	Geocoder GeocoderConfig `yaml:"geocoder" mapstructure:"geocoder"`
	Postal   PostalConfig   `yaml:"postal" mapstructure:"postal"`
	Match    MatchConfig    `yaml:"match" mapstructure:"match"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// IndexConfig configures the profile-index client.
type IndexConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	Index       string `yaml:"index" mapstructure:"index"`
	TemplateID  string `yaml:"template_id" mapstructure:"template_id"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// GeocoderConfig configures the boundary geocoder.
type GeocoderConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	CountryCode string  `yaml:"country_code" mapstructure:"country_code"`
	PauseSecs   float64 `yaml:"pause_secs" mapstructure:"pause_secs"`
}

// PostalConfig configures the offline postal-code dataset.
type PostalConfig struct {
	DatasetPath string `yaml:"dataset_path" mapstructure:"dataset_path"`
	CountryCode string `yaml:"country_code" mapstructure:"country_code"`
}

// MatchConfig configures the resolution pipeline.
type MatchConfig struct {
	Epsilon     float64 `yaml:"epsilon" mapstructure:"epsilon"`
	Threshold   float64 `yaml:"threshold" mapstructure:"threshold"`
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts"`
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
	v.SetEnvPrefix("LISTINGMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("index.index", "search_profiles")
	v.SetDefault("index.template_id", "web_search")
	// Generous timeout: query retries compound latency on a slow network.
	v.SetDefault("index.timeout_secs", 30)
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", "listing-match")
	v.SetDefault("geocoder.country_code", "ca")
	v.SetDefault("geocoder.pause_secs", 1)
	v.SetDefault("postal.country_code", "CA")
	v.SetDefault("match.epsilon", 4.0)
	v.SetDefault("match.threshold", 3.5)
	v.SetDefault("match.max_attempts", 3)
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
