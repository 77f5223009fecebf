// Package config loads application configuration from an optional
// ./config.yaml and CRM_* environment variables, and initializes the
// global logger.
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
	Gemini  GeminiConfig  `yaml:"gemini" mapstructure:"gemini"`
	Enrich  EnrichConfig  `yaml:"enrich" mapstructure:"enrich"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Pricing PricingConfig `yaml:"pricing" mapstructure:"pricing"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// GeminiConfig holds the grounded-search API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// EnrichConfig controls the enrichment run.
type EnrichConfig struct {
	Workers           int     `yaml:"workers" mapstructure:"workers"`
	Stages            string  `yaml:"stages" mapstructure:"stages"`
	StageDelaySecs    int     `yaml:"stage_delay_secs" mapstructure:"stage_delay_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// OutputConfig holds default output paths.
type OutputConfig struct {
	CSV      string `yaml:"csv" mapstructure:"csv"`
	ErrorLog string `yaml:"error_log" mapstructure:"error_log"`
	Progress string `yaml:"progress" mapstructure:"progress"`
	DB       string `yaml:"db" mapstructure:"db"`
}

// PricingConfig prices Gemini tokens (USD per million tokens).
type PricingConfig struct {
	InputPerMTok  float64 `yaml:"input_per_mtok" mapstructure:"input_per_mtok"`
	OutputPerMTok float64 `yaml:"output_per_mtok" mapstructure:"output_per_mtok"`
	InputShare    float64 `yaml:"input_share" mapstructure:"input_share"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from ./config.yaml (optional) and the
// environment (prefix CRM, dots become underscores: gemini.key ->
// CRM_GEMINI_KEY).
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.model", "gemini-3-pro-preview")
	v.SetDefault("enrich.workers", 4)
	v.SetDefault("enrich.stages", "poc,fund")
	v.SetDefault("enrich.stage_delay_secs", 2)
	v.SetDefault("enrich.requests_per_second", 1.0)
	v.SetDefault("enrich.max_retries", 3)
	v.SetDefault("output.csv", "enriched.csv")
	v.SetDefault("output.error_log", "enrichment_errors.log")
	v.SetDefault("output.progress", "enrichment_progress.txt")
	v.SetDefault("output.db", "enrichment.db")
	v.SetDefault("pricing.input_per_mtok", 1.25)
	v.SetDefault("pricing.output_per_mtok", 10.00)
	v.SetDefault("pricing.input_share", 0.20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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

// InitLogger builds the global zap logger from cfg.
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
