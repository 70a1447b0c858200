package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. Everything is
// loaded once per run and passed down explicitly; components never
// read global state.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Merge    MergeConfig    `yaml:"merge" mapstructure:"merge"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the artifact store backend.
type StoreConfig struct {
	// Driver selects the backend: "fs" or "sqlite".
	Driver string `yaml:"driver" mapstructure:"driver"`
	// Dir is the artifact directory for the fs driver.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// DatabaseURL is the sqlite path for the sqlite driver.
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnalysisConfig configures ETA reconciliation and RCA rule behavior.
type AnalysisConfig struct {
	SlipThresholdHours float64  `yaml:"slip_threshold_hours" mapstructure:"slip_threshold_hours"`
	MediumHours        float64  `yaml:"medium_hours" mapstructure:"medium_hours"`
	HighHours          float64  `yaml:"high_hours" mapstructure:"high_hours"`
	DisabledRules      []string `yaml:"disabled_rules" mapstructure:"disabled_rules"`
}

// MergeConfig points at the versioned merge policy files.
type MergeConfig struct {
	// PrecedenceTable is a YAML file overriding the built-in
	// source-precedence chains.
	PrecedenceTable string `yaml:"precedence_table" mapstructure:"precedence_table"`
	// AliasTable is a YAML file extending the built-in CSV column
	// aliases.
	AliasTable string `yaml:"alias_table" mapstructure:"alias_table"`
}

// BatchConfig configures parallel order processing.
type BatchConfig struct {
	MaxConcurrentOrders int `yaml:"max_concurrent_orders" mapstructure:"max_concurrent_orders"`
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
	v.SetEnvPrefix("ORDEROPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "fs")
	v.SetDefault("store.dir", "artifacts")
	v.SetDefault("store.database_url", "orderops.db")
	v.SetDefault("analysis.slip_threshold_hours", 1.0)
	v.SetDefault("analysis.medium_hours", 4.0)
	v.SetDefault("analysis.high_hours", 24.0)
	v.SetDefault("batch.max_concurrent_orders", 4)
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
