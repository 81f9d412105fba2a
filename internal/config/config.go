// Package config defines the data structures related to configuration and
// includes functions for loading, overriding and validating it.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/pricing-advisor/pkg/constants"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// Data source kinds.
const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
)

// Configuration holds all configuration for pricing-advisor.
type Configuration struct {
	Logging LoggingConfig `yaml:"logging,omitempty" mapstructure:"logging"`
	Output  OutputConfig  `yaml:"output,omitempty" mapstructure:"output"`
	Data    DataConfig    `yaml:"data,omitempty" mapstructure:"data"`
	Model   ModelConfig   `yaml:"model,omitempty" mapstructure:"model"`
	Pricing PricingConfig `yaml:"pricing,omitempty" mapstructure:"pricing"`
	Cache   CacheConfig   `yaml:"cache,omitempty" mapstructure:"cache"`
	Batch   BatchConfig   `yaml:"batch,omitempty" mapstructure:"batch"`
	Server  ServerConfig  `yaml:"server,omitempty" mapstructure:"server"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`                              // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`                            // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile" split_words:"true"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, json
}

// DataConfig locates the reference tables. Database is the SQLite file
// used by the sqlite source.
type DataConfig struct {
	Source   string `yaml:"source,omitempty" mapstructure:"source"`
	Dir      string `yaml:"dir,omitempty" mapstructure:"dir"`
	Database string `yaml:"database,omitempty" mapstructure:"database"`
}

// ModelConfig controls training and where the artifact lives.
type ModelConfig struct {
	Path         string  `yaml:"path,omitempty" mapstructure:"path"`
	Trees        int     `yaml:"trees,omitempty" mapstructure:"trees"`
	MaxDepth     int     `yaml:"maxDepth,omitempty" mapstructure:"maxDepth" split_words:"true"`
	Seed         int64   `yaml:"seed,omitempty" mapstructure:"seed"`
	TestFraction float64 `yaml:"testFraction,omitempty" mapstructure:"testFraction" split_words:"true"`
	Workers      int     `yaml:"workers,omitempty" mapstructure:"workers"`
}

// PricingConfig tunes the recommendation pipeline.
type PricingConfig struct {
	GridWorkers int `yaml:"gridWorkers,omitempty" mapstructure:"gridWorkers" split_words:"true"`
}

// CacheConfig bounds the recommendation cache. A zero size disables it.
type CacheConfig struct {
	Size int    `yaml:"size,omitempty" mapstructure:"size"`
	TTL  string `yaml:"ttl,omitempty" mapstructure:"ttl"`
	ttl  time.Duration
}

// BatchConfig bounds bulk pricing jobs.
type BatchConfig struct {
	Workers     int `yaml:"workers,omitempty" mapstructure:"workers"`
	MaxRequests int `yaml:"maxRequests,omitempty" mapstructure:"maxRequests" split_words:"true"`
}

// ServerConfig points at the HTTP server's own configuration file. A
// non-empty Address overrides the address found there.
type ServerConfig struct {
	ConfigFile string `yaml:"configFile,omitempty" mapstructure:"configFile" split_words:"true"`
	Address    string `yaml:"address,omitempty" mapstructure:"address"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there, then applies PRICING_* environment overrides.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := configuration.ApplyEnv(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// Default returns a configuration with every default applied, for runs
// without a config file.
func Default() (*Configuration, error) {
	var configuration Configuration
	if err := configuration.ApplyEnv(); err != nil {
		return nil, err
	}
	configuration.Normalize()
	return &configuration, nil
}

// ApplyEnv overlays environment variables such as PRICING_MODEL_PATH or
// PRICING_MODEL_MAX_DEPTH. Only PRICING_ names are read; unset variables
// leave the loaded values alone.
func (c *Configuration) ApplyEnv() error {
	if err := envconfig.Process(constants.EnvPrefix, c); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// Normalize fills defaults and canonical values.
func (c *Configuration) Normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	c.Output.Format = strings.TrimSpace(c.Output.Format)
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}

	c.Data.Source = strings.ToLower(strings.TrimSpace(c.Data.Source))
	if c.Data.Source == "" {
		c.Data.Source = SourceCSV
	}
	if c.Data.Dir == "" {
		c.Data.Dir = constants.DefaultDataDir
	}

	if c.Model.Path == "" {
		c.Model.Path = constants.DefaultModelPath
	}
	if c.Model.Trees <= 0 {
		c.Model.Trees = constants.DefaultTrees
	}
	if c.Model.MaxDepth <= 0 {
		c.Model.MaxDepth = constants.DefaultMaxDepth
	}
	if c.Model.Seed == 0 {
		c.Model.Seed = constants.DefaultSeed
	}
	if c.Model.TestFraction == 0 {
		c.Model.TestFraction = constants.DefaultTestFraction
	}

	if c.Pricing.GridWorkers <= 0 {
		c.Pricing.GridWorkers = 1
	}

	if c.Cache.Size < 0 {
		c.Cache.Size = 0
	}
	if strings.TrimSpace(c.Cache.TTL) == "" {
		c.Cache.TTL = constants.DefaultCacheTTL
	}

	if c.Batch.Workers <= 0 {
		c.Batch.Workers = constants.DefaultBatchWorkers
	}
	if c.Batch.MaxRequests <= 0 {
		c.Batch.MaxRequests = constants.MaxBatchRequests
	}

	if c.Server.ConfigFile == "" {
		c.Server.ConfigFile = constants.DefaultServerConfigFile
	}
}

// Validate normalizes the configuration and returns an error describing
// every impossible value.
func (c *Configuration) Validate() error {
	c.Normalize()

	var errs []error
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unsupported logging level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unsupported logging format %q", c.Logging.Format))
	}
	if c.Output.Format != constants.OutputFormatPretty && c.Output.Format != constants.OutputFormatJSON {
		errs = append(errs, fmt.Errorf("unsupported output format %q", c.Output.Format))
	}
	switch c.Data.Source {
	case SourceCSV:
	case SourceSQLite:
		if strings.TrimSpace(c.Data.Database) == "" {
			errs = append(errs, errors.New("data.database is required for the sqlite source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported data source %q", c.Data.Source))
	}
	if c.Model.TestFraction <= 0 || c.Model.TestFraction >= 1 {
		errs = append(errs, fmt.Errorf("model.testFraction %.2f must be between 0 and 1", c.Model.TestFraction))
	}

	ttl, err := time.ParseDuration(strings.TrimSpace(c.Cache.TTL))
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("invalid cache.ttl %q: %w", c.Cache.TTL, err))
	case ttl <= 0:
		errs = append(errs, fmt.Errorf("cache.ttl %s must be positive", c.Cache.TTL))
	default:
		c.Cache.ttl = ttl
	}

	return errors.Join(errs...)
}

// TTLDuration returns the parsed cache TTL. It is zero until Validate succeeds.
func (c CacheConfig) TTLDuration() time.Duration {
	return c.ttl
}
