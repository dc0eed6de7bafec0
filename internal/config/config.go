// Package config defines the configuration of the analyzer and loads it from
// an optional YAML file and BRRRR_* environment variables.
package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/iwvelando/brrrr-analyzer/pkg/constants"
	"github.com/iwvelando/brrrr-analyzer/pkg/rules"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Cache drivers.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// ErrInvalidConfiguration is returned when a loaded configuration cannot be
// used.
var ErrInvalidConfiguration = eris.New("invalid configuration")

// Configuration holds all configuration for brrrr-analyzer.
type Configuration struct {
	Logging     LoggingConfig          `yaml:"logging" mapstructure:"logging"`
	Output      OutputConfig           `yaml:"output" mapstructure:"output"`
	Server      ServerConfig           `yaml:"server" mapstructure:"server"`
	Cache       CacheConfig            `yaml:"cache" mapstructure:"cache"`
	Rules       rules.Rules            `yaml:"rules" mapstructure:"rules"`
	Assumptions validation.Assumptions `yaml:"assumptions" mapstructure:"assumptions"`
	Timeline    TimelineConfig         `yaml:"timeline" mapstructure:"timeline"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile" mapstructure:"outputFile"` // optional rotated file output
	MaxSizeMB  int    `yaml:"maxSizeMB" mapstructure:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups" mapstructure:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays" mapstructure:"maxAgeDays"`
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // pretty, csv, json
}

// ServerConfig defines runtime parameters for the HTTP API.
type ServerConfig struct {
	Address     string          `yaml:"address" mapstructure:"address"`
	MaxBodySize string          `yaml:"maxBodySize" mapstructure:"maxBodySize"` // 256K, 1M
	RateLimit   RateLimitConfig `yaml:"rateLimit" mapstructure:"rateLimit"`
	CORSOrigins []string        `yaml:"corsOrigins" mapstructure:"corsOrigins"`

	bodySizeBytes int64
}

// RateLimitConfig is the per-client token bucket. A non-positive RPS
// disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" mapstructure:"rps"`
	Burst int     `yaml:"burst" mapstructure:"burst"`
}

// CacheConfig selects where analysis results are cached.
type CacheConfig struct {
	Driver    string        `yaml:"driver" mapstructure:"driver"` // memory, redis, none
	RedisAddr string        `yaml:"redisAddr" mapstructure:"redisAddr"`
	TTL       time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// TimelineConfig holds the timeline defaults.
type TimelineConfig struct {
	HorizonMonths int `yaml:"horizonMonths" mapstructure:"horizonMonths"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() Configuration {
	return Configuration{
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Output: OutputConfig{Format: constants.OutputFormatPretty},
		Server: ServerConfig{
			Address:     constants.DefaultServerAddress,
			MaxBodySize: "256K",
			RateLimit: RateLimitConfig{
				RPS:   constants.DefaultRateLimitRPS,
				Burst: constants.DefaultRateLimitBurst,
			},
			CORSOrigins:   []string{"*"},
			bodySizeBytes: constants.DefaultMaxBodySizeBytes,
		},
		Cache: CacheConfig{
			Driver: CacheMemory,
			TTL:    15 * time.Minute,
		},
		Rules:       rules.Default(),
		Assumptions: validation.DefaultAssumptions(),
		Timeline:    TimelineConfig{HorizonMonths: constants.DefaultTimelineHorizonMonths},
	}
}

// LoadConfiguration layers the defaults, the YAML file at configPath and the
// BRRRR_* environment, in that order of precedence. A missing file is not an
// error; an empty path skips the file.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults, err := yaml.Marshal(Default())
	if err != nil {
		return nil, eris.Wrap(err, "failed to encode default configuration")
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, eris.Wrap(err, "failed to load default configuration")
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, eris.Wrapf(err, "failed to read config file %s", configPath)
		default:
			if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
				return nil, eris.Wrapf(err, "failed to parse config file %s", configPath)
			}
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, eris.Wrap(err, "unable to decode configuration")
	}
	configuration.Assumptions.RenoFinancingRates = normalizeRates(configuration.Assumptions.RenoFinancingRates)

	if err := configuration.normalize(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// normalizeRates restores the upper-case financing keys that viper folds to
// lower case.
func normalizeRates(in map[validation.RenoFinancing]float64) map[validation.RenoFinancing]float64 {
	out := make(map[validation.RenoFinancing]float64, len(in))
	for k, rate := range in {
		out[validation.RenoFinancing(strings.ToUpper(string(k)))] = rate
	}
	return out
}

func (c *Configuration) normalize() error {
	size, err := ParseSize(c.Server.MaxBodySize)
	if err != nil {
		return eris.Wrap(ErrInvalidConfiguration, err.Error())
	}
	if size <= 0 {
		size = constants.DefaultMaxBodySizeBytes
	}
	c.Server.bodySizeBytes = size

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Cache.Driver = strings.ToLower(strings.TrimSpace(c.Cache.Driver))
	return c.Validate()
}

// Validate reports the first setting that prevents the configuration from
// being used.
func (c *Configuration) Validate() error {
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return eris.Wrap(ErrInvalidConfiguration, err.Error())
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return eris.Wrapf(ErrInvalidConfiguration, "invalid log format: %s", c.Logging.Format)
	}
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return eris.Wrap(ErrInvalidConfiguration, err.Error())
	}
	switch c.Cache.Driver {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return eris.Wrap(ErrInvalidConfiguration, "cache.redisAddr is required for the redis driver")
		}
	default:
		return eris.Wrapf(ErrInvalidConfiguration, "unknown cache driver: %s", c.Cache.Driver)
	}
	if c.Timeline.HorizonMonths < 1 {
		return eris.Wrapf(ErrInvalidConfiguration, "timeline.horizonMonths must be positive, got %d", c.Timeline.HorizonMonths)
	}
	if _, ok := c.Assumptions.RenoFinancingRates[c.Assumptions.RenoFinancingType]; !ok {
		return eris.Wrapf(ErrInvalidConfiguration, "no default rate for renovation financing %s", c.Assumptions.RenoFinancingType)
	}
	if err := c.Rules.Validate(); err != nil {
		return eris.Wrap(ErrInvalidConfiguration, err.Error())
	}
	return nil
}

// ValidateConfiguration returns warnings for settings that are usable but
// probably unintended.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string
	if c.Server.RateLimit.RPS <= 0 {
		warnings = append(warnings, "server.rateLimit.rps is not positive: rate limiting is disabled")
	}
	for _, origin := range c.Server.CORSOrigins {
		if origin == "*" {
			warnings = append(warnings, "server.corsOrigins allows any origin")
			break
		}
	}
	if c.Cache.Driver != CacheNone && c.Cache.TTL <= 0 {
		warnings = append(warnings, "cache.ttl is not positive: cached results never expire")
	}
	if c.Assumptions.RefinanceLTVPercent/constants.PercentageMultiplier > c.Rules.RefinanceMaxLTV {
		warnings = append(warnings, "assumptions.refinanceLtvPercent exceeds rules.refinanceMaxLtv and will be capped")
	}
	return warnings
}

// BodySizeBytes returns the parsed maximum request body size.
func (s ServerConfig) BodySizeBytes() int64 {
	if s.bodySizeBytes <= 0 {
		return constants.DefaultMaxBodySizeBytes
	}
	return s.bodySizeBytes
}

// SetBodySize overrides the maximum request body size.
func (s *ServerConfig) SetBodySize(size string) error {
	n, err := ParseSize(size)
	if err != nil {
		return err
	}
	if n > 0 {
		s.MaxBodySize = size
		s.bodySizeBytes = n
	}
	return nil
}

// Reload re-reads the configuration at configPath and publishes its rules
// to store. Calculations already holding a snapshot are unaffected.
func Reload(configPath string, store *rules.Store) (*Configuration, error) {
	conf, err := LoadConfiguration(configPath)
	if err != nil {
		return nil, err
	}
	if err := store.Replace(conf.Rules); err != nil {
		return nil, eris.Wrap(err, "failed to publish reloaded rules")
	}
	return conf, nil
}
