// Package config loads the P2 CLI's layered configuration, mirroring the
// teacher's loadConfigFromFile / setDefaults / validateConfig trio.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ClusterConfig configures spec.md §4.4's distributed mode.
type ClusterConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Ranks   int  `mapstructure:"ranks" yaml:"ranks"`
}

// Config is the P2 engine's full configuration surface: what to compute,
// how many workers to use, how verbose to be, and the adaptive stride
// floor a test run might want smaller than production's 2^23.
type Config struct {
	X               int64         `mapstructure:"x" yaml:"x"`
	Y               int64         `mapstructure:"y" yaml:"y"`
	Threads         int           `mapstructure:"threads" yaml:"threads"`
	Wide            bool          `mapstructure:"wide" yaml:"wide"`
	StatusEnabled   bool          `mapstructure:"status_enabled" yaml:"status_enabled"`
	StatusPrecision int           `mapstructure:"status_precision" yaml:"status_precision"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	Verbose         bool          `mapstructure:"verbose" yaml:"verbose"`
	MinDistance     int64         `mapstructure:"min_distance" yaml:"min_distance"`
	Cluster         ClusterConfig `mapstructure:"cluster" yaml:"cluster"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("threads", 0) // 0 = GOMAXPROCS
	v.SetDefault("wide", false)
	v.SetDefault("status_enabled", false)
	v.SetDefault("status_precision", 2)
	v.SetDefault("log_level", "info")
	v.SetDefault("verbose", false)
	v.SetDefault("min_distance", int64(1)<<23)
	v.SetDefault("cluster.enabled", false)
	v.SetDefault("cluster.ranks", 1)
}

// Load reads path (a YAML file) through viper, falling back to defaults
// for anything the file omits, then validates the result. An empty path
// means "no file, defaults only" rather than an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate runs the same flat list of precondition checks the teacher's
// validateConfig does, scoped to this engine's fields.
func Validate(cfg *Config) error {
	if cfg.X < 0 {
		return fmt.Errorf("x must be non-negative, got %d", cfg.X)
	}
	if cfg.Y < 0 {
		return fmt.Errorf("y must be non-negative, got %d", cfg.Y)
	}
	if cfg.Threads < 0 {
		return fmt.Errorf("threads cannot be negative, got %d", cfg.Threads)
	}
	if cfg.StatusPrecision < 0 {
		return fmt.Errorf("status_precision cannot be negative, got %d", cfg.StatusPrecision)
	}
	if cfg.MinDistance <= 0 {
		return fmt.Errorf("min_distance must be positive, got %d", cfg.MinDistance)
	}
	if cfg.Cluster.Ranks < 1 {
		return fmt.Errorf("cluster.ranks must be at least 1, got %d", cfg.Cluster.Ranks)
	}
	return nil
}

// ResolvedThreads returns the configured thread count, or a caller
// supplied fallback (GOMAXPROCS in the CLI's case) when Threads is the
// "auto" sentinel of 0.
func (c *Config) ResolvedThreads(fallback int) int {
	if c.Threads > 0 {
		return c.Threads
	}
	return fallback
}
