// Package obaconfig loads tuning knobs for the allocator and query driver
// from a config file, environment variables, and defaults, using viper.
package obaconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the allocator/query tuning knobs that do not belong in
// spec.md's call-site arguments (those stay as explicit function
// parameters; this is everything else an operator might want to tune
// without recompiling).
type Config struct {
	Alloc  AllocConfig  `mapstructure:"alloc"`
	Query  QueryConfig  `mapstructure:"query"`
	Log    LogConfig    `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// AllocConfig tunes slab growth and disk sync behavior.
type AllocConfig struct {
	// InitialSlabSize is the size of the first slab appended when no
	// chunk satisfies an allocation request.
	InitialSlabSize int `mapstructure:"initial_slab_size"`
	// GrowthFactor multiplies the previous slab's size to compute the
	// next slab's minimum size (spec.md §4.2 alloc: "exponential... to
	// bound allocation count").
	GrowthFactor float64 `mapstructure:"growth_factor"`
	// MaxSlabSize caps slab growth; once the geometric size would exceed
	// this, slabs grow linearly by MaxSlabSize instead.
	MaxSlabSize int `mapstructure:"max_slab_size"`
	// DisableSyncToDisk skips fsync/msync in resize_file/reserve_disk_space
	// and prepare_for_update (spec.md §9: "global process-wide state...
	// should be an explicit configuration struct").
	DisableSyncToDisk bool `mapstructure:"disable_sync_to_disk"`
}

// QueryConfig tunes the parser/driver.
type QueryConfig struct {
	// MaxPredicateLength is loaded with a default of 64 KiB, but nothing in
	// the query packages reads it: predicate text length is not checked.
	MaxPredicateLength int `mapstructure:"max_predicate_length"`
}

// LogConfig tunes obalog.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig tunes obametrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Prefix  string `mapstructure:"prefix"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() Config {
	return Config{
		Alloc: AllocConfig{
			InitialSlabSize: 4096,
			GrowthFactor:    2.0,
			MaxSlabSize:     64 << 20,
		},
		Query: QueryConfig{
			MaxPredicateLength: 64 * 1024,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Prefix:  "oba",
		},
	}
}

// Load reads configuration from configPath (if non-empty), then OBA_*
// environment variables, layered over Default.
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("OBA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("obaconfig: reading %s: %w", configPath, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("obaconfig: unmarshal: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("alloc.initial_slab_size", d.Alloc.InitialSlabSize)
	v.SetDefault("alloc.growth_factor", d.Alloc.GrowthFactor)
	v.SetDefault("alloc.max_slab_size", d.Alloc.MaxSlabSize)
	v.SetDefault("alloc.disable_sync_to_disk", d.Alloc.DisableSyncToDisk)
	v.SetDefault("query.max_predicate_length", d.Query.MaxPredicateLength)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.prefix", d.Metrics.Prefix)
}
