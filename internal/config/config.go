// Package config loads the settings of the mcdp command from flags, MCDP_
// environment variables and an optional YAML file, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gitrdm/gomcdp/pkg/dp"
	"github.com/gitrdm/gomcdp/pkg/simplify"
)

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "MCDP"

// Config holds the settings shared by every command.
type Config struct {
	Debug    bool           `mapstructure:"debug"`
	Log      LogConfig      `mapstructure:"log"`
	Loop     LoopConfig     `mapstructure:"loop"`
	Simplify SimplifyConfig `mapstructure:"simplify"`
	Workers  int            `mapstructure:"workers"`
	Metrics  bool           `mapstructure:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

type LoopConfig struct {
	MaxIterations int `mapstructure:"max_iterations"`
}

type SimplifyConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	StepFactor int  `mapstructure:"step_factor"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Log:      LogConfig{Level: "warn", Format: "text"},
		Loop:     LoopConfig{MaxIterations: dp.DefaultLoopMaxIterations},
		Simplify: SimplifyConfig{Enabled: true, StepFactor: simplify.DefaultStepFactor},
	}
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"debug":          "debug",
	"config":         "",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"color":          "log.color",
	"max-iterations": "loop.max_iterations",
	"simplify":       "simplify.enabled",
	"step-factor":    "simplify.step_factor",
	"workers":        "workers",
	"metrics":        "metrics",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "YAML configuration file")
	fs.Bool("debug", d.Debug, "check every rewrite and every answer")
	fs.String("log-level", d.Log.Level, "log level: debug, info, warn or error")
	fs.String("log-format", d.Log.Format, "log format: text or json")
	fs.Bool("color", d.Log.Color, "colour text logs")
	fs.Int("max-iterations", d.Loop.MaxIterations, "iteration bound of feedback loops")
	fs.Bool("simplify", d.Simplify.Enabled, "simplify DPs before solving")
	fs.Int("step-factor", d.Simplify.StepFactor, "rewrite budget per DP node")
	fs.Int("workers", d.Workers, "concurrent solves in batch mode (0 means one per CPU)")
	fs.Bool("metrics", d.Metrics, "print solver metrics after the command")
}

// Load merges defaults, the file named by the config flag, the environment
// and the flags of fs.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	d := Default()
	v.SetDefault("debug", d.Debug)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.color", d.Log.Color)
	v.SetDefault("loop.max_iterations", d.Loop.MaxIterations)
	v.SetDefault("simplify.enabled", d.Simplify.Enabled)
	v.SetDefault("simplify.step_factor", d.Simplify.StepFactor)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("metrics", d.Metrics)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			key, ok := flagKeys[f.Name]
			if !ok || key == "" {
				return
			}
			bindErr = errors.Join(bindErr, v.BindPFlag(key, f))
		})
		if bindErr != nil {
			return Config{}, fmt.Errorf("config: %w", bindErr)
		}
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("config: reading %s: %w", f.Value.String(), err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	switch {
	case c.Loop.MaxIterations <= 0:
		return fmt.Errorf("config: loop.max_iterations must be positive, got %d", c.Loop.MaxIterations)
	case c.Simplify.StepFactor <= 0:
		return fmt.Errorf("config: simplify.step_factor must be positive, got %d", c.Simplify.StepFactor)
	case c.Workers < 0:
		return fmt.Errorf("config: workers must not be negative, got %d", c.Workers)
	}
	return nil
}
