// Package config resolves runtime settings from defaults, an optional TOML
// file and CARPRICE_* environment variables.
package config

import (
	"fmt"
	"math"
	"os"

	"github.com/YuminosukeSato/carprice/linear"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
)

const (
	// EnvPrefix is prepended to every environment variable name.
	EnvPrefix = "CARPRICE_"

	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config holds every setting of a training or prediction run.
type Config struct {
	DataPath          string  `env:"DATA_PATH"`
	ParamsPath        string  `env:"PARAMS_PATH"`
	LearningRate      float64 `env:"LEARNING_RATE"`
	Iterations        int     `env:"ITERATIONS"`
	ParallelThreshold int     `env:"PARALLEL_THRESHOLD"`
	PlotDir           string  `env:"PLOT_DIR"`
	LogLevel          string  `env:"LOG_LEVEL"`
	LogFormat         string  `env:"LOG_FORMAT"`
	MetricsFile       string  `env:"METRICS_FILE"`
}

// fileConfig mirrors Config with optional fields so keys absent from the
// TOML file keep their previous value.
type fileConfig struct {
	DataPath          *string  `toml:"data_path"`
	ParamsPath        *string  `toml:"params_path"`
	LearningRate      *float64 `toml:"learning_rate"`
	Iterations        *int     `toml:"iterations"`
	ParallelThreshold *int     `toml:"parallel_threshold"`
	PlotDir           *string  `toml:"plot_dir"`
	LogLevel          *string  `toml:"log_level"`
	LogFormat         *string  `toml:"log_format"`
	MetricsFile       *string  `toml:"metrics_file"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DataPath:          "data.csv",
		ParamsPath:        "values.json",
		LearningRate:      linear.DefaultLearningRate,
		Iterations:        linear.DefaultIterations,
		ParallelThreshold: linear.DefaultParallelThreshold,
		PlotDir:           ".",
		LogLevel:          "info",
		LogFormat:         FormatJSON,
	}
}

// Load applies the TOML file at path (skipped when path is empty) and then the
// environment on top of Default. The result is not validated; callers apply
// their own overrides first and then call Validate.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from a .env file if one exists at path.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config file %s", path)
	}
	tree, err := toml.Load(string(data))
	if err != nil {
		return errors.Wrapf(err, "parse config file %s", path)
	}

	var fc fileConfig
	if err := tree.Unmarshal(&fc); err != nil {
		return errors.Wrapf(err, "unmarshal config file %s", path)
	}

	setString(&c.DataPath, fc.DataPath)
	setString(&c.ParamsPath, fc.ParamsPath)
	setString(&c.PlotDir, fc.PlotDir)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFormat, fc.LogFormat)
	setString(&c.MetricsFile, fc.MetricsFile)
	if fc.LearningRate != nil {
		c.LearningRate = *fc.LearningRate
	}
	if fc.Iterations != nil {
		c.Iterations = *fc.Iterations
	}
	if fc.ParallelThreshold != nil {
		c.ParallelThreshold = *fc.ParallelThreshold
	}
	return nil
}

func (c *Config) applyEnv(opts env.Options) error {
	if err := env.ParseWithOptions(c, opts); err != nil {
		return errors.Wrap(err, "parse environment")
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks the settings before they are used.
func (c Config) Validate() error {
	if !(c.LearningRate > 0) || math.IsInf(c.LearningRate, 0) {
		return errors.NewValidationError("learning_rate", "must be a positive finite number", c.LearningRate)
	}
	if c.Iterations < 1 {
		return errors.NewValidationError("iterations", "must be at least 1", c.Iterations)
	}
	if c.ParallelThreshold < 1 {
		return errors.NewValidationError("parallel_threshold", "must be at least 1", c.ParallelThreshold)
	}
	if c.DataPath == "" {
		return errors.NewValidationError("data_path", "must not be empty", c.DataPath)
	}
	if c.ParamsPath == "" {
		return errors.NewValidationError("params_path", "must not be empty", c.ParamsPath)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.NewValidationError("log_level", "must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.LogFormat != FormatJSON && c.LogFormat != FormatConsole {
		return errors.NewValidationError("log_format", fmt.Sprintf("must be %q or %q", FormatJSON, FormatConsole), c.LogFormat)
	}
	return nil
}

// TrainerOptions returns the gradient descent options described by c.
func (c Config) TrainerOptions() []linear.Option {
	return []linear.Option{
		linear.WithLearningRate(c.LearningRate),
		linear.WithIterations(c.Iterations),
		linear.WithParallelThreshold(c.ParallelThreshold),
	}
}
