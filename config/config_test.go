package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "data.csv", cfg.DataPath)
	assert.Equal(t, "values.json", cfg.ParamsPath)
	assert.Equal(t, 0.1, cfg.LearningRate)
	assert.Equal(t, 1000, cfg.Iterations)
	assert.Equal(t, 10000, cfg.ParallelThreshold)
	assert.NoError(t, cfg.Validate())
	assert.Len(t, cfg.TrainerOptions(), 3)
}

func TestApplyFile(t *testing.T) {
	path := writeFile(t, "carprice.toml", `
data_path = "cars.csv"
learning_rate = 0.05
iterations = 2500
log_format = "console"
`)

	cfg := Default()
	require.NoError(t, cfg.applyFile(path))

	assert.Equal(t, "cars.csv", cfg.DataPath)
	assert.Equal(t, 0.05, cfg.LearningRate)
	assert.Equal(t, 2500, cfg.Iterations)
	assert.Equal(t, "console", cfg.LogFormat)
	// absent keys keep defaults
	assert.Equal(t, "values.json", cfg.ParamsPath)
	assert.Equal(t, 10000, cfg.ParallelThreshold)
}

func TestApplyFile_Errors(t *testing.T) {
	cases := []struct {
		desc string
		path string
	}{
		{
			desc: "missing file",
			path: filepath.Join(t.TempDir(), "nope.toml"),
		},
		{
			desc: "invalid toml",
			path: writeFile(t, "bad.toml", "iterations = = 3"),
		},
		{
			desc: "wrong type",
			path: writeFile(t, "type.toml", `iterations = "many"`),
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			cfg := Default()
			assert.Error(t, cfg.applyFile(tc.path))
		})
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(env.Options{
		Prefix: EnvPrefix,
		Environment: map[string]string{
			"CARPRICE_ITERATIONS":    "42",
			"CARPRICE_PARAMS_PATH":   "/tmp/thetas.json",
			"CARPRICE_LEARNING_RATE": "0.2",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Iterations)
	assert.Equal(t, "/tmp/thetas.json", cfg.ParamsPath)
	assert.Equal(t, 0.2, cfg.LearningRate)
	assert.Equal(t, "data.csv", cfg.DataPath)

	err = cfg.applyEnv(env.Options{
		Prefix:      EnvPrefix,
		Environment: map[string]string{"CARPRICE_ITERATIONS": "lots"},
	})
	assert.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "carprice.toml", "iterations = 10\nplot_dir = \"plots\"\n")
	t.Setenv("CARPRICE_ITERATIONS", "20")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Iterations, "environment overrides file")
	assert.Equal(t, "plots", cfg.PlotDir, "file overrides default")
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))

	path := writeFile(t, ".env", "CARPRICE_TEST_DOTENV=loaded\n")
	t.Setenv("CARPRICE_TEST_DOTENV", "")
	os.Unsetenv("CARPRICE_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("CARPRICE_TEST_DOTENV"))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		desc   string
		mutate func(*Config)
		param  string
	}{
		{"zero learning rate", func(c *Config) { c.LearningRate = 0 }, "learning_rate"},
		{"negative iterations", func(c *Config) { c.Iterations = -1 }, "iterations"},
		{"zero threshold", func(c *Config) { c.ParallelThreshold = 0 }, "parallel_threshold"},
		{"empty data path", func(c *Config) { c.DataPath = "" }, "data_path"},
		{"empty params path", func(c *Config) { c.ParamsPath = "" }, "params_path"},
		{"unknown log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			err := cfg.Validate()
			var valErr *errors.ValidationError
			require.True(t, errors.As(err, &valErr), "expected ValidationError, got %v", err)
			assert.Equal(t, tc.param, valErr.ParamName)
		})
	}
}
