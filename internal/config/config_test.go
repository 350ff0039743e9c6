package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(flags(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestFlagsOverride(t *testing.T) {
	cfg, err := Load(flags(t, "--debug", "--max-iterations=7", "--simplify=false", "--workers=3", "--log-format=json"))
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 7, cfg.Loop.MaxIterations)
	assert.False(t, cfg.Simplify.Enabled)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("MCDP_LOOP_MAX_ITERATIONS", "12")
	t.Setenv("MCDP_LOG_LEVEL", "debug")
	cfg, err := Load(flags(t))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Loop.MaxIterations)
	assert.Equal(t, "debug", cfg.Log.Level)

	cfg, err = Load(flags(t, "--max-iterations=5"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Loop.MaxIterations, "flags win over the environment")
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcdp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
metrics: true
simplify:
  step_factor: 4
loop:
  max_iterations: 30
`), 0o644))

	cfg, err := Load(flags(t, "--config", path, "--max-iterations=9"))
	require.NoError(t, err)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, 4, cfg.Simplify.StepFactor)
	assert.Equal(t, 9, cfg.Loop.MaxIterations)

	_, err = Load(flags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.ErrorContains(t, err, "config: reading")
}

func TestValidate(t *testing.T) {
	_, err := Load(flags(t, "--max-iterations=0"))
	assert.ErrorContains(t, err, "max_iterations")
	_, err = Load(flags(t, "--workers=-1"))
	assert.ErrorContains(t, err, "workers")
	_, err = Load(flags(t, "--step-factor=0"))
	assert.ErrorContains(t, err, "step_factor")
}
