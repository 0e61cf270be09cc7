package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	config := Default()
	config.LR = 0.05
	config.Device = "cpu"
	require.NoError(t, config.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.LogDir, loaded.LogDir)
	assert.Equal(t, config.ModelDir, loaded.ModelDir)
	assert.Equal(t, config.BatchSize, loaded.BatchSize)
	assert.Equal(t, config.LR, loaded.LR)
	assert.Equal(t, config.LRStepSize, loaded.LRStepSize)
	assert.Equal(t, config.Net.HiddenSizes, loaded.Net.HiddenSizes)
	assert.Equal(t, config.Net.Init.Type, loaded.Net.Init.Type)
	require.Len(t, loaded.Net.Activations, len(config.Net.Activations))
	for i := range config.Net.Activations {
		assert.Equal(t, config.Net.Activations[i].String(),
			loaded.Net.Activations[i].String())
	}
	assert.NoError(t, loaded.Validate())
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	invalid := []func(*Config){
		func(c *Config) { c.LogDir = "" },
		func(c *Config) { c.ModelDir = "" },
		func(c *Config) { c.Device = "tpu" },
		func(c *Config) { c.BatchSize = 0 },
		func(c *Config) { c.LR = -1 },
		func(c *Config) { c.LRStepSize = 0 },
		func(c *Config) { c.Net.Features = 0 },
		func(c *Config) { c.Net.Init = nil },
		func(c *Config) { c.Epochs = -1 },
	}

	for i, mutate := range invalid {
		config := Default()
		mutate(config)
		assert.Error(t, config.Validate(), "case %v", i)
	}
}
