// Package config implements the experiment configuration record. A
// Config is created once at startup, either from a JSON file or from
// Default, and is read-only afterwards.
package config

import (
	"encoding/json"
	"os"

	"github.com/ChillingDream/EfficientResearchWork/device"
	"github.com/ChillingDream/EfficientResearchWork/initwfn"
	"github.com/ChillingDream/EfficientResearchWork/network"
	"github.com/pkg/errors"
)

// Config describes a training run: where logs and checkpoints go, how
// the driver batches and schedules it, and the network the factory
// builds for it.
type Config struct {
	// Experiment surface
	LogDir     string
	ModelDir   string
	Device     string
	BatchSize  int
	LR         float64
	LRStepSize int
	LRDecay    float64 // <= 0 selects the scheduler default

	// Network factory surface
	Net network.Architecture

	// Driver knobs
	Epochs    int
	CkptEvery int // <= 0 disables periodic checkpoints
}

// Default returns a configuration for a small regression run on the
// host device
func Default() *Config {
	init, err := initwfn.NewGlorotN(1.0)
	if err != nil {
		// GlorotN only fails on programmer error
		panic(err)
	}

	return &Config{
		LogDir:     "train_log",
		ModelDir:   "model",
		Device:     "cpu",
		BatchSize:  32,
		LR:         1e-3,
		LRStepSize: 10,
		Net: network.Architecture{
			Features:    1,
			Outputs:     1,
			HiddenSizes: []int{64, 64},
			Biases:      []bool{true, true},
			Activations: []*network.Activation{
				network.ReLU(),
				network.ReLU(),
			},
			Init: init,
		},
		Epochs:    30,
		CkptEvery: 10,
	}
}

// Load reads a Config from a JSON file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load: could not read config %v", path)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrapf(err, "load: could not parse config %v",
			path)
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "load: invalid config %v", path)
	}
	return &config, nil
}

// Save writes the Config to a JSON file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return errors.Wrap(err, "save: could not marshal config")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "save: could not write config %v", path)
	}
	return nil
}

// Validate returns an error describing the first invalid field, if any
func (c *Config) Validate() error {
	if c.LogDir == "" {
		return errors.New("validate: no log directory")
	}
	if c.ModelDir == "" {
		return errors.New("validate: no model directory")
	}
	if _, err := device.Parse(c.Device); err != nil {
		return errors.Wrap(err, "validate")
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("validate: batch size must be positive, "+
			"got %v", c.BatchSize)
	}
	if c.LR <= 0 {
		return errors.Errorf("validate: learning rate must be positive, "+
			"got %v", c.LR)
	}
	if c.LRStepSize <= 0 {
		return errors.Errorf("validate: lr step size must be positive, "+
			"got %v", c.LRStepSize)
	}
	if err := c.Net.Validate(); err != nil {
		return errors.Wrap(err, "validate")
	}
	if c.Epochs < 0 {
		return errors.Errorf("validate: epochs must be non-negative, "+
			"got %v", c.Epochs)
	}
	return nil
}
