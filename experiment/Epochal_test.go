package experiment_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ChillingDream/EfficientResearchWork/checkpoint"
	"github.com/ChillingDream/EfficientResearchWork/config"
	"github.com/ChillingDream/EfficientResearchWork/data"
	"github.com/ChillingDream/EfficientResearchWork/examples"
	"github.com/ChillingDream/EfficientResearchWork/experiment"
	"github.com/ChillingDream/EfficientResearchWork/initwfn"
	"github.com/ChillingDream/EfficientResearchWork/network"
	"github.com/ChillingDream/EfficientResearchWork/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	init, err := initwfn.NewGlorotN(1.0)
	require.NoError(t, err)

	dir := t.TempDir()
	return &config.Config{
		LogDir:     filepath.Join(dir, "log"),
		ModelDir:   filepath.Join(dir, "model"),
		Device:     "cpu",
		BatchSize:  4,
		LR:         0.01,
		LRStepSize: 2,
		Net: network.Architecture{
			Features:    1,
			Outputs:     1,
			HiddenSizes: []int{8},
			Biases:      []bool{true},
			Activations: []*network.Activation{network.TanH()},
			Init:        init,
		},
		Epochs:    2,
		CkptEvery: 1,
	}
}

func TestEpochalRun(t *testing.T) {
	cfg := testConfig(t)

	trainIn, trainTargets := data.Sine(32, 0.01, 11)
	train, err := data.NewInMemory("train", trainIn, trainTargets,
		cfg.BatchSize)
	require.NoError(t, err)

	valIn, valTargets := data.Sine(16, 0.01, 12)
	validation, err := data.NewInMemory("val", valIn, valTargets,
		cfg.BatchSize)
	require.NoError(t, err)

	ag, err := examples.NewRegression(cfg)
	require.NoError(t, err)
	defer ag.Close()

	e := experiment.NewEpochal(ag, train, validation, cfg, 99)
	e.HideProgress()
	require.NoError(t, e.Run())

	// Two epochs of eight training batches each
	assert.Equal(t, 2, ag.Clock().Epoch())
	assert.Equal(t, 16, ag.Clock().Step())

	// Periodic checkpoints plus the final latest tag
	for _, path := range []string{
		checkpoint.EpochPath(cfg.ModelDir, 1),
		checkpoint.EpochPath(cfg.ModelDir, 2),
		checkpoint.NamedPath(cfg.ModelDir, checkpoint.Latest),
	} {
		_, err := os.Stat(path)
		assert.NoError(t, err, "missing %v", path)
	}

	// Validation losses were recorded: two epochs of four batches
	valScalars, err := tracker.LoadScalars(
		filepath.Join(cfg.LogDir, "val.events"))
	require.NoError(t, err)
	assert.Len(t, valScalars, 8)

	trainScalars, err := tracker.LoadScalars(
		filepath.Join(cfg.LogDir, "train.events"))
	require.NoError(t, err)
	assert.NotEmpty(t, trainScalars)
}

func TestEpochalResume(t *testing.T) {
	cfg := testConfig(t)
	cfg.Epochs = 1

	trainIn, trainTargets := data.Sine(16, 0.01, 21)
	train, err := data.NewInMemory("train", trainIn, trainTargets,
		cfg.BatchSize)
	require.NoError(t, err)

	valIn, valTargets := data.Sine(8, 0.01, 22)
	validation, err := data.NewInMemory("val", valIn, valTargets,
		cfg.BatchSize)
	require.NoError(t, err)

	ag, err := examples.NewRegression(cfg)
	require.NoError(t, err)
	defer ag.Close()

	e := experiment.NewEpochal(ag, train, validation, cfg, 7)
	e.HideProgress()
	require.NoError(t, e.Run())

	// A resumed agent at the configured epoch count runs no further
	// epochs
	resumed, err := examples.NewRegression(cfg)
	require.NoError(t, err)
	defer resumed.Close()
	require.NoError(t, resumed.LoadCkpt(checkpoint.Latest))
	assert.Equal(t, 1, resumed.Clock().Epoch())

	stepsBefore := resumed.Clock().Step()
	re := experiment.NewEpochal(resumed, train, validation, cfg, 7)
	re.HideProgress()
	require.NoError(t, re.Run())
	assert.Equal(t, stepsBefore, resumed.Clock().Step())
}
