package data

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// rangeDataset returns a dataset whose target row i equals input row
// i, so sample pairing can be checked after a shuffle
func rangeDataset(t *testing.T, n, batchSize int) *InMemory {
	inputs := mat.NewDense(n, 1, nil)
	targets := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		inputs.Set(i, 0, float64(i))
		targets.Set(i, 0, float64(i))
	}

	dataset, err := NewInMemory("range", inputs, targets, batchSize)
	require.NoError(t, err)
	return dataset
}

func TestBatches(t *testing.T) {
	// The ragged tail is dropped
	dataset := rangeDataset(t, 10, 4)
	assert.Equal(t, 2, dataset.Batches())

	batch, err := dataset.Batch(1)
	require.NoError(t, err)
	assert.Equal(t, 4, batch.Size())
	assert.Equal(t, []float64{4, 5, 6, 7}, batch.FlatInputs())

	_, err = dataset.Batch(2)
	assert.Error(t, err)
	_, err = dataset.Batch(-1)
	assert.Error(t, err)
}

func TestShuffleKeepsPairs(t *testing.T) {
	dataset := rangeDataset(t, 32, 8)
	dataset.Shuffle(rand.New(rand.NewSource(42)))

	seen := map[float64]bool{}
	for i := 0; i < dataset.Batches(); i++ {
		batch, err := dataset.Batch(i)
		require.NoError(t, err)
		// targets follow their inputs through the permutation
		assert.Equal(t, batch.FlatInputs(), batch.FlatTargets())
		for _, v := range batch.FlatInputs() {
			assert.False(t, seen[v], "sample %v drawn twice", v)
			seen[v] = true
		}
	}
	assert.Len(t, seen, 32)
}

func TestNewInMemoryValidates(t *testing.T) {
	inputs := mat.NewDense(4, 1, nil)
	targets := mat.NewDense(3, 1, nil)
	_, err := NewInMemory("bad", inputs, targets, 2)
	assert.Error(t, err)

	targets = mat.NewDense(4, 1, nil)
	_, err = NewInMemory("bad", inputs, targets, 0)
	assert.Error(t, err)

	_, err = NewInMemory("bad", inputs, targets, 8)
	assert.Error(t, err, "not enough samples for one batch")
}

func TestFlattenRowMajor(t *testing.T) {
	inputs := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	targets := mat.NewDense(2, 1, []float64{7, 8})
	batch, err := NewBatch(inputs, targets)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, batch.FlatInputs())
	assert.Equal(t, []float64{7, 8}, batch.FlatTargets())
}

func TestSine(t *testing.T) {
	inputs, targets := Sine(64, 0, 7)

	rows, cols := inputs.Dims()
	assert.Equal(t, 64, rows)
	assert.Equal(t, 1, cols)

	for i := 0; i < rows; i++ {
		x := inputs.At(i, 0)
		assert.GreaterOrEqual(t, x, 0.0)
		assert.Less(t, x, 1.0)
		// No noise, so targets are exactly on the curve
		assert.InDelta(t, targets.At(i, 0), math.Sin(2*math.Pi*x), 1e-12)
	}

	// Same seed reproduces the same data
	again, _ := Sine(64, 0, 7)
	assert.True(t, mat.Equal(inputs, again))
}
