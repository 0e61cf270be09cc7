package data

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Dataset provides batches of training data to a training driver
type Dataset interface {
	// Batches returns the number of full batches in the dataset
	Batches() int

	// Batch returns batch i under the current sample order
	Batch(i int) (Batch, error)

	// Shuffle permutes the sample order
	Shuffle(rng *rand.Rand)

	Name() string
}

// InMemory is a Dataset over two in-memory matrices at a fixed batch
// size. Samples that do not fill a final batch are dropped.
type InMemory struct {
	name      string
	inputs    *mat.Dense
	targets   *mat.Dense
	batchSize int
	perm      []int
}

// NewInMemory returns a Dataset over the rows of inputs and targets
func NewInMemory(name string, inputs, targets *mat.Dense,
	batchSize int) (*InMemory, error) {
	ir, _ := inputs.Dims()
	tr, _ := targets.Dims()
	if ir != tr {
		return nil, fmt.Errorf("newinmemory: invalid number of target "+
			"rows\n\twant(%v)\n\thave(%v)", ir, tr)
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("newinmemory: batch size must be positive, "+
			"got %v", batchSize)
	}
	if ir < batchSize {
		return nil, fmt.Errorf("newinmemory: not enough samples for one "+
			"batch\n\twant(%v)\n\thave(%v)", batchSize, ir)
	}

	perm := make([]int, ir)
	for i := range perm {
		perm[i] = i
	}

	return &InMemory{
		name:      name,
		inputs:    inputs,
		targets:   targets,
		batchSize: batchSize,
		perm:      perm,
	}, nil
}

// Batches returns the number of full batches in the dataset
func (d *InMemory) Batches() int {
	return len(d.perm) / d.batchSize
}

// Batch materializes batch i under the current sample order
func (d *InMemory) Batch(i int) (Batch, error) {
	if i < 0 || i >= d.Batches() {
		return Batch{}, fmt.Errorf("batch: index out of range [%v] with "+
			"length %v", i, d.Batches())
	}

	_, inCols := d.inputs.Dims()
	_, targetCols := d.targets.Dims()
	inputs := mat.NewDense(d.batchSize, inCols, nil)
	targets := mat.NewDense(d.batchSize, targetCols, nil)

	for row := 0; row < d.batchSize; row++ {
		src := d.perm[i*d.batchSize+row]
		inputs.SetRow(row, d.inputs.RawRowView(src))
		targets.SetRow(row, d.targets.RawRowView(src))
	}

	return NewBatch(inputs, targets)
}

// Shuffle permutes the sample order with a Fisher-Yates shuffle
func (d *InMemory) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.perm), func(i, j int) {
		d.perm[i], d.perm[j] = d.perm[j], d.perm[i]
	})
}

// Name returns the dataset's name
func (d *InMemory) Name() string {
	return d.name
}
