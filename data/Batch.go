// Package data implements batches and datasets for supervised
// training.
package data

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Batch is one batch of training data: a matrix of input rows and the
// matrix of target rows they should map to.
type Batch struct {
	Inputs  *mat.Dense
	Targets *mat.Dense
}

// NewBatch returns a batch over the given matrices. Inputs and targets
// must have the same number of rows.
func NewBatch(inputs, targets *mat.Dense) (Batch, error) {
	ir, _ := inputs.Dims()
	tr, _ := targets.Dims()
	if ir != tr {
		return Batch{}, fmt.Errorf("newbatch: invalid number of target "+
			"rows\n\twant(%v)\n\thave(%v)", ir, tr)
	}
	return Batch{Inputs: inputs, Targets: targets}, nil
}

// Size returns the number of samples in the batch
func (b Batch) Size() int {
	rows, _ := b.Inputs.Dims()
	return rows
}

// FlatInputs returns the input rows flattened in row major order, the
// layout network input tensors are constructed in
func (b Batch) FlatInputs() []float64 {
	return flatten(b.Inputs)
}

// FlatTargets returns the target rows flattened in row major order
func (b Batch) FlatTargets() []float64 {
	return flatten(b.Targets)
}

// flatten copies a matrix into a row major slice
func flatten(m *mat.Dense) []float64 {
	rows, cols := m.Dims()
	out := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}
