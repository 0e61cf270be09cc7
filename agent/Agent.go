// Package agent implements training agents: objects that wrap a
// network, a loss criterion, a solver with its learning rate schedule,
// and the log writers and checkpoints of a training run.
package agent

import (
	"github.com/ChillingDream/EfficientResearchWork/config"
	"github.com/ChillingDream/EfficientResearchWork/data"
	"github.com/ChillingDream/EfficientResearchWork/network"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
)

// ErrNotImplemented is returned by template methods an adopter has
// not filled in yet
var ErrNotImplemented = errors.New("not implemented")

// Agent determines the implementation details of a trainer. Every
// trainer embeds *Base for the common training behaviour and must
// provide these three methods.
type Agent interface {
	// BuildNet constructs the network the agent trains
	BuildNet(config *config.Config) (network.NeuralNet, error)

	// Forward computes the network outputs and the named loss terms
	// for one batch of data
	Forward(batch data.Batch) (G.Value, Losses, error)

	// VisualizeBatch writes a visualization of the network's
	// behaviour on one batch
	VisualizeBatch(batch data.Batch) error
}

// Losses maps loss-term names to their scalar values for one batch
type Losses map[string]float64

// Sum returns the total loss
func (l Losses) Sum() float64 {
	var total float64
	for _, v := range l {
		total += v
	}
	return total
}

// Mode selects which log writer records a batch's losses
type Mode string

// Available modes
const (
	TrainMode      Mode = "train"
	ValidationMode Mode = "validation"
)
