// Package experiment implements training drivers: the outer loops
// that feed batches to an agent, advance its clock, and checkpoint it
// periodically.
package experiment

import (
	"github.com/ChillingDream/EfficientResearchWork/agent"
	"github.com/ChillingDream/EfficientResearchWork/clock"
	"github.com/ChillingDream/EfficientResearchWork/data"
	G "gorgonia.org/gorgonia"
)

// Experiment runs an agent over datasets
type Experiment interface {
	// Run runs the experiment to completion
	Run() error

	// RunEpoch runs a single epoch: one pass of training over the
	// training set followed by one pass of validation
	RunEpoch() error
}

// Trainable is the agent surface a training driver needs. *agent.Base
// and any trainer embedding it satisfy Trainable.
type Trainable interface {
	TrainFunc(data.Batch) (G.Value, agent.Losses, error)
	ValFunc(data.Batch) (G.Value, agent.Losses, error)
	UpdateLearningRate() error
	SaveCkpt(name string) error
	Clock() *clock.TrainClock
}
