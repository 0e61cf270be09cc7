package agent

import (
	"github.com/ChillingDream/EfficientResearchWork/config"
	"github.com/ChillingDream/EfficientResearchWork/data"
	"github.com/ChillingDream/EfficientResearchWork/network"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
)

// MyAgent is the template's starting point for a new project. BuildNet
// already delegates to the network factory; customize Forward and
// VisualizeBatch for the model at hand. See examples for a worked
// variant.
type MyAgent struct {
	*Base
}

// Get returns the agent for a configuration
func Get(config *config.Config) (*MyAgent, error) {
	my := &MyAgent{}
	base, err := New(my, config)
	if err != nil {
		return nil, errors.Wrap(err, "get")
	}
	my.Base = base
	return my, nil
}

// BuildNet constructs the configured network through the network
// factory
func (m *MyAgent) BuildNet(config *config.Config) (network.NeuralNet, error) {
	return network.Get(config.Net, config.BatchSize)
}

// Forward computes the network outputs and losses for one batch.
//
// Customize this for your project: bind the batch, run the network
// and return its outputs with the named loss terms, e.g.
//
//	return m.Run(batch)
func (m *MyAgent) Forward(batch data.Batch) (G.Value, Losses, error) {
	return nil, nil, errors.Wrap(ErrNotImplemented, "forward")
}

// VisualizeBatch writes a visualization of the network's behaviour on
// one batch. Customize this for your project.
func (m *MyAgent) VisualizeBatch(batch data.Batch) error {
	return errors.Wrap(ErrNotImplemented, "visualizebatch")
}
