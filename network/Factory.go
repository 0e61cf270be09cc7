package network

import (
	"fmt"

	"github.com/ChillingDream/EfficientResearchWork/initwfn"
	G "gorgonia.org/gorgonia"
)

// Architecture describes the network the factory constructs. It is the
// network portion of an experiment configuration and JSON round-trips.
type Architecture struct {
	Features    int
	Outputs     int
	HiddenSizes []int
	Biases      []bool
	Activations []*Activation
	Init        *initwfn.InitWFn
}

// Validate returns an error if the Architecture cannot be built
func (a Architecture) Validate() error {
	if a.Features <= 0 {
		return fmt.Errorf("validate: features must be positive, got %v",
			a.Features)
	}
	if a.Outputs <= 0 {
		return fmt.Errorf("validate: outputs must be positive, got %v",
			a.Outputs)
	}
	if len(a.HiddenSizes) != len(a.Biases) {
		return fmt.Errorf("validate: invalid number of biases\n\twant(%v)"+
			"\n\thave(%v)", len(a.HiddenSizes), len(a.Biases))
	}
	if len(a.HiddenSizes) != len(a.Activations) {
		return fmt.Errorf("validate: invalid number of activations"+
			"\n\twant(%v)\n\thave(%v)", len(a.HiddenSizes),
			len(a.Activations))
	}
	if a.Init == nil {
		return fmt.Errorf("validate: no weight initializer")
	}
	return nil
}

// Get constructs the configured network on a fresh computational graph
// at the given batch size. Agents delegate their BuildNet to this
// factory.
func Get(arch Architecture, batch int) (NeuralNet, error) {
	if err := arch.Validate(); err != nil {
		return nil, fmt.Errorf("get: %v", err)
	}

	g := G.NewGraph()
	net, err := NewMultiHeadMLP(arch.Features, batch, arch.Outputs, g,
		arch.HiddenSizes, arch.Biases, arch.Init.InitWFn(),
		arch.Activations)
	if err != nil {
		return nil, fmt.Errorf("get: could not construct network: %v", err)
	}
	return net, nil
}
