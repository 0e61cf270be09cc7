// Package network implements neural networks and the parameter store
// they are trained through.
package network

import (
	"github.com/ChillingDream/EfficientResearchWork/device"
	G "gorgonia.org/gorgonia"
)

// NeuralNet implements a neural network to be trained by an agent. The
// network owns its parameter store: learnable tensors live on exactly
// one device, and only ToHost and ToDevice may change that.
type NeuralNet interface {
	Graph() *G.ExprGraph
	Clone() (NeuralNet, error)
	CloneWithBatch(int) (NeuralNet, error)
	BatchSize() int
	Features() int
	Outputs() int

	// SetInput sets the value of the input node before a forward pass.
	// Inputs are constructed in row major order.
	SetInput([]float64) error

	// Set copies the weights of another network of the same
	// architecture into this one
	Set(NeuralNet) error

	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() G.Value
	Prediction() *G.Node

	// Device returns the device the network's parameters reside on
	Device() device.Device

	// ToHost relocates the parameters to host memory, returning the
	// host-side snapshot of every named parameter
	ToHost() (State, error)

	// ToDevice re-asserts device residency after a ToHost
	ToDevice(device.Device) error

	// State snapshots the named parameters without moving them
	State() (State, error)

	// LoadState restores parameter values by name
	LoadState(State) error
}
