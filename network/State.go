package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Param is the host-side snapshot of a single named parameter tensor
type Param struct {
	Name  string
	Shape []int
	Data  []float64
}

// State is the host-side snapshot of every learnable parameter in a
// network. It is the model sub-record of a checkpoint.
type State []Param

// snapshot copies the named learnable nodes into a State
func snapshot(learnables G.Nodes) (State, error) {
	state := make(State, 0, len(learnables))
	for _, node := range learnables {
		t, ok := node.Value().(*tensor.Dense)
		if !ok {
			return nil, fmt.Errorf("snapshot: parameter %v holds no dense "+
				"tensor", node.Name())
		}

		backing, ok := t.Data().([]float64)
		if !ok {
			return nil, fmt.Errorf("snapshot: parameter %v is not float64",
				node.Name())
		}
		data := make([]float64, len(backing))
		copy(data, backing)

		shape := make([]int, len(t.Shape()))
		copy(shape, t.Shape())

		state = append(state, Param{
			Name:  node.Name(),
			Shape: shape,
			Data:  data,
		})
	}
	return state, nil
}

// restore sets the values of the named learnable nodes from a State.
// Parameters are matched by name and must agree in shape.
func restore(learnables G.Nodes, state State) error {
	byName := make(map[string]*G.Node, len(learnables))
	for _, node := range learnables {
		byName[node.Name()] = node
	}

	if len(state) != len(learnables) {
		return fmt.Errorf("restore: invalid number of parameters "+
			"\n\twant(%v)\n\thave(%v)", len(learnables), len(state))
	}

	for _, param := range state {
		node, ok := byName[param.Name]
		if !ok {
			return fmt.Errorf("restore: no parameter named %v", param.Name)
		}
		if !node.Shape().Eq(tensor.Shape(param.Shape)) {
			return fmt.Errorf("restore: invalid shape for parameter %v"+
				"\n\twant(%v)\n\thave(%v)", param.Name, node.Shape(),
				tensor.Shape(param.Shape))
		}

		data := make([]float64, len(param.Data))
		copy(data, param.Data)
		t := tensor.New(
			tensor.WithShape(param.Shape...),
			tensor.WithBacking(data),
		)
		if err := G.Let(node, t); err != nil {
			return fmt.Errorf("restore: could not set parameter %v: %v",
				param.Name, err)
		}
	}
	return nil
}
