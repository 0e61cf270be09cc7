package losses

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// run builds a criterion over fixed prediction/target values and
// returns the resulting loss values by term name
func run(t *testing.T, builder Builder, predictions,
	targets []float64) map[string]float64 {
	g := G.NewGraph()
	prediction := G.NewMatrix(g, tensor.Float64,
		G.WithShape(len(predictions), 1), G.WithName("prediction"))
	target := G.NewMatrix(g, tensor.Float64,
		G.WithShape(len(targets), 1), G.WithName("target"))

	terms, err := builder(prediction, target)
	require.NoError(t, err)
	require.NotEmpty(t, terms)

	values := make(map[string]*G.Value, len(terms))
	for name, node := range terms {
		val := new(G.Value)
		G.Read(node, val)
		values[name] = val
	}

	require.NoError(t, G.Let(prediction, tensor.New(
		tensor.WithShape(len(predictions), 1),
		tensor.WithBacking(predictions))))
	require.NoError(t, G.Let(target, tensor.New(
		tensor.WithShape(len(targets), 1),
		tensor.WithBacking(targets))))

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	require.NoError(t, vm.RunAll())

	out := make(map[string]float64, len(values))
	for name, val := range values {
		scalar, ok := (*val).Data().(float64)
		require.True(t, ok, "term %v is not a scalar", name)
		out[name] = scalar
	}
	return out
}

func TestMSE(t *testing.T) {
	values := run(t, MSE, []float64{1, 3}, []float64{0, 1})
	require.Contains(t, values, "mse")
	// ((1-0)^2 + (3-1)^2) / 2
	assert.InDelta(t, 2.5, values["mse"], 1e-12)
}

func TestMAE(t *testing.T) {
	values := run(t, MAE, []float64{1, 3}, []float64{0, 1})
	require.Contains(t, values, "mae")
	// (|1| + |2|) / 2
	assert.InDelta(t, 1.5, values["mae"], 1e-12)
}

func TestHuber(t *testing.T) {
	values := run(t, Huber(1.0), []float64{0.5, 2}, []float64{0, 0})
	require.Contains(t, values, "huber")
	// Quadratic below delta, linear above:
	// (0.5*0.25 + 1*(2-0.5)) / 2
	assert.InDelta(t, 0.8125, values["huber"], 1e-12)
}

func TestHuberRejectsBadDelta(t *testing.T) {
	g := G.NewGraph()
	prediction := G.NewMatrix(g, tensor.Float64, G.WithShape(1, 1),
		G.WithName("prediction"))
	target := G.NewMatrix(g, tensor.Float64, G.WithShape(1, 1),
		G.WithName("target"))

	_, err := Huber(0)(prediction, target)
	assert.Error(t, err)
}
