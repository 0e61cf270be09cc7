package network

import (
	"encoding/json"
	"testing"

	"github.com/ChillingDream/EfficientResearchWork/device"
	"github.com/ChillingDream/EfficientResearchWork/initwfn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
)

// testArchitecture returns a small factory configuration
func testArchitecture(t *testing.T) Architecture {
	init, err := initwfn.NewGlorotN(1.0)
	require.NoError(t, err)

	return Architecture{
		Features:    2,
		Outputs:     1,
		HiddenSizes: []int{4},
		Biases:      []bool{true},
		Activations: []*Activation{TanH()},
		Init:        init,
	}
}

func TestFactory(t *testing.T) {
	net, err := Get(testArchitecture(t), 3)
	require.NoError(t, err)

	assert.Equal(t, 3, net.BatchSize())
	assert.Equal(t, 2, net.Features())
	assert.Equal(t, 1, net.Outputs())
	assert.Equal(t, device.Host, net.Device())

	// Hidden layer weights + bias, output layer weights + bias
	assert.Len(t, net.Learnables(), 4)
}

func TestFactoryValidates(t *testing.T) {
	arch := testArchitecture(t)
	arch.Biases = nil
	_, err := Get(arch, 3)
	assert.Error(t, err)

	arch = testArchitecture(t)
	arch.Init = nil
	_, err = Get(arch, 3)
	assert.Error(t, err)
}

func TestStateRoundTrip(t *testing.T) {
	net, err := Get(testArchitecture(t), 2)
	require.NoError(t, err)

	state, err := net.State()
	require.NoError(t, err)
	require.Len(t, state, len(net.Learnables()))

	// A fresh network of the same architecture has different weights
	// until the snapshot is restored
	other, err := Get(testArchitecture(t), 2)
	require.NoError(t, err)
	require.NoError(t, other.LoadState(state))

	otherState, err := other.State()
	require.NoError(t, err)
	assert.Equal(t, state, otherState)
}

func TestLoadStateShapeMismatch(t *testing.T) {
	net, err := Get(testArchitecture(t), 2)
	require.NoError(t, err)

	state, err := net.State()
	require.NoError(t, err)
	state[0].Shape = []int{1, 1}
	state[0].Data = []float64{0}

	assert.Error(t, net.LoadState(state))
}

func TestSet(t *testing.T) {
	source, err := Get(testArchitecture(t), 2)
	require.NoError(t, err)
	dest, err := Get(testArchitecture(t), 2)
	require.NoError(t, err)

	require.NoError(t, dest.Set(source))

	sourceState, err := source.State()
	require.NoError(t, err)
	destState, err := dest.State()
	require.NoError(t, err)
	assert.Equal(t, sourceState, destState)
}

func TestCloneWithBatchKeepsNames(t *testing.T) {
	net, err := Get(testArchitecture(t), 2)
	require.NoError(t, err)

	clone, err := net.CloneWithBatch(5)
	require.NoError(t, err)
	assert.Equal(t, 5, clone.BatchSize())

	netState, err := net.State()
	require.NoError(t, err)
	cloneState, err := clone.State()
	require.NoError(t, err)
	assert.Equal(t, netState, cloneState)
}

func TestResidencyTransfers(t *testing.T) {
	net, err := Get(testArchitecture(t), 2)
	require.NoError(t, err)

	state, err := net.ToHost()
	require.NoError(t, err)
	assert.NotEmpty(t, state)
	assert.Equal(t, device.Host, net.Device())

	require.NoError(t, net.ToDevice(device.Host))
	assert.Error(t, net.ToDevice(device.Device{Kind: device.CUDA}))
}

func TestSetInputSizeChecked(t *testing.T) {
	net, err := Get(testArchitecture(t), 2)
	require.NoError(t, err)

	// batch 2 x features 2
	require.NoError(t, net.SetInput([]float64{1, 2, 3, 4}))
	assert.Error(t, net.SetInput([]float64{1, 2, 3}))
}

func TestForwardPass(t *testing.T) {
	net, err := Get(testArchitecture(t), 2)
	require.NoError(t, err)

	require.NoError(t, net.SetInput([]float64{1, 2, 3, 4}))

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()
	require.NoError(t, vm.RunAll())

	out := net.Output()
	require.NotNil(t, out)
	assert.Equal(t, []int{2, 1}, []int(out.Shape()))
}

func TestActivationJSONRoundTrip(t *testing.T) {
	for _, act := range []*Activation{ReLU(), TanH(), Sigmoid(), Identity()} {
		encoded, err := json.Marshal(act)
		require.NoError(t, err)

		decoded := new(Activation)
		require.NoError(t, json.Unmarshal(encoded, decoded))
		assert.Equal(t, act.String(), decoded.String())
	}

	decoded := new(Activation)
	assert.Error(t, json.Unmarshal([]byte(`"swish"`), decoded))
}
