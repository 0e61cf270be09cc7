package initwfn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestInitWFnJSONRoundTrip(t *testing.T) {
	constructors := map[Type]func() (*InitWFn, error){
		GlorotU:  func() (*InitWFn, error) { return NewGlorotU(1.0) },
		GlorotN:  func() (*InitWFn, error) { return NewGlorotN(1.0) },
		HeU:      func() (*InitWFn, error) { return NewHeU(1.0) },
		HeN:      func() (*InitWFn, error) { return NewHeN(1.0) },
		Gaussian: func() (*InitWFn, error) { return NewGaussian(0.0, 1.5) },
		Uniform:  func() (*InitWFn, error) { return NewUniform(-0.5, 0.5) },
		Constant: func() (*InitWFn, error) { return NewConstant(2.5) },
		Zeroes:   NewZeroes,
		Ones:     NewOnes,
	}

	for ty, constructor := range constructors {
		init, err := constructor()
		require.NoError(t, err)
		require.Equal(t, ty, init.Type)

		data, err := json.Marshal(init)
		require.NoError(t, err)

		loaded := &InitWFn{}
		require.NoError(t, loaded.UnmarshalJSON(data))
		assert.Equal(t, init.Type, loaded.Type)
		assert.Equal(t, init.Config, loaded.Config)
		assert.NotNil(t, loaded.InitWFn(), "type %v", ty)
	}
}

func TestInitWFnUnmarshalUnknownType(t *testing.T) {
	loaded := &InitWFn{}
	err := loaded.UnmarshalJSON([]byte(`{"Type":"Sparse","Config":{}}`))
	assert.Error(t, err)
}

func TestConstantInitializers(t *testing.T) {
	constant, err := NewConstant(2.5)
	require.NoError(t, err)
	weights, ok := constant.InitWFn()(tensor.Float64, 2, 3).([]float64)
	require.True(t, ok)
	require.Len(t, weights, 6)
	for _, w := range weights {
		assert.Equal(t, 2.5, w)
	}

	zeroes, err := NewZeroes()
	require.NoError(t, err)
	weights, ok = zeroes.InitWFn()(tensor.Float64, 4).([]float64)
	require.True(t, ok)
	for _, w := range weights {
		assert.Equal(t, 0.0, w)
	}

	ones, err := NewOnes()
	require.NoError(t, err)
	weights, ok = ones.InitWFn()(tensor.Float64, 4).([]float64)
	require.True(t, ok)
	for _, w := range weights {
		assert.Equal(t, 1.0, w)
	}
}

func TestUniformInitializerRange(t *testing.T) {
	uniform, err := NewUniform(-0.25, 0.25)
	require.NoError(t, err)
	weights, ok := uniform.InitWFn()(tensor.Float64, 32).([]float64)
	require.True(t, ok)
	for _, w := range weights {
		assert.GreaterOrEqual(t, w, -0.25)
		assert.Less(t, w, 0.25)
	}
}
