package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		selector string
		expected Device
	}{
		{"cpu", Device{Kind: CPU}},
		{"CPU", Device{Kind: CPU}},
		{"cuda", Device{Kind: CUDA}},
		{"cuda:1", Device{Kind: CUDA, Ordinal: 1}},
		{" cuda:3", Device{Kind: CUDA, Ordinal: 3}},
	}

	for _, test := range tests {
		dev, err := Parse(test.selector)
		require.NoError(t, err, "selector %q", test.selector)
		assert.Equal(t, test.expected, dev)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, selector := range []string{"", "tpu", "cuda:-1", "cuda:x"} {
		_, err := Parse(selector)
		assert.Error(t, err, "selector %q", selector)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Host.Validate())

	cuda := Device{Kind: CUDA}
	assert.Error(t, cuda.Validate())

	cpu1 := Device{Kind: CPU, Ordinal: 1}
	assert.Error(t, cpu1.Validate())
}

func TestString(t *testing.T) {
	assert.Equal(t, "cpu", Host.String())
	assert.Equal(t, "cuda:2", Device{Kind: CUDA, Ordinal: 2}.String())
}
