package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepLRDecay(t *testing.T) {
	adam, err := NewDefaultAdam(1.0, 8)
	require.NoError(t, err)

	scheduler, err := NewStepLR(adam, 2, 0.1)
	require.NoError(t, err)

	// lr(epoch) = base * gamma^(epoch / stepSize)
	expected := []float64{1.0, 1.0, 0.1, 0.1, 0.01}
	for _, lr := range expected {
		assert.InDelta(t, lr, scheduler.LR(), 1e-12,
			"epoch %v", scheduler.Epoch())
		scheduler.Step()
	}

	// The scheduled solver follows the prescribed rate
	assert.InDelta(t, 0.01, adam.LearnRate(), 1e-12)
}

func TestStepLRKeepsSolverUntilDecay(t *testing.T) {
	adam, err := NewDefaultAdam(0.1, 8)
	require.NoError(t, err)

	scheduler, err := NewStepLR(adam, 2, 0.1)
	require.NoError(t, err)

	// Epoch 0 -> 1 leaves the rate at 0.1, so the wrapped Gorgonia
	// solver (and its moment estimates) must survive the step.
	inner := adam.Solver
	scheduler.Step()
	assert.Same(t, inner, adam.Solver)
	assert.InDelta(t, 0.1, adam.LearnRate(), 1e-12)

	// Epoch 1 -> 2 crosses the decay boundary: rate drops and the
	// solver is rebuilt at the new rate.
	scheduler.Step()
	assert.NotSame(t, inner, adam.Solver)
	assert.InDelta(t, 0.01, adam.LearnRate(), 1e-12)

	// Restoring a state with the same prescribed rate keeps the
	// solver too.
	inner = adam.Solver
	require.NoError(t, scheduler.Restore(scheduler.State()))
	assert.Same(t, inner, adam.Solver)
}

func TestStepLRDefaultGamma(t *testing.T) {
	adam, err := NewDefaultAdam(1.0, 8)
	require.NoError(t, err)

	scheduler, err := NewStepLR(adam, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultGamma, scheduler.State().Gamma)
}

func TestStepLRRejectsBadStepSize(t *testing.T) {
	adam, err := NewDefaultAdam(1.0, 8)
	require.NoError(t, err)

	_, err = NewStepLR(adam, 0, 0.1)
	assert.Error(t, err)
}

func TestStepLRStateRoundTrip(t *testing.T) {
	adam, err := NewDefaultAdam(0.5, 8)
	require.NoError(t, err)
	scheduler, err := NewStepLR(adam, 3, 0.5)
	require.NoError(t, err)

	for i := 0; i < 7; i++ {
		scheduler.Step()
	}
	state := scheduler.State()

	otherSolver, err := NewDefaultAdam(0.5, 8)
	require.NoError(t, err)
	restored, err := NewStepLR(otherSolver, 1, 0.1)
	require.NoError(t, err)
	require.NoError(t, restored.Restore(state))

	assert.Equal(t, state, restored.State())
	assert.InDelta(t, scheduler.LR(), restored.LR(), 1e-12)
	assert.InDelta(t, adam.LearnRate(), otherSolver.LearnRate(), 1e-12)
}
