// Package clock implements the training clock that tags every step of the
// agent-dataset interaction
package clock

import "fmt"

// TrainClock counts the progress of a training run. Epoch counts completed
// passes over the training set, while Step counts every training batch ever
// processed, across epochs. The training driver advances the clock; the
// agent only reads it to tag log entries and checkpoint filenames.
type TrainClock struct {
	epoch int
	step  int
}

// New returns a new TrainClock starting at epoch 0, step 0
func New() *TrainClock {
	return &TrainClock{}
}

// Tick advances the step counter. The training driver calls Tick once per
// training batch.
func (c *TrainClock) Tick() {
	c.step++
}

// Tock advances the epoch counter. The training driver calls Tock once per
// completed pass over the training set.
func (c *TrainClock) Tock() {
	c.epoch++
}

// Epoch returns the number of completed training epochs
func (c *TrainClock) Epoch() int {
	return c.epoch
}

// Step returns the number of training batches processed so far
func (c *TrainClock) Step() int {
	return c.step
}

// State is the serializable snapshot of a TrainClock, embedded as the clock
// sub-record of a checkpoint
type State struct {
	Epoch int
	Step  int
}

// State snapshots the clock's counters
func (c *TrainClock) State() State {
	return State{Epoch: c.epoch, Step: c.step}
}

// Restore sets the clock's counters from a snapshot
func (c *TrainClock) Restore(state State) {
	c.epoch = state.Epoch
	c.step = state.Step
}

func (c TrainClock) String() string {
	return fmt.Sprintf("TrainClock | Epoch: %v  |  Step:  %v", c.epoch, c.step)
}
