package solver

import (
	"fmt"
	"math"
)

// DefaultGamma is the multiplicative decay a StepLR applies when no
// explicit gamma is configured
const DefaultGamma float64 = 0.1

// StepLR implements a step-decay learning rate scheduler over a
// Solver. Every stepSize epochs the learning rate is decayed by a
// factor of gamma:
//
//	lr(epoch) = base * gamma^⌊epoch / stepSize⌋
type StepLR struct {
	solver   *Solver
	base     float64
	stepSize int
	gamma    float64
	epoch    int
}

// NewStepLR returns a scheduler that decays the learning rate of
// solver by gamma every stepSize epochs. The solver's configured
// learning rate is taken as the base rate. A gamma <= 0 selects
// DefaultGamma.
func NewStepLR(solver *Solver, stepSize int, gamma float64) (*StepLR, error) {
	if solver == nil {
		return nil, fmt.Errorf("newsteplr: no solver to schedule")
	}
	if stepSize <= 0 {
		return nil, fmt.Errorf("newsteplr: step size must be positive, "+
			"got %v", stepSize)
	}
	if gamma <= 0 {
		gamma = DefaultGamma
	}

	return &StepLR{
		solver:   solver,
		base:     solver.LearnRate(),
		stepSize: stepSize,
		gamma:    gamma,
	}, nil
}

// LR returns the learning rate the scheduler prescribes for the
// current epoch
func (l *StepLR) LR() float64 {
	return l.base * math.Pow(l.gamma, float64(l.epoch/l.stepSize))
}

// Epoch returns the scheduler's current epoch
func (l *StepLR) Epoch() int {
	return l.epoch
}

// Step advances the scheduler by one epoch and applies the prescribed
// learning rate to the scheduled solver. The solver is only touched
// when the prescribed rate changes, since setting the rate rebuilds
// the underlying Gorgonia solver and clears its moment estimates.
func (l *StepLR) Step() {
	l.epoch++
	if lr := l.LR(); lr != l.solver.LearnRate() {
		l.solver.SetLearnRate(lr)
	}
}

// StepLRState is the serializable snapshot of a StepLR, embedded as
// the scheduler sub-record of a checkpoint
type StepLRState struct {
	Base     float64
	StepSize int
	Gamma    float64
	Epoch    int
}

// State snapshots the scheduler
func (l *StepLR) State() StepLRState {
	return StepLRState{
		Base:     l.base,
		StepSize: l.stepSize,
		Gamma:    l.gamma,
		Epoch:    l.epoch,
	}
}

// Restore sets the scheduler from a snapshot and re-applies the
// prescribed learning rate to the scheduled solver
func (l *StepLR) Restore(state StepLRState) error {
	if state.StepSize <= 0 {
		return fmt.Errorf("restore: step size must be positive, got %v",
			state.StepSize)
	}
	if state.Gamma <= 0 {
		return fmt.Errorf("restore: gamma must be positive, got %v",
			state.Gamma)
	}

	l.base = state.Base
	l.stepSize = state.StepSize
	l.gamma = state.Gamma
	l.epoch = state.Epoch
	if lr := l.LR(); lr != l.solver.LearnRate() {
		l.solver.SetLearnRate(lr)
	}
	return nil
}
