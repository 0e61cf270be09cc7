package experiment

import (
	"fmt"

	"github.com/ChillingDream/EfficientResearchWork/checkpoint"
	"github.com/ChillingDream/EfficientResearchWork/config"
	"github.com/ChillingDream/EfficientResearchWork/data"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/exp/rand"
	"k8s.io/klog/v2"
)

// Epochal is an Experiment that trains an agent for a configured
// number of epochs. Each epoch shuffles and iterates the training set
// batch by batch, advances the learning rate schedule, then iterates
// the validation set. The agent is checkpointed every CkptEvery
// epochs and tagged latest when the run completes.
type Epochal struct {
	agent        Trainable
	train        data.Dataset
	validation   data.Dataset
	config       *config.Config
	rng          *rand.Rand
	showProgress bool
}

// NewEpochal returns an Experiment running ag over the train and
// validation datasets. The seed fixes the shuffle order.
func NewEpochal(ag Trainable, train, validation data.Dataset,
	config *config.Config, seed uint64) *Epochal {
	return &Epochal{
		agent:        ag,
		train:        train,
		validation:   validation,
		config:       config,
		rng:          rand.New(rand.NewSource(seed)),
		showProgress: true,
	}
}

// HideProgress disables the per-epoch progress bar. Used by tests.
func (e *Epochal) HideProgress() {
	e.showProgress = false
}

// Run runs epochs until the configured epoch count is reached,
// checkpointing along the way and tagging the final state latest.
// Running a resumed agent continues from its restored epoch.
func (e *Epochal) Run() error {
	for e.agent.Clock().Epoch() < e.config.Epochs {
		if err := e.RunEpoch(); err != nil {
			return errors.Wrapf(err, "run: epoch %v failed",
				e.agent.Clock().Epoch())
		}

		epoch := e.agent.Clock().Epoch()
		if e.config.CkptEvery > 0 && epoch%e.config.CkptEvery == 0 {
			if err := e.agent.SaveCkpt(""); err != nil {
				return errors.Wrap(err, "run")
			}
		}
	}

	return errors.Wrap(e.agent.SaveCkpt(checkpoint.Latest), "run")
}

// RunEpoch runs one epoch of training and validation
func (e *Epochal) RunEpoch() error {
	clock := e.agent.Clock()

	e.train.Shuffle(e.rng)

	var bar *progressbar.ProgressBar
	if e.showProgress {
		bar = progressbar.Default(int64(e.train.Batches()),
			fmt.Sprintf("epoch %v", clock.Epoch()))
	}

	for i := 0; i < e.train.Batches(); i++ {
		batch, err := e.train.Batch(i)
		if err != nil {
			return errors.Wrap(err, "runepoch")
		}

		_, lossValues, err := e.agent.TrainFunc(batch)
		if err != nil {
			return errors.Wrapf(err, "runepoch: training step %v failed",
				clock.Step())
		}
		clock.Tick()

		klog.V(1).Infof("step %v: total loss %v", clock.Step(),
			lossValues.Sum())
		if bar != nil {
			if err := bar.Add(1); err != nil {
				return errors.Wrap(err, "runepoch")
			}
		}
	}
	if bar != nil {
		if err := bar.Finish(); err != nil {
			return errors.Wrap(err, "runepoch")
		}
	}

	if err := e.agent.UpdateLearningRate(); err != nil {
		return errors.Wrap(err, "runepoch")
	}

	for i := 0; i < e.validation.Batches(); i++ {
		batch, err := e.validation.Batch(i)
		if err != nil {
			return errors.Wrap(err, "runepoch")
		}

		if _, _, err := e.agent.ValFunc(batch); err != nil {
			return errors.Wrapf(err, "runepoch: validation batch %v failed",
				i)
		}
	}

	clock.Tock()
	return nil
}
