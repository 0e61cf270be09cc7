package main

import (
	"flag"
	"fmt"
	"path/filepath"

	"github.com/ChillingDream/EfficientResearchWork/checkpoint"
	"github.com/ChillingDream/EfficientResearchWork/config"
	"github.com/ChillingDream/EfficientResearchWork/data"
	"github.com/ChillingDream/EfficientResearchWork/examples"
	"github.com/ChillingDream/EfficientResearchWork/experiment"
	"github.com/ChillingDream/EfficientResearchWork/tracker"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

func main() {
	configPath := flag.String("config", "", "JSON configuration file; "+
		"defaults are used when empty")
	klog.InitFlags(nil)
	flag.Parse()

	// Fatal exits skip deferred Closes, so the work happens in run
	if err := run(*configPath); err != nil {
		klog.Fatal(err)
	}
}

func run(configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}

	var seed uint64 = 192382

	// Synthetic sine regression data
	trainIn, trainTargets := data.Sine(1024, 0.05, seed)
	train, err := data.NewInMemory("sine-train", trainIn, trainTargets,
		cfg.BatchSize)
	if err != nil {
		return err
	}

	valIn, valTargets := data.Sine(256, 0.05, seed+1)
	validation, err := data.NewInMemory("sine-val", valIn, valTargets,
		cfg.BatchSize)
	if err != nil {
		return err
	}

	// Create the agent and run the experiment
	ag, err := examples.NewRegression(cfg)
	if err != nil {
		return err
	}
	defer ag.Close()

	e := experiment.NewEpochal(ag, train, validation, cfg, seed)
	if err := e.Run(); err != nil {
		return err
	}

	// Render the fit on the first validation batch
	batch, err := validation.Batch(0)
	if err != nil {
		return err
	}
	if err := ag.VisualizeBatch(batch); err != nil {
		return err
	}

	// Resume from the latest checkpoint into a fresh agent, as a
	// restarted run would
	resumed, err := examples.NewRegression(cfg)
	if err != nil {
		return err
	}
	defer resumed.Close()
	if err := resumed.LoadCkpt(checkpoint.Latest); err != nil {
		return errors.Wrap(err, "could not resume")
	}
	klog.Infof("resumed %v", resumed.Clock())

	// Print the tail of the validation losses
	scalars, err := tracker.LoadScalars(
		filepath.Join(cfg.LogDir, "val.events"))
	if err != nil {
		return err
	}
	tail := scalars
	if len(tail) > 10 {
		tail = tail[len(tail)-10:]
	}
	for _, s := range tail {
		fmt.Printf("%v step %v: %v\n", s.Tag, s.Step, s.Value)
	}
	return nil
}
