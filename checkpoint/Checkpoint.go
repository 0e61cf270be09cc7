// Package checkpoint persists training state to disk so that a run
// can be resumed later.
package checkpoint

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ChillingDream/EfficientResearchWork/clock"
	"github.com/ChillingDream/EfficientResearchWork/network"
	"github.com/ChillingDream/EfficientResearchWork/solver"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Extension is the file extension of checkpoint files
const Extension string = ".pth"

// Latest is the conventional tag for the most recent checkpoint of a
// run
const Latest string = "latest"

// Record is a persisted snapshot of training state. It holds the four
// sub-states needed to resume a run exactly where it left off.
type Record struct {
	Clock              clock.State
	ModelStateDict     network.State
	OptimizerStateDict solver.State
	SchedulerStateDict solver.StepLRState
}

// NamedPath returns the path of the checkpoint file with an explicit
// tag, e.g. NamedPath(dir, "latest") -> dir/latest.pth
func NamedPath(dir, name string) string {
	return filepath.Join(dir, name+Extension)
}

// EpochPath returns the path of the checkpoint file for an epoch,
// e.g. EpochPath(dir, 3) -> dir/ckpt_epoch3.pth
func EpochPath(dir string, epoch int) string {
	return NamedPath(dir, fmt.Sprintf("ckpt_epoch%d", epoch))
}

// Save serializes a Record to path, overwriting any existing file so
// that at most one checkpoint exists per (directory, name) pair.
func Save(path string, record Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "save: could not create checkpoint "+
			"directory for %v", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "save: could not create %v", path)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(record); err != nil {
		return errors.Wrapf(err, "save: could not encode checkpoint %v",
			path)
	}

	if info, err := file.Stat(); err == nil {
		klog.V(1).Infof("wrote %v to %v", humanize.Bytes(uint64(info.Size())),
			path)
	}
	return nil
}

// Load deserializes the Record at path. A missing file is an error
// naming the path, never a silent no-op.
func Load(path string) (Record, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, errors.Wrapf(err, "load: checkpoint %v not "+
				"exists", path)
		}
		return Record{}, errors.Wrapf(err, "load: could not open %v", path)
	}
	defer file.Close()

	var record Record
	if err := gob.NewDecoder(file).Decode(&record); err != nil {
		return Record{}, errors.Wrapf(err, "load: could not decode "+
			"checkpoint %v", path)
	}
	return record, nil
}
