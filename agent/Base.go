package agent

import (
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ChillingDream/EfficientResearchWork/checkpoint"
	"github.com/ChillingDream/EfficientResearchWork/clock"
	"github.com/ChillingDream/EfficientResearchWork/config"
	"github.com/ChillingDream/EfficientResearchWork/data"
	"github.com/ChillingDream/EfficientResearchWork/device"
	"github.com/ChillingDream/EfficientResearchWork/losses"
	"github.com/ChillingDream/EfficientResearchWork/network"
	"github.com/ChillingDream/EfficientResearchWork/solver"
	"github.com/ChillingDream/EfficientResearchWork/tracker"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
	"k8s.io/klog/v2"
)

// Base provides the common training behaviour every trainer embeds:
// loss graph construction, parameter updates, learning rate
// scheduling, loss recording, and checkpoint save/load. The embedding
// implementation supplies BuildNet, Forward and VisualizeBatch.
//
// Base keeps two compiled views of the model. The training network's
// graph carries the loss terms, their summed cost and its gradients,
// bound into a tape machine. The evaluation network is a clone on its
// own graph with no gradient nodes; weights are synced train to eval
// every time the agent enters evaluation mode, so validation never
// touches gradients.
type Base struct {
	impl   Agent
	config *config.Config
	clock  *clock.TrainClock
	dev    device.Device

	net     network.NeuralNet
	evalNet network.NeuralNet

	criterion losses.Builder
	finalized bool
	eval      bool

	target   *G.Node
	terms    losses.Terms
	termVals map[string]*G.Value
	cost     *G.Node
	costVal  G.Value
	trainVM  G.VM

	evalTarget   *G.Node
	evalTerms    losses.Terms
	evalTermVals map[string]*G.Value
	evalVM       G.VM

	solver    *solver.Solver
	scheduler *solver.StepLR

	trainWriter *tracker.ScalarWriter
	valWriter   *tracker.ScalarWriter
}

// New returns a Base wired to the given implementation. The network
// is built through impl.BuildNet and placed on the configured device.
// The criterion defaults to mean squared error; SetLossFunction may
// replace it any time before the first forward pass.
func New(impl Agent, config *config.Config) (*Base, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "new")
	}

	dev, err := device.Parse(config.Device)
	if err != nil {
		return nil, errors.Wrap(err, "new")
	}
	if err := dev.Validate(); err != nil {
		return nil, errors.Wrap(err, "new")
	}
	klog.V(1).Infof("host: %v", device.Summary())

	net, err := impl.BuildNet(config)
	if err != nil {
		return nil, errors.Wrap(err, "new: could not build network")
	}
	if err := net.ToDevice(dev); err != nil {
		return nil, errors.Wrap(err, "new")
	}

	adam, err := solver.NewDefaultAdam(config.LR, config.BatchSize)
	if err != nil {
		return nil, errors.Wrap(err, "new: could not create solver")
	}

	scheduler, err := solver.NewStepLR(adam, config.LRStepSize,
		config.LRDecay)
	if err != nil {
		return nil, errors.Wrap(err, "new: could not create scheduler")
	}

	trainWriter, err := tracker.NewScalarWriter(
		filepath.Join(config.LogDir, "train.events"))
	if err != nil {
		return nil, errors.Wrap(err, "new")
	}
	valWriter, err := tracker.NewScalarWriter(
		filepath.Join(config.LogDir, "val.events"))
	if err != nil {
		return nil, errors.Wrap(err, "new")
	}

	return &Base{
		impl:        impl,
		config:      config,
		clock:       clock.New(),
		dev:         dev,
		net:         net,
		criterion:   losses.MSE,
		solver:      adam,
		scheduler:   scheduler,
		trainWriter: trainWriter,
		valWriter:   valWriter,
	}, nil
}

// SetLossFunction replaces the default mean squared error criterion.
// The criterion cannot change once the loss graph has been finalized
// by a forward pass.
func (b *Base) SetLossFunction(criterion losses.Builder) error {
	if b.finalized {
		return errors.New("setlossfunction: loss graph already finalized")
	}
	if criterion == nil {
		return errors.New("setlossfunction: no criterion")
	}
	b.criterion = criterion
	return nil
}

// finalize builds the loss terms, cost gradients and virtual machines
// on the first forward pass
func (b *Base) finalize() error {
	if b.finalized {
		return nil
	}

	g := b.net.Graph()
	b.target = G.NewMatrix(g, tensor.Float64,
		G.WithShape(b.net.BatchSize(), b.net.Outputs()),
		G.WithName("target"), G.WithInit(G.Zeroes()))

	terms, err := b.criterion(b.net.Prediction(), b.target)
	if err != nil {
		return errors.Wrap(err, "finalize: could not build loss terms")
	}
	if len(terms) == 0 {
		return errors.New("finalize: criterion built no loss terms")
	}
	b.terms = terms
	b.termVals = readTerms(terms)

	// The total cost is the sum of all loss terms
	b.cost, err = sumTerms(terms)
	if err != nil {
		return errors.Wrap(err, "finalize: could not sum loss terms")
	}
	G.Read(b.cost, &b.costVal)

	if _, err := G.Grad(b.cost, b.net.Learnables()...); err != nil {
		return errors.Wrap(err, "finalize: could not compute gradient")
	}
	b.trainVM = G.NewTapeMachine(g,
		G.BindDualValues(b.net.Learnables()...))

	// Evaluation clone: same architecture and parameter names, no
	// gradient nodes
	evalNet, err := b.net.CloneWithBatch(b.net.BatchSize())
	if err != nil {
		return errors.Wrap(err, "finalize: could not clone network")
	}
	eg := evalNet.Graph()
	b.evalTarget = G.NewMatrix(eg, tensor.Float64,
		G.WithShape(evalNet.BatchSize(), evalNet.Outputs()),
		G.WithName("target"), G.WithInit(G.Zeroes()))

	evalTerms, err := b.criterion(evalNet.Prediction(), b.evalTarget)
	if err != nil {
		return errors.Wrap(err, "finalize: could not build eval loss terms")
	}
	b.evalTerms = evalTerms
	b.evalTermVals = readTerms(evalTerms)
	b.evalVM = G.NewTapeMachine(eg)
	b.evalNet = evalNet

	b.finalized = true
	return nil
}

// readTerms installs a Read on every loss term so its value survives
// the run
func readTerms(terms losses.Terms) map[string]*G.Value {
	vals := make(map[string]*G.Value, len(terms))
	for name, node := range terms {
		val := new(G.Value)
		G.Read(node, val)
		vals[name] = val
	}
	return vals
}

// sumTerms adds the loss-term nodes in deterministic (sorted) order
func sumTerms(terms losses.Terms) (*G.Node, error) {
	names := make([]string, 0, len(terms))
	for name := range terms {
		names = append(names, name)
	}
	sort.Strings(names)

	var cost *G.Node
	for _, name := range names {
		if cost == nil {
			cost = terms[name]
			continue
		}
		var err error
		if cost, err = G.Add(cost, terms[name]); err != nil {
			return nil, err
		}
	}
	return cost, nil
}

// Run binds one batch to the current mode's graph and executes it,
// returning the network output and the named loss values.
// Implementations call Run from their Forward. In training mode the
// gradients computed by the run stay bound until UpdateNetwork applies
// and clears them.
func (b *Base) Run(batch data.Batch) (G.Value, Losses, error) {
	if err := b.finalize(); err != nil {
		return nil, nil, errors.Wrap(err, "run")
	}

	net, vm, target, termVals := b.net, b.trainVM, b.target, b.termVals
	if b.eval {
		net, vm, target, termVals =
			b.evalNet, b.evalVM, b.evalTarget, b.evalTermVals
	}

	if batch.Size() != net.BatchSize() {
		return nil, nil, errors.Errorf("run: invalid batch size"+
			"\n\twant(%v)\n\thave(%v)", net.BatchSize(), batch.Size())
	}

	if err := net.SetInput(batch.FlatInputs()); err != nil {
		return nil, nil, errors.Wrap(err, "run: could not set input")
	}

	targets := tensor.New(
		tensor.WithShape(net.BatchSize(), net.Outputs()),
		tensor.WithBacking(batch.FlatTargets()),
	)
	if err := G.Let(target, targets); err != nil {
		return nil, nil, errors.Wrap(err, "run: could not set target")
	}

	if err := vm.RunAll(); err != nil {
		return nil, nil, errors.Wrap(err, "run: could not run forward pass")
	}

	lossValues := make(Losses, len(termVals))
	for name, val := range termVals {
		scalar, ok := (*val).Data().(float64)
		if !ok {
			return nil, nil, errors.Errorf("run: loss term %v is not a "+
				"scalar", name)
		}
		lossValues[name] = scalar
	}

	out := net.Output()
	if b.eval {
		vm.Reset()
	}
	return out, lossValues, nil
}

// UpdateNetwork applies one solver step over the gradients of the
// summed loss terms computed by the last training run, then clears
// them for the next pass.
func (b *Base) UpdateNetwork(lossValues Losses) error {
	if !b.finalized {
		return errors.New("updatenetwork: no forward pass has been run")
	}
	if b.eval {
		return errors.New("updatenetwork: agent is in evaluation mode")
	}

	for name, val := range lossValues {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return errors.Errorf("updatenetwork: loss term %v is %v", name,
				val)
		}
	}

	if err := b.solver.Step(b.net.Model()); err != nil {
		return errors.Wrap(err, "updatenetwork: could not apply solver step")
	}
	b.trainVM.Reset()
	return nil
}

// UpdateLearningRate records the current learning rate keyed by epoch
// and advances the scheduler by one epoch
func (b *Base) UpdateLearningRate() error {
	lr := b.solver.LearnRate()
	klog.Infof("epoch %v: learning rate %v", b.clock.Epoch(), lr)
	if err := b.trainWriter.AddScalar("learning_rate", lr,
		b.clock.Epoch()); err != nil {
		return errors.Wrap(err, "updatelearningrate")
	}
	if err := b.trainWriter.Flush(); err != nil {
		return errors.Wrap(err, "updatelearningrate")
	}
	b.scheduler.Step()
	return nil
}

// RecordLosses writes one scalar entry per loss term to the writer
// selected by mode, keyed by the current step counter
func (b *Base) RecordLosses(lossValues Losses, mode Mode) error {
	writer := b.trainWriter
	if mode == ValidationMode {
		writer = b.valWriter
	}

	for name, val := range lossValues {
		if err := writer.AddScalar(name, val, b.clock.Step()); err != nil {
			return errors.Wrapf(err, "recordlosses: could not record %v",
				name)
		}
	}
	if err := writer.Flush(); err != nil {
		return errors.Wrap(err, "recordlosses")
	}
	return nil
}

// TrainFunc performs one step of training on a batch: forward pass,
// parameter update, loss recording. The agent is left in training
// mode.
func (b *Base) TrainFunc(batch data.Batch) (G.Value, Losses, error) {
	b.Train()

	outputs, lossValues, err := b.impl.Forward(batch)
	if err != nil {
		return nil, nil, errors.Wrap(err, "trainfunc")
	}

	if err := b.UpdateNetwork(lossValues); err != nil {
		return nil, nil, errors.Wrap(err, "trainfunc")
	}
	if err := b.RecordLosses(lossValues, TrainMode); err != nil {
		return nil, nil, errors.Wrap(err, "trainfunc")
	}

	return outputs, lossValues, nil
}

// ValFunc performs one step of validation on a batch: forward pass on
// the gradient-free evaluation network and loss recording. No
// parameter update happens. The agent is left in evaluation mode.
func (b *Base) ValFunc(batch data.Batch) (G.Value, Losses, error) {
	if err := b.Eval(); err != nil {
		return nil, nil, errors.Wrap(err, "valfunc")
	}

	outputs, lossValues, err := b.impl.Forward(batch)
	if err != nil {
		return nil, nil, errors.Wrap(err, "valfunc")
	}

	if err := b.RecordLosses(lossValues, ValidationMode); err != nil {
		return nil, nil, errors.Wrap(err, "valfunc")
	}

	return outputs, lossValues, nil
}

// Train sets the agent to training mode
func (b *Base) Train() {
	b.eval = false
}

// Eval sets the agent to evaluation mode, syncing the training
// weights onto the evaluation network
func (b *Base) Eval() error {
	if err := b.finalize(); err != nil {
		return errors.Wrap(err, "eval")
	}
	b.eval = true
	if err := b.evalNet.Set(b.net); err != nil {
		return errors.Wrap(err, "eval: could not sync weights")
	}
	return nil
}

// IsEval indicates if the agent is in evaluation mode
func (b *Base) IsEval() bool {
	return b.eval
}

// SaveCkpt relocates the parameters to host memory, persists the
// checkpoint record, and re-asserts device residency. An empty name
// derives the filename from the current epoch. Saving under a name
// that already exists overwrites it. Residency is restored even when
// the write fails.
func (b *Base) SaveCkpt(name string) (err error) {
	model, err := b.net.ToHost()
	if err != nil {
		return errors.Wrap(err, "saveckpt: could not move parameters to host")
	}
	defer func() {
		if derr := b.net.ToDevice(b.dev); derr != nil && err == nil {
			err = errors.Wrap(derr, "saveckpt")
		}
	}()

	optimizerState, err := b.solver.State()
	if err != nil {
		return errors.Wrap(err, "saveckpt")
	}

	record := checkpoint.Record{
		Clock:              b.clock.State(),
		ModelStateDict:     model,
		OptimizerStateDict: optimizerState,
		SchedulerStateDict: b.scheduler.State(),
	}

	path := checkpoint.EpochPath(b.config.ModelDir, b.clock.Epoch())
	if name != "" {
		path = checkpoint.NamedPath(b.config.ModelDir, name)
	}

	if err := checkpoint.Save(path, record); err != nil {
		return errors.Wrap(err, "saveckpt")
	}
	klog.Infof("Checkpoint saved at %v", path)
	return nil
}

// LoadCkpt restores the model, optimizer, scheduler and clock from a
// saved checkpoint. The name "latest" loads the latest tag; any other
// name is taken as an epoch tag, so LoadCkpt("3") loads
// ckpt_epoch3.pth. A missing checkpoint is an error naming the path.
// Device residency is left untouched: the parameters never leave the
// device on load.
func (b *Base) LoadCkpt(name string) error {
	tag := name
	if name != checkpoint.Latest {
		tag = "ckpt_epoch" + strings.TrimSpace(name)
	}
	path := checkpoint.NamedPath(b.config.ModelDir, tag)

	record, err := checkpoint.Load(path)
	if err != nil {
		return errors.Wrap(err, "loadckpt")
	}

	if err := b.net.LoadState(record.ModelStateDict); err != nil {
		return errors.Wrap(err, "loadckpt: could not restore model")
	}
	if err := b.solver.Restore(record.OptimizerStateDict); err != nil {
		return errors.Wrap(err, "loadckpt: could not restore optimizer")
	}
	if err := b.scheduler.Restore(record.SchedulerStateDict); err != nil {
		return errors.Wrap(err, "loadckpt: could not restore scheduler")
	}
	b.clock.Restore(record.Clock)

	klog.Infof("Checkpoint loaded from %v", path)
	return nil
}

// Clock returns the agent's training clock. The training driver
// advances it.
func (b *Base) Clock() *clock.TrainClock {
	return b.clock
}

// Config returns the agent's configuration
func (b *Base) Config() *config.Config {
	return b.config
}

// Net returns the network the agent trains
func (b *Base) Net() network.NeuralNet {
	return b.net
}

// Device returns the device the agent's parameters reside on
func (b *Base) Device() device.Device {
	return b.dev
}

// Close releases the agent's virtual machines and log writers. Every
// resource is closed even when an earlier one fails; the first error
// is returned.
func (b *Base) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if b.trainVM != nil {
		keep(b.trainVM.Close())
	}
	if b.evalVM != nil {
		keep(b.evalVM.Close())
	}
	keep(b.trainWriter.Close())
	keep(b.valWriter.Close())

	return errors.Wrap(firstErr, "close")
}
