// Package mlp implements a three-layer perceptron (input, hidden, output)
// trained one example at a time with dropout on the hidden layer.
//
// Architecture:
//   - Input: Inputs features plus a constant bias unit
//   - Hidden: Hidden units plus a bias slot, tanh or sigmoid
//   - Output: Outputs units, tanh, sigmoid, softmax or identity
//
// During training every hidden unit except the bias slot is dropped with
// probability 0.5, independently for every example. At inference nothing is
// dropped and both layer products are scaled by 0.5 instead, the expected
// value of the training-time mask.
//
// Example:
//
//	net, err := mlp.New(mlp.Config{
//	    Inputs: 2, Hidden: 2, Outputs: 1,
//	    HiddenActivation: "tanh", OutputActivation: "sigmoid",
//	    Seed: 1,
//	})
//	if err != nil {
//	    return err
//	}
//	err = net.Fit(x, targets, mlp.FitOptions{LearningRate: 0.1, Epochs: 10000})
//	y, err := net.Predict([]float64{0, 1})
package mlp

import (
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"slices"

	"github.com/born-ml/dropnet/internal/activation"
	"github.com/born-ml/dropnet/internal/metrics"
	"github.com/born-ml/dropnet/internal/parallel"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// keepProb is the probability that a hidden unit survives a training step.
// It also scales the layer products at inference; the two must stay equal.
const keepProb = 0.5

// fBeta weights precision over recall in the checkpoint F-score.
const fBeta = 0.5

// decisionThreshold separates class 1 from class 0 for single-output networks.
const decisionThreshold = 0.5

const defaultLogEvery = 100

// Sinks receive one evaluation row per checkpoint. Nil sinks are skipped.
type Sinks struct {
	Precision metrics.Sink
	Recall    metrics.Sink
	FScore    metrics.Sink
}

// Config describes a network to construct.
type Config struct {
	Inputs  int // Raw input features, bias excluded
	Hidden  int // Hidden units, bias excluded
	Outputs int // Output units

	HiddenActivation string // "tanh" (default) or "sigmoid"
	OutputActivation string // "sigmoid" (default), "tanh", "softmax" or "identity"

	// Classes labels the output units and the columns of every evaluation
	// row. Output unit i predicts Classes[i]; a single-output network
	// predicts Classes[1] above the decision threshold and Classes[0]
	// otherwise. Defaults to 0..Outputs-1, or {0, 1} when Outputs == 1.
	Classes []int

	Sinks    Sinks
	Schedule *Schedule // nil selects DefaultSchedule

	Seed uint64     // Seeds the generator when Rand is nil
	Rand *rand.Rand // Source for weights, example sampling and masks

	Logger   *log.Logger // nil discards log output
	LogEvery int         // Progress line interval in steps; 0 selects 100, < 0 disables

	Parallel parallel.Config // Fan-out for held-out inference; zero value is sequential
}

// Network is a dropout-trained three-layer perceptron.
//
// A Network is not safe for concurrent use.
type Network struct {
	numInput  int // raw inputs + bias
	numHidden int // hidden units + bias slot
	numOutput int

	weight1 *mat.Dense // numHidden x numInput
	weight2 *mat.Dense // numOutput x numHidden

	act1 activation.Activation
	act2 activation.Activation

	classes  []int
	sinks    Sinks
	schedule Schedule

	rng  *rand.Rand
	mask distuv.Bernoulli

	logger   *log.Logger
	logEvery int
	parallel parallel.Config

	testX   [][]float64
	testY   []int
	history []metrics.Report

	// onMask observes every sampled mask; set by tests.
	onMask func(step int, m *mat.VecDense)
}

// New validates cfg, writes the class header to every sink and initializes
// both weight matrices uniformly in (-1, 1).
func New(cfg Config) (*Network, error) {
	if cfg.Inputs <= 0 {
		return nil, &ConfigError{Field: "Inputs", Reason: fmt.Sprintf("must be > 0 (got %d)", cfg.Inputs)}
	}
	if cfg.Hidden <= 0 {
		return nil, &ConfigError{Field: "Hidden", Reason: fmt.Sprintf("must be > 0 (got %d)", cfg.Hidden)}
	}
	if cfg.Outputs <= 0 {
		return nil, &ConfigError{Field: "Outputs", Reason: fmt.Sprintf("must be > 0 (got %d)", cfg.Outputs)}
	}

	if cfg.HiddenActivation == "" {
		cfg.HiddenActivation = activation.NameTanh
	}
	if cfg.OutputActivation == "" {
		cfg.OutputActivation = activation.NameSigmoid
	}
	act1, err := activation.Hidden(cfg.HiddenActivation)
	if err != nil {
		return nil, err
	}
	act2, err := activation.Output(cfg.OutputActivation)
	if err != nil {
		return nil, err
	}

	classes, err := resolveClasses(cfg.Classes, cfg.Outputs)
	if err != nil {
		return nil, err
	}

	schedule := DefaultSchedule()
	if cfg.Schedule != nil {
		schedule = *cfg.Schedule
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	logEvery := cfg.LogEvery
	if logEvery == 0 {
		logEvery = defaultLogEvery
	}

	n := &Network{
		numInput:  cfg.Inputs + 1,
		numHidden: cfg.Hidden + 1,
		numOutput: cfg.Outputs,
		act1:      act1,
		act2:      act2,
		classes:   classes,
		sinks:     cfg.Sinks,
		schedule:  schedule,
		rng:       rng,
		mask:      distuv.Bernoulli{P: keepProb, Src: rng},
		logger:    logger,
		logEvery:  logEvery,
		parallel:  cfg.Parallel,
	}

	for _, s := range n.sinkList() {
		if err := s.sink.WriteHeader(classes); err != nil {
			return nil, fmt.Errorf("%s sink header: %w", s.name, err)
		}
	}

	dist := distuv.Uniform{Min: -1, Max: 1, Src: rng}
	n.weight1 = uniformDense(n.numHidden, n.numInput, dist)
	n.weight2 = uniformDense(n.numOutput, n.numHidden, dist)

	return n, nil
}

func resolveClasses(classes []int, outputs int) ([]int, error) {
	want := outputs
	if outputs == 1 {
		want = 2
	}
	if classes == nil {
		classes = make([]int, want)
		for i := range classes {
			classes[i] = i
		}
		return classes, nil
	}
	if len(classes) != want {
		return nil, &ConfigError{Field: "Classes", Reason: fmt.Sprintf("need %d labels for %d outputs, got %d", want, outputs, len(classes))}
	}
	seen := make(map[int]bool, len(classes))
	for _, c := range classes {
		if seen[c] {
			return nil, &ConfigError{Field: "Classes", Reason: fmt.Sprintf("duplicate label %d", c)}
		}
		seen[c] = true
	}
	return slices.Clone(classes), nil
}

// uniformDense draws every entry from dist, redrawing the closed lower bound
// so entries lie strictly inside (Min, Max).
func uniformDense(r, c int, dist distuv.Uniform) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		v := dist.Rand()
		for v <= dist.Min {
			v = dist.Rand()
		}
		data[i] = v
	}
	return mat.NewDense(r, c, data)
}

type namedSink struct {
	name string
	sink metrics.Sink
}

func (n *Network) sinkList() []namedSink {
	var out []namedSink
	if n.sinks.Precision != nil {
		out = append(out, namedSink{"precision", n.sinks.Precision})
	}
	if n.sinks.Recall != nil {
		out = append(out, namedSink{"recall", n.sinks.Recall})
	}
	if n.sinks.FScore != nil {
		out = append(out, namedSink{"fscore", n.sinks.FScore})
	}
	return out
}

// Predict returns the raw output activations for one feature vector.
//
// No units are dropped; both layer products are scaled by the keep
// probability. Apply argmax (or Classify) to obtain a class.
func (n *Network) Predict(x []float64) ([]float64, error) {
	if len(x) != n.numInput-1 {
		return nil, &DimensionError{Op: "predict", Row: -1, Want: n.numInput - 1, Got: len(x)}
	}
	return n.forward(withBias(x)), nil
}

// Classify returns the class label predicted for one feature vector.
func (n *Network) Classify(x []float64) (int, error) {
	y, err := n.Predict(x)
	if err != nil {
		return 0, err
	}
	return n.label(y), nil
}

// Accuracy scores the held-out set retained by the last Fit call.
func (n *Network) Accuracy() (float64, error) {
	if n.testX == nil {
		return 0, ErrNotFitted
	}
	return n.AccuracyOn(n.testX, n.testY)
}

// AccuracyOn returns the fraction of rows in x whose predicted class equals
// the matching label in y.
func (n *Network) AccuracyOn(x [][]float64, y []int) (float64, error) {
	if len(x) != len(y) {
		return 0, &DimensionError{Op: "accuracy labels", Row: -1, Want: len(x), Got: len(y)}
	}
	if err := checkRows("accuracy", x, n.numInput-1); err != nil {
		return 0, err
	}
	if err := n.checkLabels("accuracy labels", y); err != nil {
		return 0, err
	}
	return metrics.Accuracy(y, n.predictLabels(x))
}

// checkLabels rejects labels outside the network's classes.
func (n *Network) checkLabels(op string, y []int) error {
	for i, label := range y {
		if !slices.Contains(n.classes, label) {
			return &LabelError{Op: op, Row: i, Label: label, Classes: slices.Clone(n.classes)}
		}
	}
	return nil
}

// forward runs inference on a bias-augmented input.
func (n *Network) forward(x *mat.VecDense) []float64 {
	var a1 mat.VecDense
	a1.MulVec(n.weight1, x)
	a1.ScaleVec(keepProb, &a1)
	z := n.act1.Apply(&a1)

	var a2 mat.VecDense
	a2.MulVec(n.weight2, z)
	a2.ScaleVec(keepProb, &a2)
	y := n.act2.Apply(&a2)

	return mat.Col(nil, 0, y)
}

// predictLabels classifies rows that already passed dimension checks.
func (n *Network) predictLabels(x [][]float64) []int {
	return parallel.Map(len(x), func(i int) int {
		return n.label(n.forward(withBias(x[i])))
	}, n.parallel)
}

func (n *Network) label(y []float64) int {
	return n.classes[metrics.Classify(y, decisionThreshold)]
}

// withBias returns x with a leading 1.0 as a column vector.
func withBias(x []float64) *mat.VecDense {
	data := make([]float64, len(x)+1)
	data[0] = 1
	copy(data[1:], x)
	return mat.NewVecDense(len(data), data)
}

// Weights returns copies of the input→hidden and hidden→output matrices.
func (n *Network) Weights() (w1, w2 *mat.Dense) {
	return mat.DenseCopyOf(n.weight1), mat.DenseCopyOf(n.weight2)
}

// Sizes returns the unit counts per layer including bias units.
func (n *Network) Sizes() (inputs, hidden, outputs int) {
	return n.numInput, n.numHidden, n.numOutput
}

// Classes returns the class labels of the output units.
func (n *Network) Classes() []int {
	return slices.Clone(n.classes)
}

// History returns every checkpoint report recorded so far.
func (n *Network) History() []metrics.Report {
	return slices.Clone(n.history)
}
