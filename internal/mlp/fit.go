package mlp

import (
	"context"
	"fmt"
	"slices"

	"github.com/born-ml/dropnet/internal/metrics"
	"github.com/born-ml/dropnet/internal/optim"
	"gonum.org/v1/gonum/mat"
)

// FitOptions configures one call to Fit.
type FitOptions struct {
	LearningRate float64 // Step size (default: 0.1)
	Epochs       int     // Number of single-example updates (default: 10000)

	// TestX and TestY form the held-out set scored at every checkpoint and
	// retained for Accuracy. Both may be nil.
	TestX [][]float64
	TestY []int
}

func (o FitOptions) withDefaults() (FitOptions, error) {
	if o.LearningRate == 0 {
		o.LearningRate = 0.1
	}
	if o.Epochs == 0 {
		o.Epochs = 10000
	}
	if o.LearningRate < 0 {
		return o, &ConfigError{Field: "LearningRate", Reason: fmt.Sprintf("must be > 0 (got %v)", o.LearningRate)}
	}
	if o.Epochs < 0 {
		return o, &ConfigError{Field: "Epochs", Reason: fmt.Sprintf("must be > 0 (got %d)", o.Epochs)}
	}
	return o, nil
}

// Fit trains the network on x (one row per example) against targets t (one
// row per example, Outputs wide, already in the output layer's target
// representation).
//
// Every step draws one example uniformly at random, samples a fresh dropout
// mask over the hidden units and applies one gradient update. Whenever the
// step number is due on the schedule and a held-out set was given, the
// held-out set is classified and one row of per-class precision, recall and
// F0.5 is written to each sink.
func (n *Network) Fit(x [][]float64, t [][]float64, opts FitOptions) error {
	return n.FitContext(context.Background(), x, t, opts)
}

// FitContext is Fit with cancellation. It returns ctx.Err() wrapped with
// the step at which training stopped; updates made so far are kept.
func (n *Network) FitContext(ctx context.Context, x [][]float64, t [][]float64, opts FitOptions) error {
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}
	if len(x) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(t) != len(x) {
		return &DimensionError{Op: "fit targets", Row: -1, Want: len(x), Got: len(t)}
	}
	if err := checkRows("fit", x, n.numInput-1); err != nil {
		return err
	}
	if err := checkRows("fit targets", t, n.numOutput); err != nil {
		return err
	}
	if len(opts.TestX) != len(opts.TestY) {
		return &DimensionError{Op: "fit test labels", Row: -1, Want: len(opts.TestX), Got: len(opts.TestY)}
	}
	if err := checkRows("fit test", opts.TestX, n.numInput-1); err != nil {
		return err
	}
	if err := n.checkLabels("fit test labels", opts.TestY); err != nil {
		return err
	}

	n.testX = slices.Clone(opts.TestX)
	n.testY = slices.Clone(opts.TestY)

	inputs := make([]*mat.VecDense, len(x))
	targets := make([]*mat.VecDense, len(t))
	for i := range x {
		inputs[i] = withBias(x[i])
		targets[i] = mat.NewVecDense(n.numOutput, slices.Clone(t[i]))
	}

	sgd := optim.NewSGD(optim.SGDConfig{LR: opts.LearningRate})
	cursor := n.schedule.cursor()
	mask := mat.NewVecDense(n.numHidden, nil)

	n.logger.Printf("fit examples=%d epochs=%d lr=%g hidden=%s output=%s checkpoints=%d",
		len(x), opts.Epochs, opts.LearningRate, n.act1.Name, n.act2.Name, n.schedule.Count(opts.Epochs))

	for k := 0; k < opts.Epochs; k++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("step %d: %w", k, ctx.Err())
		default:
		}

		if n.logEvery > 0 && k%n.logEvery == 0 {
			n.logger.Printf("step=%d", k)
		}

		i := n.rng.IntN(len(inputs))
		n.sampleMask(mask)
		if n.onMask != nil {
			n.onMask(k+1, mask)
		}

		if err := n.step(inputs[i], targets[i], mask, sgd); err != nil {
			return fmt.Errorf("step %d: %w", k+1, err)
		}

		if cursor.due(k + 1) {
			if err := n.checkpoint(k + 1); err != nil {
				return err
			}
		}
	}
	return nil
}

// sampleMask fills m with independent Bernoulli(keepProb) draws and pins the
// bias slot to 1.
func (n *Network) sampleMask(m *mat.VecDense) {
	for i := 0; i < m.Len(); i++ {
		m.SetVec(i, n.mask.Rand())
	}
	m.SetVec(0, 1)
}

// step applies one masked gradient update for a single example.
func (n *Network) step(x, t, m *mat.VecDense, opt optim.Optimizer) error {
	// Forward: z = act1(W1·x) ⊙ m, y = act2(W2·z).
	var a1 mat.VecDense
	a1.MulVec(n.weight1, x)
	z := n.act1.Apply(&a1)
	z.MulElemVec(z, m)

	var a2 mat.VecDense
	a2.MulVec(n.weight2, z)
	y := n.act2.Apply(&a2)

	// Output error under cross-entropy: y - t.
	var delta2 mat.VecDense
	delta2.SubVec(y, t)

	// Hidden error: act1'(z) ⊙ (W2ᵀ·δ2) ⊙ m, using W2 before its update.
	var back mat.VecDense
	back.MulVec(n.weight2.T(), &delta2)
	delta1 := n.act1.Deriv(z)
	delta1.MulElemVec(delta1, &back)
	delta1.MulElemVec(delta1, m)

	var grad1 mat.Dense
	grad1.Outer(1, delta1, x)
	maskRows(&grad1, m)

	var grad2 mat.Dense
	grad2.Outer(1, &delta2, z)
	maskCols(&grad2, m)

	if err := opt.Step(n.weight1, &grad1); err != nil {
		return err
	}
	return opt.Step(n.weight2, &grad2)
}

// maskRows zeroes the rows of g belonging to dropped hidden units.
func maskRows(g *mat.Dense, m mat.Vector) {
	g.Apply(func(i, _ int, v float64) float64 {
		return v * m.AtVec(i)
	}, g)
}

// maskCols zeroes the columns of g fed by dropped hidden units.
func maskCols(g *mat.Dense, m mat.Vector) {
	g.Apply(func(_, j int, v float64) float64 {
		return v * m.AtVec(j)
	}, g)
}

// checkpoint scores the held-out set and appends one row to every sink.
func (n *Network) checkpoint(step int) error {
	if len(n.testX) == 0 {
		n.logger.Printf("checkpoint step=%d skipped: no held-out set", step)
		return nil
	}

	preds := n.predictLabels(n.testX)
	report, err := metrics.Score(n.testY, preds, n.classes, fBeta)
	if err != nil {
		return fmt.Errorf("checkpoint step %d: %w", step, err)
	}
	report.Step = step
	n.history = append(n.history, report)

	rows := map[string][]float64{
		"precision": report.Precision,
		"recall":    report.Recall,
		"fscore":    report.FScore,
	}
	for _, s := range n.sinkList() {
		if err := s.sink.WriteRow(rows[s.name]); err != nil {
			return fmt.Errorf("checkpoint step %d: %s sink: %w", step, s.name, err)
		}
	}

	n.logger.Printf("checkpoint step=%d accuracy=%.4f precision=%.4f recall=%.4f fscore=%.4f",
		step, report.Accuracy,
		metrics.Mean(report.Precision), metrics.Mean(report.Recall), metrics.Mean(report.FScore))
	return nil
}
