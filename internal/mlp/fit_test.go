package mlp

import (
	"bytes"
	"context"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/born-ml/dropnet/internal/activation"
	"github.com/born-ml/dropnet/internal/metrics"
	"github.com/born-ml/dropnet/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var (
	xorX      = [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	xorLabels = []int{0, 1, 1, 0}
	xorT      = [][]float64{{0}, {1}, {1}, {0}}
)

func newRecorders() (*metrics.Recorder, *metrics.Recorder, *metrics.Recorder, Sinks) {
	p, r, f := &metrics.Recorder{}, &metrics.Recorder{}, &metrics.Recorder{}
	return p, r, f, Sinks{Precision: p, Recall: r, FScore: f}
}

// TestFit_XOR tests that the 2-2-1 tanh/sigmoid network learns XOR.
func TestFit_XOR(t *testing.T) {
	net, err := New(Config{
		Inputs: 2, Hidden: 2, Outputs: 1,
		HiddenActivation: activation.NameTanh, OutputActivation: activation.NameSigmoid,
		Seed: 1,
	})
	require.NoError(t, err)

	err = net.Fit(xorX, xorT, FitOptions{LearningRate: 0.1, Epochs: 50000, TestX: xorX, TestY: xorLabels})
	require.NoError(t, err)

	acc, err := net.Accuracy()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.75)
	assert.LessOrEqual(t, acc, 1.0)
}

// TestFit_XORWideHidden tests that a wider hidden layer solves XOR exactly.
func TestFit_XORWideHidden(t *testing.T) {
	net, err := New(Config{Inputs: 2, Hidden: 8, Outputs: 1, Seed: 2})
	require.NoError(t, err)

	require.NoError(t, net.Fit(xorX, xorT, FitOptions{Epochs: 20000, TestX: xorX, TestY: xorLabels}))

	acc, err := net.Accuracy()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, acc, 1e-12)

	for i, x := range xorX {
		label, err := net.Classify(x)
		require.NoError(t, err)
		assert.Equal(t, xorLabels[i], label, "input %v", x)
	}
}

// TestFit_SoftmaxOneHot tests multi-class training with one-hot targets.
func TestFit_SoftmaxOneHot(t *testing.T) {
	x := [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	targets := [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	labels := []int{0, 1, 2}

	net, err := New(Config{Inputs: 3, Hidden: 12, Outputs: 3, OutputActivation: activation.NameSoftmax, Seed: 4})
	require.NoError(t, err)
	require.NoError(t, net.Fit(x, targets, FitOptions{Epochs: 5000, TestX: x, TestY: labels}))

	acc, err := net.Accuracy()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, acc, 1e-12)
}

// TestFit_MaskInvariant tests that the bias slot is always kept and every
// other mask entry is 0 or 1.
func TestFit_MaskInvariant(t *testing.T) {
	net, err := New(Config{Inputs: 2, Hidden: 16, Outputs: 1, Seed: 3})
	require.NoError(t, err)

	steps := 0
	var zeros, ones int
	net.onMask = func(step int, m *mat.VecDense) {
		steps++
		assert.Equal(t, steps, step)
		require.Equal(t, 17, m.Len())
		assert.Equal(t, 1.0, m.AtVec(0), "bias slot dropped at step %d", step)
		for i := 1; i < m.Len(); i++ {
			switch m.AtVec(i) {
			case 0:
				zeros++
			case 1:
				ones++
			default:
				t.Fatalf("mask entry %d = %v at step %d", i, m.AtVec(i), step)
			}
		}
	}

	require.NoError(t, net.Fit(xorX, xorT, FitOptions{Epochs: 500}))

	assert.Equal(t, 500, steps)
	// 8000 draws at p=0.5: both outcomes are far from rare.
	assert.InDelta(t, 0.5, float64(ones)/float64(ones+zeros), 0.05)
}

// TestFit_DroppedUnitsUntouched tests that one step leaves the weights into
// and out of dropped hidden units unchanged.
func TestFit_DroppedUnitsUntouched(t *testing.T) {
	found := false
	for seed := uint64(1); seed <= 32 && !found; seed++ {
		net, err := New(Config{Inputs: 2, Hidden: 8, Outputs: 2, Seed: seed})
		require.NoError(t, err)
		before1, before2 := net.Weights()

		var mask []float64
		net.onMask = func(_ int, m *mat.VecDense) {
			mask = mat.Col(nil, 0, m)
		}
		require.NoError(t, net.Fit(xorX, [][]float64{{1, 0}, {0, 1}, {0, 1}, {1, 0}}, FitOptions{Epochs: 1}))
		after1, after2 := net.Weights()

		for h, keep := range mask {
			if keep != 0 {
				continue
			}
			found = true
			assert.Equal(t, mat.Row(nil, h, before1), mat.Row(nil, h, after1), "weight1 row %d", h)
			assert.Equal(t, mat.Col(nil, h, before2), mat.Col(nil, h, after2), "weight2 col %d", h)
		}
		assert.False(t, mat.Equal(before2, after2), "kept units must move")
	}
	assert.True(t, found, "no seed produced a dropped unit")
}

// TestFit_CheckpointRows tests that ten steps fire checkpoints 5 and 10.
func TestFit_CheckpointRows(t *testing.T) {
	p, r, f, sinks := newRecorders()
	net, err := New(Config{Inputs: 2, Hidden: 2, Outputs: 1, Sinks: sinks, Seed: 5})
	require.NoError(t, err)

	require.NoError(t, net.Fit(xorX, xorT, FitOptions{Epochs: 10, TestX: xorX, TestY: xorLabels}))

	for _, rec := range []*metrics.Recorder{p, r, f} {
		assert.Equal(t, []int{0, 1}, rec.Header)
		require.Len(t, rec.Rows, 2)
		for _, row := range rec.Rows {
			assert.Len(t, row, 2)
			for _, v := range row {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			}
		}
	}

	history := net.History()
	require.Len(t, history, 2)
	assert.Equal(t, 5, history[0].Step)
	assert.Equal(t, 10, history[1].Step)
	assert.Equal(t, history[1].Precision, p.Rows[1])
	assert.Equal(t, history[1].Recall, r.Rows[1])
	assert.Equal(t, history[1].FScore, f.Rows[1])
}

// TestFit_ScheduleExhausted tests that running past the last checkpoint
// simply stops evaluating.
func TestFit_ScheduleExhausted(t *testing.T) {
	schedule, err := NewSchedule(2, 4)
	require.NoError(t, err)

	p, _, _, sinks := newRecorders()
	net, err := New(Config{Inputs: 2, Hidden: 2, Outputs: 1, Sinks: sinks, Schedule: &schedule})
	require.NoError(t, err)

	require.NoError(t, net.Fit(xorX, xorT, FitOptions{Epochs: 100, TestX: xorX, TestY: xorLabels}))
	assert.Len(t, p.Rows, 2)
}

// TestFit_DefaultScheduleExhausted runs past the final default checkpoint.
func TestFit_DefaultScheduleExhausted(t *testing.T) {
	if testing.Short() {
		t.Skip("long run")
	}
	p, _, _, sinks := newRecorders()
	net, err := New(Config{Inputs: 2, Hidden: 2, Outputs: 1, Sinks: sinks})
	require.NoError(t, err)

	require.NoError(t, net.Fit(xorX, xorT, FitOptions{Epochs: 50500, TestX: xorX[:1], TestY: xorLabels[:1]}))
	assert.Len(t, p.Rows, len(defaultCheckpoints))
}

// TestFit_IntervalSchedule tests a uniform checkpoint interval.
func TestFit_IntervalSchedule(t *testing.T) {
	schedule, err := Every(25)
	require.NoError(t, err)

	_, r, _, sinks := newRecorders()
	net, err := New(Config{
		Inputs: 2, Hidden: 2, Outputs: 1,
		Sinks: sinks, Schedule: &schedule,
		Parallel: parallel.Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1},
	})
	require.NoError(t, err)

	require.NoError(t, net.Fit(xorX, xorT, FitOptions{Epochs: 100, TestX: xorX, TestY: xorLabels}))
	assert.Len(t, r.Rows, 4)

	steps := make([]int, 0, 4)
	for _, rep := range net.History() {
		steps = append(steps, rep.Step)
	}
	assert.Equal(t, []int{25, 50, 75, 100}, steps)
}

// TestFit_WithoutTestSet tests that checkpoints are skipped without data.
func TestFit_WithoutTestSet(t *testing.T) {
	p, _, _, sinks := newRecorders()
	net, err := New(Config{Inputs: 2, Hidden: 2, Outputs: 1, Sinks: sinks})
	require.NoError(t, err)

	require.NoError(t, net.Fit(xorX, xorT, FitOptions{Epochs: 20}))
	assert.Empty(t, p.Rows)
	assert.Empty(t, net.History())

	_, err = net.Accuracy()
	assert.ErrorIs(t, err, ErrNotFitted)
}

// TestFit_Deterministic tests that equal seeds give equal training runs.
func TestFit_Deterministic(t *testing.T) {
	train := func() *mat.Dense {
		net, err := New(Config{Inputs: 2, Hidden: 4, Outputs: 1, Seed: 99})
		require.NoError(t, err)
		require.NoError(t, net.Fit(xorX, xorT, FitOptions{Epochs: 300}))
		_, w2 := net.Weights()
		return w2
	}

	assert.True(t, mat.Equal(train(), train()))
}

// TestFit_Validation tests option and shape checks.
func TestFit_Validation(t *testing.T) {
	net, err := New(Config{Inputs: 2, Hidden: 2, Outputs: 1})
	require.NoError(t, err)

	err = net.Fit(nil, nil, FitOptions{})
	assert.ErrorIs(t, err, ErrEmptyTrainingSet)

	err = net.Fit(xorX, xorT[:3], FitOptions{})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	err = net.Fit([][]float64{{0, 0, 0}}, [][]float64{{0}}, FitOptions{})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	err = net.Fit(xorX, [][]float64{{0, 1}, {1}, {1}, {0}}, FitOptions{})
	var dimErr *DimensionError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, "fit targets", dimErr.Op)
	assert.Equal(t, 0, dimErr.Row)

	err = net.Fit(xorX, xorT, FitOptions{TestX: xorX, TestY: xorLabels[:2]})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	err = net.Fit(xorX, xorT, FitOptions{TestX: [][]float64{{1}}, TestY: []int{0}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	err = net.Fit(xorX, xorT, FitOptions{LearningRate: -1})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	err = net.Fit(xorX, xorT, FitOptions{Epochs: -5})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// TestFit_UnknownTestLabel tests that held-out labels must name an output unit.
func TestFit_UnknownTestLabel(t *testing.T) {
	net, err := New(Config{Inputs: 2, Hidden: 2, Outputs: 2})
	require.NoError(t, err)

	targets := [][]float64{{1, 0}, {0, 1}, {0, 1}, {1, 0}}
	err = net.Fit(xorX, targets, FitOptions{Epochs: 5, TestX: xorX, TestY: []int{7, 7, 7, 7}})
	require.ErrorIs(t, err, ErrDimensionMismatch)

	var labelErr *LabelError
	require.ErrorAs(t, err, &labelErr)
	assert.Equal(t, "fit test labels", labelErr.Op)
	assert.Equal(t, 0, labelErr.Row)
	assert.Equal(t, 7, labelErr.Label)
	assert.Equal(t, []int{0, 1}, labelErr.Classes)

	// Nothing was trained or retained.
	_, err = net.Accuracy()
	assert.ErrorIs(t, err, ErrNotFitted)
	assert.Empty(t, net.History())

	// A single output unit scores labels 0 and 1 only.
	single, err := New(Config{Inputs: 2, Hidden: 2, Outputs: 1})
	require.NoError(t, err)
	err = single.Fit(xorX, xorT, FitOptions{Epochs: 5, TestX: xorX, TestY: []int{0, 1, 2, 0}})
	require.ErrorAs(t, err, &labelErr)
	assert.Equal(t, 2, labelErr.Row)
	assert.Equal(t, 2, labelErr.Label)
}

// TestFit_SingleStepUpdate tests one update against the gradient worked out
// by hand from the captured mask.
func TestFit_SingleStepUpdate(t *testing.T) {
	cases := []struct {
		name   string
		output string
		x      []float64
		target []float64
	}{
		{"sigmoid", activation.NameSigmoid, []float64{0.3, -0.7}, []float64{1}},
		{"softmax", activation.NameSoftmax, []float64{-0.4, 0.9}, []float64{0, 1, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			const lr = 0.3
			net, err := New(Config{
				Inputs: len(tc.x), Hidden: 4, Outputs: len(tc.target),
				HiddenActivation: activation.NameTanh, OutputActivation: tc.output,
				Seed: 17,
			})
			require.NoError(t, err)

			w1, w2 := net.Weights()
			var m []float64
			net.onMask = func(_ int, mask *mat.VecDense) {
				m = mat.Col(nil, 0, mask)
			}

			// One example, so the sampled index is always 0.
			require.NoError(t, net.Fit([][]float64{tc.x}, [][]float64{tc.target}, FitOptions{LearningRate: lr, Epochs: 1}))
			require.NotNil(t, m)

			in := append([]float64{1}, tc.x...)
			hidden, outputs := len(m), len(tc.target)

			z := make([]float64, hidden)
			for h := range z {
				var a float64
				for j, v := range in {
					a += w1.At(h, j) * v
				}
				z[h] = math.Tanh(a) * m[h]
			}

			y := make([]float64, outputs)
			for o := range y {
				for h, v := range z {
					y[o] += w2.At(o, h) * v
				}
			}
			if tc.output == activation.NameSoftmax {
				var sum float64
				for o := range y {
					y[o] = math.Exp(y[o])
					sum += y[o]
				}
				for o := range y {
					y[o] /= sum
				}
			} else {
				for o := range y {
					y[o] = 1 / (1 + math.Exp(-y[o]))
				}
			}

			d2 := make([]float64, outputs)
			for o := range d2 {
				d2[o] = y[o] - tc.target[o]
			}
			d1 := make([]float64, hidden)
			for h := range d1 {
				var back float64
				for o := range d2 {
					back += w2.At(o, h) * d2[o]
				}
				d1[h] = (1 - z[h]*z[h]) * back * m[h]
			}

			got1, got2 := net.Weights()
			for h := 0; h < hidden; h++ {
				for j, v := range in {
					want := w1.At(h, j) - lr*d1[h]*v*m[h]
					assert.InDelta(t, want, got1.At(h, j), 1e-12, "w1[%d][%d]", h, j)
				}
			}
			for o := 0; o < outputs; o++ {
				for h := 0; h < hidden; h++ {
					want := w2.At(o, h) - lr*d2[o]*z[h]*m[h]
					assert.InDelta(t, want, got2.At(o, h), 1e-12, "w2[%d][%d]", o, h)
				}
			}
		})
	}
}

// TestFit_SinkRowError tests that sink failures abort training.
func TestFit_SinkRowError(t *testing.T) {
	net, err := New(Config{Inputs: 2, Hidden: 2, Outputs: 1, Sinks: Sinks{FScore: failingSink{}}})
	require.NoError(t, err)

	err = net.Fit(xorX, xorT, FitOptions{Epochs: 10, TestX: xorX, TestY: xorLabels})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checkpoint step 5: fscore sink: row refused")
}

// TestFit_Logging tests the progress and checkpoint log lines.
func TestFit_Logging(t *testing.T) {
	var buf bytes.Buffer
	net, err := New(Config{
		Inputs: 2, Hidden: 2, Outputs: 1,
		Logger: log.New(&buf, "", 0), LogEvery: 4,
	})
	require.NoError(t, err)

	require.NoError(t, net.Fit(xorX, xorT, FitOptions{Epochs: 10, TestX: xorX, TestY: xorLabels}))

	out := buf.String()
	assert.Contains(t, out, "fit examples=4 epochs=10")
	assert.Contains(t, out, "step=0\n")
	assert.Contains(t, out, "step=8\n")
	assert.Contains(t, out, "checkpoint step=5 accuracy=")
	assert.Equal(t, 2, strings.Count(out, "checkpoint step="))
}

// TestFitContext_Canceled tests that a canceled context stops training.
func TestFitContext_Canceled(t *testing.T) {
	net, err := New(Config{Inputs: 2, Hidden: 2, Outputs: 1})
	require.NoError(t, err)
	before, _ := net.Weights()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = net.FitContext(ctx, xorX, xorT, FitOptions{Epochs: 100})
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "step 0")

	after, _ := net.Weights()
	assert.True(t, mat.Equal(before, after))
}
