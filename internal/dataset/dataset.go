// Package dataset loads and prepares labeled feature vectors for training.
//
// Sources:
//   - XOR: the four-row exclusive-or table
//   - LoadCSV: label-first CSV rows (Kaggle MNIST layout)
//   - LoadIDX: the official MNIST IDX binary files
//   - SyntheticDigits: generated 28x28 patterns for runs without downloads
//
// Targets and Split turn a Dataset into what the network consumes.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ErrLabelRange is returned when a label has no output unit.
var ErrLabelRange = errors.New("label out of range")

// Dataset holds feature rows and their integer class labels.
type Dataset struct {
	X      [][]float64 // [num_samples, num_features]
	Labels []int       // [num_samples]
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.X)
}

// Features returns the width of the first row, or 0 for an empty set.
func (d *Dataset) Features() int {
	if len(d.X) == 0 {
		return 0
	}
	return len(d.X[0])
}

// XOR returns the exclusive-or truth table.
func XOR() *Dataset {
	return &Dataset{
		X:      [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		Labels: []int{0, 1, 1, 0},
	}
}

// Targets encodes labels for a network with the given number of outputs.
//
// With several outputs each label becomes a one-hot row. With a single
// output labels must be 0 or 1 and become a one-element row holding the
// label itself.
func Targets(labels []int, outputs int) ([][]float64, error) {
	if outputs <= 0 {
		return nil, fmt.Errorf("targets: outputs must be > 0 (got %d)", outputs)
	}
	limit := outputs
	if outputs == 1 {
		limit = 2
	}

	out := make([][]float64, len(labels))
	for i, label := range labels {
		if label < 0 || label >= limit {
			return nil, fmt.Errorf("targets: row %d: %w: %d not in [0, %d)", i, ErrLabelRange, label, limit)
		}
		if outputs == 1 {
			out[i] = []float64{float64(label)}
			continue
		}
		row := make([]float64, outputs)
		row[label] = 1
		out[i] = row
	}
	return out, nil
}

// Split shuffles d and holds out ceil(testRatio * Len) samples.
//
// Both halves share row slices with d. At least one sample stays on each
// side when d has two or more samples.
func Split(d *Dataset, testRatio float64, rng *rand.Rand) (train, test *Dataset, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("split: test ratio must be in (0, 1) (got %v)", testRatio)
	}
	n := d.Len()
	if n < 2 {
		return nil, nil, fmt.Errorf("split: need at least 2 samples (got %d)", n)
	}
	if len(d.Labels) != n {
		return nil, nil, fmt.Errorf("split: %d rows but %d labels", n, len(d.Labels))
	}

	numTest := int(math.Ceil(testRatio * float64(n)))
	numTest = min(max(numTest, 1), n-1)

	perm := rng.Perm(n)
	test = subset(d, perm[:numTest])
	train = subset(d, perm[numTest:])
	return train, test, nil
}

func subset(d *Dataset, idx []int) *Dataset {
	out := &Dataset{
		X:      make([][]float64, len(idx)),
		Labels: make([]int, len(idx)),
	}
	for i, j := range idx {
		out.X[i] = d.X[j]
		out.Labels[i] = d.Labels[j]
	}
	return out
}

// Limit truncates d to at most n samples; n <= 0 keeps everything.
func (d *Dataset) Limit(n int) {
	if n > 0 && d.Len() > n {
		d.X = d.X[:n]
		d.Labels = d.Labels[:n]
	}
}
