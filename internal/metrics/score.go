// Package metrics scores classifier predictions and records evaluation rows.
package metrics

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Report holds per-class scores for one evaluation.
//
// All slices are aligned with Labels.
type Report struct {
	Step      int       // Training step at which the evaluation ran (1-based)
	Labels    []int     // Class labels, ascending
	Precision []float64 // tp / (tp + fp)
	Recall    []float64 // tp / (tp + fn)
	FScore    []float64 // F-beta of precision and recall
	Support   []int     // Occurrences of each label in the true labels
	Accuracy  float64   // Fraction of exact matches over all samples
}

// Labels returns the sorted union of the labels found in yTrue and yPred.
func Labels(yTrue, yPred []int) []int {
	set := make(map[int]struct{}, 16)
	for _, y := range yTrue {
		set[y] = struct{}{}
	}
	for _, y := range yPred {
		set[y] = struct{}{}
	}
	labels := make([]int, 0, len(set))
	for y := range set {
		labels = append(labels, y)
	}
	slices.Sort(labels)
	return labels
}

// Score computes per-class precision, recall, F-beta and support.
//
// When labels is nil the sorted union of yTrue and yPred is used. Samples whose
// labels are not listed only count against the listed classes they were
// confused with. A ratio with a zero denominator is reported as 0.
func Score(yTrue, yPred []int, labels []int, beta float64) (Report, error) {
	if len(yTrue) != len(yPred) {
		return Report{}, fmt.Errorf("score: %d true labels but %d predictions", len(yTrue), len(yPred))
	}
	if beta <= 0 {
		return Report{}, fmt.Errorf("score: beta must be > 0 (got %v)", beta)
	}
	if labels == nil {
		labels = Labels(yTrue, yPred)
	}

	index := make(map[int]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	tp := make([]float64, len(labels))
	predicted := make([]float64, len(labels))
	support := make([]int, len(labels))
	correct := 0

	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
		if j, ok := index[yPred[i]]; ok {
			predicted[j]++
			if yTrue[i] == yPred[i] {
				tp[j]++
			}
		}
		if j, ok := index[yTrue[i]]; ok {
			support[j]++
		}
	}

	r := Report{
		Labels:    slices.Clone(labels),
		Precision: make([]float64, len(labels)),
		Recall:    make([]float64, len(labels)),
		FScore:    make([]float64, len(labels)),
		Support:   support,
	}
	b2 := beta * beta
	for j := range labels {
		r.Precision[j] = ratio(tp[j], predicted[j])
		r.Recall[j] = ratio(tp[j], float64(support[j]))
		p, rc := r.Precision[j], r.Recall[j]
		r.FScore[j] = ratio((1+b2)*p*rc, b2*p+rc)
	}
	if len(yTrue) > 0 {
		r.Accuracy = float64(correct) / float64(len(yTrue))
	}
	return r, nil
}

// Accuracy returns the fraction of positions where yTrue and yPred agree.
func Accuracy(yTrue, yPred []int) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, fmt.Errorf("accuracy: %d true labels but %d predictions", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return 0, nil
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// Argmax returns the index of the largest output activation.
func Argmax(output []float64) int {
	if len(output) == 0 {
		return -1
	}
	return floats.MaxIdx(output)
}

// Classify maps an output activation vector to a class index.
//
// Multi-output vectors use argmax. A single-output vector is a binary decision:
// class 1 when the activation is at least threshold, class 0 otherwise.
func Classify(output []float64, threshold float64) int {
	if len(output) == 1 {
		if output[0] >= threshold {
			return 1
		}
		return 0
	}
	return Argmax(output)
}

// Mean returns the unweighted mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Sum(values) / float64(len(values))
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
