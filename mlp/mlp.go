// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package mlp

import (
	"io"

	"github.com/born-ml/dropnet/internal/activation"
	"github.com/born-ml/dropnet/internal/metrics"
	"github.com/born-ml/dropnet/internal/mlp"
)

// Network is a dropout-trained three-layer perceptron.
type Network = mlp.Network

// Config describes a network to construct.
type Config = mlp.Config

// FitOptions configures one call to Network.Fit.
type FitOptions = mlp.FitOptions

// Sinks receive one evaluation row per checkpoint.
type Sinks = mlp.Sinks

// Schedule decides at which steps the held-out set is evaluated.
type Schedule = mlp.Schedule

// Activation names accepted by Config.
const (
	Tanh     = activation.NameTanh
	Sigmoid  = activation.NameSigmoid
	Softmax  = activation.NameSoftmax
	Identity = activation.NameIdentity
)

// Errors

var (
	// ErrInvalidConfig is wrapped by every ConfigError.
	ErrInvalidConfig = mlp.ErrInvalidConfig

	// ErrDimensionMismatch is wrapped by every DimensionError and LabelError.
	ErrDimensionMismatch = mlp.ErrDimensionMismatch

	// ErrNotFitted is returned by Accuracy before Fit retained a held-out set.
	ErrNotFitted = mlp.ErrNotFitted

	// ErrEmptyTrainingSet is returned by Fit for an empty training set.
	ErrEmptyTrainingSet = mlp.ErrEmptyTrainingSet

	// ErrUnknownActivation is wrapped when an activation name is not allowed.
	ErrUnknownActivation = activation.ErrUnknown
)

// ConfigError reports an invalid construction or fit parameter.
type ConfigError = mlp.ConfigError

// DimensionError reports a vector of the wrong length.
type DimensionError = mlp.DimensionError

// LabelError reports a class label that no output unit predicts.
type LabelError = mlp.LabelError

// New creates a network with weights drawn uniformly from (-1, 1) and
// writes the class header to every sink.
//
// Example:
//
//	net, err := mlp.New(mlp.Config{
//	    Inputs:           2,
//	    Hidden:           2,
//	    Outputs:          1,
//	    HiddenActivation: mlp.Tanh,
//	    OutputActivation: mlp.Sigmoid,
//	})
func New(cfg Config) (*Network, error) {
	return mlp.New(cfg)
}

// DefaultSchedule returns the built-in checkpoint steps, from 5 up to 50000.
func DefaultSchedule() Schedule {
	return mlp.DefaultSchedule()
}

// NewSchedule builds a schedule from strictly increasing positive steps.
func NewSchedule(steps ...int) (Schedule, error) {
	return mlp.NewSchedule(steps...)
}

// Every builds a schedule firing at every multiple of n.
func Every(n int) (Schedule, error) {
	return mlp.Every(n)
}

// Sink receives one class header and then one row per checkpoint.
type Sink = metrics.Sink

// Report holds the per-class scores of one checkpoint.
type Report = metrics.Report

// CSVSink writes evaluation rows as CSV.
type CSVSink = metrics.CSVSink

// Recorder keeps evaluation rows in memory.
type Recorder = metrics.Recorder

// NewCSVSink creates a sink writing CSV records to w.
func NewCSVSink(w io.Writer) *CSVSink {
	return metrics.NewCSVSink(w)
}
