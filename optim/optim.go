// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/dropnet/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Config represents the base configuration for optimizers.
type Config = optim.Config

// ErrShapeMismatch is returned when a gradient does not match its parameter.
var ErrShapeMismatch = optim.ErrShapeMismatch

// SGD (Stochastic Gradient Descent)

// SGD represents the plain SGD optimizer.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{LR: 0.1})
//	err := optimizer.Step(weights, grad)
func NewSGD(config SGDConfig) *SGD {
	return optim.NewSGD(config)
}
