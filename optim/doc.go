// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the update rules used to train dropnet networks.
//
// # Overview
//
// This package contains:
//   - SGD: plain Stochastic Gradient Descent
//   - Optimizer interface for custom optimizers
//
// Parameters and gradients are gonum *mat.Dense values of identical shape.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/dropnet/optim"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    weights := mat.NewDense(2, 3, nil)
//	    sgd := optim.NewSGD(optim.SGDConfig{LR: 0.1})
//
//	    var grad mat.Dense
//	    grad.Outer(1, delta, input)
//	    if err := sgd.Step(weights, &grad); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// Entries whose gradient is exactly zero are left unchanged, so masking a
// gradient row or column freezes the matching weights for that step.
package optim
