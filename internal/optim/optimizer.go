// Package optim implements the parameter update rules used during training.
//
// Parameters and gradients are gonum dense matrices of identical shape. The
// caller computes the gradient (including any masking) and the optimizer
// applies it in place.
//
// Example usage:
//
//	sgd := optim.NewSGD(optim.SGDConfig{LR: 0.1})
//
//	var grad mat.Dense
//	grad.Outer(1, delta, input)
//	if err := sgd.Step(weights, &grad); err != nil {
//	    return err
//	}
package optim

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrShapeMismatch is returned when a gradient does not match its parameter.
var ErrShapeMismatch = errors.New("gradient shape does not match parameter")

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies grad to param in place.
	Step(param, grad *mat.Dense) error

	// GetLR returns the current learning rate.
	GetLR() float64
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}
