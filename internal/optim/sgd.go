package optim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SGD implements plain stochastic gradient descent.
//
// Update rule:
//
//	param = param - lr * gradient
//
// There is no momentum: entries whose gradient is zero (for example weights of
// units dropped on this step) are left exactly unchanged.
type SGD struct {
	lr float64
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR float64 // Learning rate (default: 0.01)
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{lr: config.LR}
}

// Step performs param -= lr * grad.
func (s *SGD) Step(param, grad *mat.Dense) error {
	pr, pc := param.Dims()
	gr, gc := grad.Dims()
	if pr != gr || pc != gc {
		return fmt.Errorf("sgd: %w: param %dx%d, grad %dx%d", ErrShapeMismatch, pr, pc, gr, gc)
	}

	var update mat.Dense
	update.Scale(s.lr, grad)
	param.Sub(param, &update)
	return nil
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}
