// Package activation implements the element-wise activation functions used by
// the perceptron layers, together with their derivatives.
//
// Every derivative in this package is expressed in terms of the ACTIVATED value
// a = f(x), not the pre-activation x. Callers must pass f(x) into a Deriv,
// never x itself: for tanh the derivative is 1 - a², for sigmoid a(1 - a).
// Passing the raw pre-activation silently yields wrong gradients.
package activation

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Func applies an activation to every element of x and returns a new vector.
type Func func(x *mat.VecDense) *mat.VecDense

// Deriv returns the element-wise derivative of an activation.
//
// Precondition: a holds ACTIVATED values, i.e. a = f(x) for the matching Func.
// The result is undefined (and wrong) when a holds pre-activation values.
type Deriv func(a *mat.VecDense) *mat.VecDense

// Activation pairs an activation function with its derivative.
//
// Deriv is nil for activations that are only valid on the output layer
// (softmax), where the loss gradient is taken directly as y - t.
type Activation struct {
	Name  string
	Apply Func
	Deriv Deriv
}

// Names of the supported activations.
const (
	NameTanh     = "tanh"
	NameSigmoid  = "sigmoid"
	NameIdentity = "identity"
	NameSoftmax  = "softmax"
)

// TanhScalar is tanh(x).
func TanhScalar(x float64) float64 {
	return math.Tanh(x)
}

// SigmoidScalar is the logistic function 1 / (1 + exp(-x)).
func SigmoidScalar(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Tanh applies tanh element-wise.
func Tanh(x *mat.VecDense) *mat.VecDense {
	return mapVec(x, math.Tanh)
}

// TanhDeriv is 1 - a² for a = tanh(x).
func TanhDeriv(a *mat.VecDense) *mat.VecDense {
	return mapVec(a, func(v float64) float64 { return 1 - v*v })
}

// Sigmoid applies the logistic function element-wise.
func Sigmoid(x *mat.VecDense) *mat.VecDense {
	return mapVec(x, SigmoidScalar)
}

// SigmoidDeriv is a(1 - a) for a = sigmoid(x).
func SigmoidDeriv(a *mat.VecDense) *mat.VecDense {
	return mapVec(a, func(v float64) float64 { return v * (1 - v) })
}

// Identity returns a copy of x.
func Identity(x *mat.VecDense) *mat.VecDense {
	return mat.VecDenseCopyOf(x)
}

// IdentityDeriv is a vector of ones with the length of a.
func IdentityDeriv(a *mat.VecDense) *mat.VecDense {
	return mapVec(a, func(float64) float64 { return 1 })
}

// Softmax computes exp(x) / Σ exp(x).
//
// The maximum is subtracted before exponentiation so large logits do not
// overflow; the result is mathematically unchanged.
func Softmax(x *mat.VecDense) *mat.VecDense {
	out := mat.VecDenseCopyOf(x)
	data := out.RawVector().Data
	floats.AddConst(-floats.Max(data), data)
	for i, v := range data {
		data[i] = math.Exp(v)
	}
	floats.Scale(1/floats.Sum(data), data)
	return out
}

func mapVec(x *mat.VecDense, f func(float64) float64) *mat.VecDense {
	n := x.Len()
	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		out.SetVec(i, f(x.AtVec(i)))
	}
	return out
}
