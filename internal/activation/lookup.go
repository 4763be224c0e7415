package activation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknown is wrapped by every UnknownError.
var ErrUnknown = errors.New("unknown activation")

// UnknownError reports an activation name that is not allowed for a layer.
type UnknownError struct {
	Layer   string   // "hidden" or "output"
	Name    string   // Name that was requested
	Allowed []string // Names accepted for Layer
}

// Error implements the error interface.
func (e *UnknownError) Error() string {
	return fmt.Sprintf("%s layer: %v %q (allowed: %s)",
		e.Layer, ErrUnknown, e.Name, strings.Join(e.Allowed, ", "))
}

// Unwrap returns ErrUnknown.
func (e *UnknownError) Unwrap() error {
	return ErrUnknown
}

var (
	tanhAct     = Activation{Name: NameTanh, Apply: Tanh, Deriv: TanhDeriv}
	sigmoidAct  = Activation{Name: NameSigmoid, Apply: Sigmoid, Deriv: SigmoidDeriv}
	identityAct = Activation{Name: NameIdentity, Apply: Identity, Deriv: IdentityDeriv}
	softmaxAct  = Activation{Name: NameSoftmax, Apply: Softmax}
)

// HiddenNames lists the activations accepted for the hidden layer.
var HiddenNames = []string{NameTanh, NameSigmoid}

// OutputNames lists the activations accepted for the output layer.
var OutputNames = []string{NameTanh, NameSigmoid, NameSoftmax, NameIdentity}

// Hidden resolves a hidden-layer activation. Only activations whose derivative
// can be written in terms of the activated value are accepted.
func Hidden(name string) (Activation, error) {
	switch name {
	case NameTanh:
		return tanhAct, nil
	case NameSigmoid:
		return sigmoidAct, nil
	}
	return Activation{}, &UnknownError{Layer: "hidden", Name: name, Allowed: HiddenNames}
}

// Output resolves an output-layer activation.
func Output(name string) (Activation, error) {
	switch name {
	case NameTanh:
		return tanhAct, nil
	case NameSigmoid:
		return sigmoidAct, nil
	case NameSoftmax:
		return softmaxAct, nil
	case NameIdentity:
		return identityAct, nil
	}
	return Activation{}, &UnknownError{Layer: "output", Name: name, Allowed: OutputNames}
}
