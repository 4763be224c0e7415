package mlp

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidConfig     = errors.New("invalid network config")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrNotFitted         = errors.New("no held-out set retained: call Fit with TestX and TestY first")
	ErrEmptyTrainingSet  = errors.New("empty training set")
)

// ConfigError reports a rejected construction or training option.
type ConfigError struct {
	Field  string // Option name, e.g. "Hidden" or "LearningRate"
	Reason string // What is wrong with it
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrInvalidConfig, e.Field, e.Reason)
}

// Unwrap returns ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// DimensionError reports a vector whose length disagrees with the network.
type DimensionError struct {
	Op   string // Operation that rejected the input, e.g. "predict"
	Row  int    // Row index within a matrix argument, or -1
	Want int
	Got  int
}

// Error implements the error interface.
func (e *DimensionError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("%s: row %d: %v: want %d, got %d", e.Op, e.Row, ErrDimensionMismatch, e.Want, e.Got)
	}
	return fmt.Sprintf("%s: %v: want %d, got %d", e.Op, ErrDimensionMismatch, e.Want, e.Got)
}

// Unwrap returns ErrDimensionMismatch.
func (e *DimensionError) Unwrap() error {
	return ErrDimensionMismatch
}

// LabelError reports a class label that no output unit predicts.
type LabelError struct {
	Op      string
	Row     int
	Label   int
	Classes []int
}

// Error implements the error interface.
func (e *LabelError) Error() string {
	return fmt.Sprintf("%s: row %d: %v: label %d has no output unit (classes %v)", e.Op, e.Row, ErrDimensionMismatch, e.Label, e.Classes)
}

// Unwrap returns ErrDimensionMismatch.
func (e *LabelError) Unwrap() error {
	return ErrDimensionMismatch
}

func checkRows(op string, rows [][]float64, width int) error {
	for i, row := range rows {
		if len(row) != width {
			return &DimensionError{Op: op, Row: i, Want: width, Got: len(row)}
		}
	}
	return nil
}
