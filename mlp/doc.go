// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package mlp provides a three-layer perceptron trained with dropout.
//
// # Overview
//
// The network has one hidden layer. Each training step draws a single
// example at random and drops every hidden unit (except the bias) with
// probability 0.5 before the gradient update. Inference keeps every unit
// and halves both layer products instead.
//
// Hidden activations: tanh (default), sigmoid.
// Output activations: sigmoid (default), tanh, softmax, identity.
//
// # Basic Usage
//
//	import "github.com/born-ml/dropnet/mlp"
//
//	func main() {
//	    net, err := mlp.New(mlp.Config{Inputs: 2, Hidden: 2, Outputs: 1, Seed: 1})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    x := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
//	    t := [][]float64{{0}, {1}, {1}, {0}}
//	    if err := net.Fit(x, t, mlp.FitOptions{Epochs: 50000}); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    y, _ := net.Predict([]float64{0, 1})
//	    fmt.Println(y)
//	}
//
// # Checkpoint Evaluation
//
// When FitOptions carries a held-out set, the network scores it at every
// step on its Schedule and writes per-class precision, recall and F0.5 rows
// to the configured Sinks:
//
//	var precision, recall, fscore bytes.Buffer
//	net, _ := mlp.New(mlp.Config{
//	    Inputs: 784, Hidden: 100, Outputs: 10,
//	    OutputActivation: mlp.Softmax,
//	    Sinks: mlp.Sinks{
//	        Precision: mlp.NewCSVSink(&precision),
//	        Recall:    mlp.NewCSVSink(&recall),
//	        FScore:    mlp.NewCSVSink(&fscore),
//	    },
//	})
//	err := net.Fit(trainX, targets, mlp.FitOptions{TestX: testX, TestY: testY})
package mlp
