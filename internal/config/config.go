// Package config loads the YAML description of a training run.
//
// Example run.yaml:
//
//	network:
//	  inputs: 784
//	  hidden: 100
//	  outputs: 10
//	  hidden_activation: tanh
//	  output_activation: softmax
//	training:
//	  learning_rate: 0.1
//	  epochs: 50000
//	  seed: 1
//	  log_every: 1000
//	data:
//	  source: idx
//	  path: ./mnist
//	  max_samples: 10000
//	output:
//	  dir: ./runs
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/dropnet/internal/activation"
	"gopkg.in/yaml.v3"
)

// Data sources understood by the trainer.
const (
	SourceXOR       = "xor"
	SourceCSV       = "csv"
	SourceIDX       = "idx"
	SourceSynthetic = "synthetic"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	Network  Network  `yaml:"network"`
	Training Training `yaml:"training"`
	Data     Data     `yaml:"data"`
	Output   Output   `yaml:"output"`
}

// Network sizes the perceptron. Zero Inputs or Outputs are inferred from
// the training data.
type Network struct {
	Inputs           int    `yaml:"inputs"`
	Hidden           int    `yaml:"hidden"`
	Outputs          int    `yaml:"outputs"`
	HiddenActivation string `yaml:"hidden_activation"`
	OutputActivation string `yaml:"output_activation"`
}

// Training controls the update loop and evaluation cadence.
type Training struct {
	LearningRate float64 `yaml:"learning_rate"`
	Epochs       int     `yaml:"epochs"`
	Seed         uint64  `yaml:"seed"`
	LogEvery     int     `yaml:"log_every"`

	// Checkpoints lists explicit evaluation steps; CheckpointEvery sets a
	// uniform interval instead. Neither set selects the default schedule.
	Checkpoints     []int `yaml:"checkpoints,omitempty"`
	CheckpointEvery int   `yaml:"checkpoint_every"`

	Workers int `yaml:"workers"` // held-out inference workers; 0 uses GOMAXPROCS
}

// Data selects the training and held-out samples.
type Data struct {
	Source     string  `yaml:"source"`
	Path       string  `yaml:"path"`
	TestPath   string  `yaml:"test_path"`
	Header     bool    `yaml:"header"`
	Scale      float64 `yaml:"scale"`
	MaxSamples int     `yaml:"max_samples"`
	TestRatio  float64 `yaml:"test_ratio"`
	PerClass   int     `yaml:"per_class"`
}

// Output locates the evaluation files.
type Output struct {
	Dir string `yaml:"dir"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	DataPath     string
	Epochs       int
	LearningRate float64
	Seed         uint64
	OutputDir    string
	LogEvery     int
}

// Default returns a validated config for the XOR demo.
func Default() *Config {
	return &Config{
		Network: Network{
			Inputs:           2,
			Hidden:           2,
			Outputs:          1,
			HiddenActivation: activation.NameTanh,
			OutputActivation: activation.NameSigmoid,
		},
		Training: Training{LearningRate: 0.1, Epochs: 10000, LogEvery: 100},
		Data:     Data{Source: SourceXOR, PerClass: 20},
		Output:   Output{Dir: "runs"},
	}
}

// Load reads and validates a Config from YAML.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes YAML without validating. Unknown keys are an error.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataPath != "" {
		c.Data.Path = o.DataPath
	}
	if o.Epochs > 0 {
		c.Training.Epochs = o.Epochs
	}
	if o.LearningRate > 0 {
		c.Training.LearningRate = o.LearningRate
	}
	if o.Seed != 0 {
		c.Training.Seed = o.Seed
	}
	if o.OutputDir != "" {
		c.Output.Dir = o.OutputDir
	}
	if o.LogEvery > 0 {
		c.Training.LogEvery = o.LogEvery
	}
}

// Validate verifies the config is runnable and fills defaults.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Network.Inputs < 0 {
		return fmt.Errorf("network.inputs must be >= 0 (got %d)", c.Network.Inputs)
	}
	if c.Network.Hidden <= 0 {
		return fmt.Errorf("network.hidden must be > 0 (got %d)", c.Network.Hidden)
	}
	if c.Network.Outputs < 0 {
		return fmt.Errorf("network.outputs must be >= 0 (got %d)", c.Network.Outputs)
	}
	if c.Network.HiddenActivation == "" {
		c.Network.HiddenActivation = activation.NameTanh
	}
	if c.Network.OutputActivation == "" {
		c.Network.OutputActivation = activation.NameSigmoid
	}
	if _, err := activation.Hidden(c.Network.HiddenActivation); err != nil {
		return fmt.Errorf("network.hidden_activation: %w", err)
	}
	if _, err := activation.Output(c.Network.OutputActivation); err != nil {
		return fmt.Errorf("network.output_activation: %w", err)
	}

	if c.Training.LearningRate < 0 {
		return fmt.Errorf("training.learning_rate must be > 0 (got %v)", c.Training.LearningRate)
	}
	if c.Training.LearningRate == 0 {
		c.Training.LearningRate = 0.1
	}
	if c.Training.Epochs < 0 {
		return fmt.Errorf("training.epochs must be > 0 (got %d)", c.Training.Epochs)
	}
	if c.Training.Epochs == 0 {
		c.Training.Epochs = 10000
	}
	if c.Training.LogEvery <= 0 {
		c.Training.LogEvery = 100
	}
	if len(c.Training.Checkpoints) > 0 && c.Training.CheckpointEvery > 0 {
		return errors.New("training.checkpoints and training.checkpoint_every are mutually exclusive")
	}
	if c.Training.CheckpointEvery < 0 {
		return fmt.Errorf("training.checkpoint_every must be > 0 (got %d)", c.Training.CheckpointEvery)
	}
	if c.Training.Workers < 0 {
		return fmt.Errorf("training.workers must be >= 0 (got %d)", c.Training.Workers)
	}

	switch c.Data.Source {
	case "":
		c.Data.Source = SourceXOR
	case SourceXOR, SourceSynthetic:
	case SourceCSV, SourceIDX:
		if c.Data.Path == "" {
			return fmt.Errorf("data.path is required for source %q", c.Data.Source)
		}
	default:
		return fmt.Errorf("data.source must be one of xor, csv, idx, synthetic (got %q)", c.Data.Source)
	}
	if c.Data.MaxSamples < 0 {
		return fmt.Errorf("data.max_samples must be >= 0 (got %d)", c.Data.MaxSamples)
	}
	if c.Data.TestRatio < 0 || c.Data.TestRatio >= 1 {
		return fmt.Errorf("data.test_ratio must be in [0, 1) (got %v)", c.Data.TestRatio)
	}
	splits := c.Data.Source == SourceSynthetic || (c.Data.Source == SourceCSV && c.Data.TestPath == "")
	if splits && c.Data.TestRatio == 0 {
		c.Data.TestRatio = 0.2
	}
	if c.Data.PerClass <= 0 {
		c.Data.PerClass = 20
	}

	if c.Output.Dir == "" {
		c.Output.Dir = "runs"
	}
	return nil
}
