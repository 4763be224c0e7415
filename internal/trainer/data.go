package trainer

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/dropnet/internal/config"
	"github.com/born-ml/dropnet/internal/dataset"
)

// loadData resolves the configured source into a training set and a
// held-out set.
func loadData(cfg config.Data, rng *rand.Rand) (train, test *dataset.Dataset, err error) {
	switch cfg.Source {
	case config.SourceXOR:
		// Four rows leave nothing to hold out; the demo scores the table itself.
		d := dataset.XOR()
		return d, d, nil

	case config.SourceSynthetic:
		d, err := dataset.SyntheticDigits(cfg.PerClass, rng)
		if err != nil {
			return nil, nil, err
		}
		d.Limit(cfg.MaxSamples)
		return dataset.Split(d, cfg.TestRatio, rng)

	case config.SourceCSV:
		opts := dataset.CSVOptions{Header: cfg.Header, Scale: cfg.Scale, MaxSamples: cfg.MaxSamples}
		d, err := dataset.LoadCSV(cfg.Path, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", cfg.Path, err)
		}
		if cfg.TestPath == "" {
			return dataset.Split(d, cfg.TestRatio, rng)
		}
		test, err := dataset.LoadCSV(cfg.TestPath, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", cfg.TestPath, err)
		}
		return d, test, nil

	case config.SourceIDX:
		d, err := dataset.LoadIDX(cfg.Path, true, cfg.MaxSamples)
		if err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", cfg.Path, err)
		}
		if cfg.TestRatio > 0 {
			return dataset.Split(d, cfg.TestRatio, rng)
		}
		test, err := dataset.LoadIDX(cfg.Path, false, cfg.MaxSamples)
		if err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", cfg.Path, err)
		}
		return d, test, nil
	}
	return nil, nil, fmt.Errorf("unknown data source %q", cfg.Source)
}

// inferSizes fills zero input and output counts from the data.
func inferSizes(cfg config.Network, train, test *dataset.Dataset) (inputs, outputs int, err error) {
	inputs = cfg.Inputs
	if inputs == 0 {
		inputs = train.Features()
	}
	if inputs != train.Features() {
		return 0, 0, fmt.Errorf("network.inputs is %d but samples have %d features", inputs, train.Features())
	}

	outputs = cfg.Outputs
	if outputs == 0 {
		maxLabel := 0
		for _, d := range []*dataset.Dataset{train, test} {
			for _, l := range d.Labels {
				maxLabel = max(maxLabel, l)
			}
		}
		outputs = max(maxLabel+1, 2)
	}

	// A single output unit still separates labels 0 and 1.
	classes := max(outputs, 2)
	for _, set := range []struct {
		name string
		d    *dataset.Dataset
	}{{"train", train}, {"test", test}} {
		for i, l := range set.d.Labels {
			if l < 0 || l >= classes {
				return 0, 0, fmt.Errorf("%s label %d at row %d is outside network.outputs %d", set.name, l, i, outputs)
			}
		}
	}
	return inputs, outputs, nil
}
