// Package trainer runs one configured training session end to end: load
// data, build the network, fit with checkpoint evaluation written to CSV,
// and report held-out accuracy.
//
// Every run writes into its own directory under the configured output dir:
//
//	<output.dir>/<run id>/
//	    config.yaml     effective configuration
//	    precision.csv   per-class precision, one row per checkpoint
//	    recall.csv      per-class recall, one row per checkpoint
//	    fscore.csv      per-class F0.5, one row per checkpoint
package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"

	"github.com/born-ml/dropnet/internal/config"
	"github.com/born-ml/dropnet/internal/dataset"
	"github.com/born-ml/dropnet/internal/metrics"
	"github.com/born-ml/dropnet/internal/mlp"
	"github.com/born-ml/dropnet/internal/parallel"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// dataStream separates the data shuffling stream from the network's.
const dataStream = 0x5851f42d4c957f2d

// Options tunes a Run beyond the config file.
type Options struct {
	Logger *log.Logger // nil uses the standard logger
	RunID  string      // empty generates a random UUID
}

// Result summarizes a finished run.
type Result struct {
	RunID    string
	Dir      string
	Accuracy float64
	Classes  []int
	Reports  []metrics.Report
	Network  *mlp.Network
}

// Run executes the configured training session. cfg must be validated.
func Run(ctx context.Context, cfg *config.Config, opts Options) (res *Result, err error) {
	if cfg == nil {
		return nil, errors.New("trainer: config is nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	rng := rand.New(rand.NewPCG(cfg.Training.Seed, dataStream))
	train, test, err := loadData(cfg.Data, rng)
	if err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}
	logger.Printf("data source=%s train=%d test=%d features=%d", cfg.Data.Source, train.Len(), test.Len(), train.Features())

	inputs, outputs, err := inferSizes(cfg.Network, train, test)
	if err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}
	targets, err := dataset.Targets(train.Labels, outputs)
	if err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}

	schedule, err := buildSchedule(cfg.Training)
	if err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}

	dir := filepath.Join(cfg.Output.Dir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("trainer: create run dir: %w", err)
	}
	if err := writeConfig(filepath.Join(dir, "config.yaml"), cfg); err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}

	sinks, closeSinks, err := openSinks(dir)
	if err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}
	defer func() {
		if cerr := closeSinks(); cerr != nil && err == nil {
			err = fmt.Errorf("trainer: close sinks: %w", cerr)
		}
	}()

	workers := cfg.Training.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	net, err := mlp.New(mlp.Config{
		Inputs:           inputs,
		Hidden:           cfg.Network.Hidden,
		Outputs:          outputs,
		HiddenActivation: cfg.Network.HiddenActivation,
		OutputActivation: cfg.Network.OutputActivation,
		Sinks:            sinks,
		Schedule:         &schedule,
		Seed:             cfg.Training.Seed,
		Logger:           logger,
		LogEvery:         cfg.Training.LogEvery,
		Parallel: parallel.Config{
			Enabled:      true,
			NumWorkers:   workers,
			MinChunkSize: 64,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}

	logger.Printf("run id=%s dir=%s inputs=%d hidden=%d outputs=%d", runID, dir, inputs, cfg.Network.Hidden, outputs)

	err = net.FitContext(ctx, train.X, targets, mlp.FitOptions{
		LearningRate: cfg.Training.LearningRate,
		Epochs:       cfg.Training.Epochs,
		TestX:        test.X,
		TestY:        test.Labels,
	})
	if err != nil {
		return nil, fmt.Errorf("trainer: fit: %w", err)
	}

	acc, err := net.Accuracy()
	if err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}
	logger.Printf("done run=%s accuracy=%.4f", runID, acc)

	return &Result{
		RunID:    runID,
		Dir:      dir,
		Accuracy: acc,
		Classes:  net.Classes(),
		Reports:  net.History(),
		Network:  net,
	}, nil
}

func buildSchedule(cfg config.Training) (mlp.Schedule, error) {
	switch {
	case cfg.CheckpointEvery > 0:
		return mlp.Every(cfg.CheckpointEvery)
	case len(cfg.Checkpoints) > 0:
		return mlp.NewSchedule(cfg.Checkpoints...)
	default:
		return mlp.DefaultSchedule(), nil
	}
}

func writeConfig(path string, cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// openSinks creates one CSV file per metric in dir.
func openSinks(dir string) (mlp.Sinks, func() error, error) {
	var files []io.Closer
	closeAll := func() error {
		var errs []error
		for _, f := range files {
			errs = append(errs, f.Close())
		}
		return errors.Join(errs...)
	}

	open := func(name string) (*metrics.CSVSink, error) {
		f, err := os.Create(filepath.Join(dir, name+".csv"))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		return metrics.NewCSVSink(f), nil
	}

	var sinks mlp.Sinks
	var err error
	if sinks.Precision, err = open("precision"); err != nil {
		return mlp.Sinks{}, nil, errors.Join(err, closeAll())
	}
	if sinks.Recall, err = open("recall"); err != nil {
		return mlp.Sinks{}, nil, errors.Join(err, closeAll())
	}
	if sinks.FScore, err = open("fscore"); err != nil {
		return mlp.Sinks{}, nil, errors.Join(err, closeAll())
	}
	return sinks, closeAll, nil
}
