// Package main provides the dropnet CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/born-ml/dropnet/internal/config"
	"github.com/born-ml/dropnet/internal/dataset"
	"github.com/born-ml/dropnet/internal/metrics"
	"github.com/born-ml/dropnet/internal/mlp"
	"github.com/born-ml/dropnet/internal/trainer"
)

const version = "v0.1.0-dev"

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		log.Fatalf("dropnet: %v", err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return nil
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(out, "dropnet %s\n", version)
		return nil
	case "xor":
		return runXOR(ctx, args[1:], out)
	case "train":
		return runTrain(ctx, args[1:], out)
	case "help", "-h", "--help":
		usage(out)
		return nil
	}

	fmt.Fprintf(out, "unknown command %q\n\n", args[0])
	usage(out)
	return errUsage
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "dropnet - dropout-trained multilayer perceptron")
	fmt.Fprintf(out, "Version: %s\n\n", version)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  version    Show version")
	fmt.Fprintln(out, "  xor        Train the 2-2-1 network on XOR and print its predictions")
	fmt.Fprintln(out, "  train      Run a training session described by a YAML config")
}

// parseFlags reports whether the subcommand should run. A help request
// prints the flag defaults and stops without error.
func parseFlags(fs *flag.FlagSet, args []string) (bool, error) {
	err := fs.Parse(args)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, flag.ErrHelp):
		return false, nil
	default:
		return false, errUsage
	}
}

// runXOR trains a 2-2-1 tanh/sigmoid network on the XOR table.
func runXOR(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("xor", flag.ContinueOnError)
	fs.SetOutput(out)
	epochs := fs.Int("epochs", 10000, "Number of training steps")
	lr := fs.Float64("lr", 0.1, "Learning rate")
	seed := fs.Uint64("seed", 1, "PRNG seed")
	hidden := fs.Int("hidden", 2, "Hidden units")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	data := dataset.XOR()
	targets, err := dataset.Targets(data.Labels, 1)
	if err != nil {
		return err
	}

	var fscore metrics.Recorder
	net, err := mlp.New(mlp.Config{
		Inputs: 2, Hidden: *hidden, Outputs: 1,
		HiddenActivation: "tanh", OutputActivation: "sigmoid",
		Sinks:    mlp.Sinks{FScore: &fscore},
		Seed:     *seed,
		LogEvery: -1,
	})
	if err != nil {
		return err
	}

	err = net.FitContext(ctx, data.X, targets, mlp.FitOptions{
		LearningRate: *lr,
		Epochs:       *epochs,
		TestX:        data.X,
		TestY:        data.Labels,
	})
	if err != nil {
		return err
	}

	for i, x := range data.X {
		y, err := net.Predict(x)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%v -> %.4f (want %d)\n", x, y[0], data.Labels[i])
	}
	acc, err := net.Accuracy()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "accuracy=%.2f checkpoints=%d\n", acc, len(fscore.Rows))
	return nil
}

// runTrain loads a config, applies flag overrides and runs the trainer.
func runTrain(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(out)
	cfgPath := fs.String("config", "", "Path to YAML config (default: XOR demo)")
	dataPath := fs.String("data", "", "Override data.path")
	epochs := fs.Int("epochs", 0, "Override training.epochs")
	lr := fs.Float64("lr", 0, "Override training.learning_rate")
	seed := fs.Uint64("seed", 0, "Override training.seed")
	outDir := fs.String("out", "", "Override output.dir")
	logEvery := fs.Int("log-every", 0, "Override training.log_every")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	cfg.ApplyOverrides(config.Overrides{
		DataPath:     *dataPath,
		Epochs:       *epochs,
		LearningRate: *lr,
		Seed:         *seed,
		OutputDir:    *outDir,
		LogEvery:     *logEvery,
	})

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	res, err := trainer.Run(ctx, cfg, trainer.Options{Logger: log.New(out, "", log.LstdFlags)})
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	fmt.Fprintf(out, "run=%s dir=%s accuracy=%.4f\n", res.RunID, res.Dir, res.Accuracy)
	return nil
}
