// Command bo minimizes benchmark functions with Bayesian optimization.
//
// Usage:
//
//	bo run --function branin --warmup 30 --iterations 50 --seed 7
//	bo run --config run.yaml --snapshot snapshots.jsonl
//	bo run --metrics-addr :9090 --log-level debug
//	bo functions
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thalesfsp/bo"
	"github.com/thalesfsp/bo/internal/telemetry"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "bo",
		Short:        "Bayesian optimization of benchmark functions",
		SilenceUsage: true,
	}

	root.AddCommand(newRunCommand(), newFunctionsCommand())

	return root
}

func newFunctionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the available test functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			for _, name := range functionNames() {
				fn := testFunctions[name]

				line := fmt.Sprintf("%-12s %dD  %v", fn.name, fn.dim, fn.ranges)
				if m, ok := fn.globalMinimum(fn.dim); ok {
					line += fmt.Sprintf("  min %g", m)
				}

				fmt.Fprintf(out, "%s  %s\n", line, fn.description)
			}

			return nil
		},
	}
}

func newRunCommand() *cobra.Command {
	var configPath string

	defaults := defaultRunConfig()
	flagged := defaults

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Minimize a test function",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := defaults

			if configPath != "" {
				var err error

				cfg, err = loadRunConfig(configPath, cfg)
				if err != nil {
					return err
				}
			}

			applyFlags(cmd.Flags(), &cfg, flagged)

			if err := cfg.Validate(); err != nil {
				return err
			}

			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML configuration file")
	f.StringVar(&flagged.Function, "function", defaults.Function, "test function (see 'bo functions')")
	f.IntVar(&flagged.Warmup, "warmup", defaults.Warmup, "number of uniformly random samples")
	f.IntVar(&flagged.Iterations, "iterations", defaults.Iterations, "number of acquisition-driven samples")
	f.IntVar(&flagged.Gradient.MaxSteps, "gradient-steps", defaults.Gradient.MaxSteps, "gradient steps per iteration")
	f.Float64Var(&flagged.Gradient.Rate, "gradient-rate", defaults.Gradient.Rate, "gradient step size")
	f.Float64Var(&flagged.Gradient.Eps, "gradient-eps", defaults.Gradient.Eps, "gradient convergence threshold")
	f.Float64Var(&flagged.Bandwidth, "bandwidth", defaults.Bandwidth, "radial kernel bandwidth")
	f.Float64Var(&flagged.Noise, "noise", defaults.Noise, "observation noise standard deviation")
	f.Uint64Var(&flagged.Seed, "seed", defaults.Seed, "random seed, 0 for time-based")
	f.StringVar(&flagged.Acquisition, "acquisition", defaults.Acquisition, "acquisition function: ei, pi or lcb")
	f.StringVar(&flagged.Snapshot.Path, "snapshot", defaults.Snapshot.Path, "write JSON Lines snapshots to this file")
	f.StringVar(&flagged.MetricsAddr, "metrics-addr", defaults.MetricsAddr, "serve Prometheus metrics on this address")
	f.StringVar(&flagged.LogLevel, "log-level", defaults.LogLevel, "log level: debug, info, warn or error")
	f.BoolVar(&flagged.Progress, "progress", defaults.Progress, "print progress to stderr")

	return cmd
}

// applyFlags copies the explicitly set flags from flagged into cfg.
func applyFlags(fs *pflag.FlagSet, cfg *runConfig, flagged runConfig) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "function":
			cfg.Function = flagged.Function
		case "warmup":
			cfg.Warmup = flagged.Warmup
		case "iterations":
			cfg.Iterations = flagged.Iterations
		case "gradient-steps":
			cfg.Gradient.MaxSteps = flagged.Gradient.MaxSteps
		case "gradient-rate":
			cfg.Gradient.Rate = flagged.Gradient.Rate
		case "gradient-eps":
			cfg.Gradient.Eps = flagged.Gradient.Eps
		case "bandwidth":
			cfg.Bandwidth = flagged.Bandwidth
		case "noise":
			cfg.Noise = flagged.Noise
		case "seed":
			cfg.Seed = flagged.Seed
		case "acquisition":
			cfg.Acquisition = flagged.Acquisition
		case "snapshot":
			cfg.Snapshot.Path = flagged.Snapshot.Path
		case "metrics-addr":
			cfg.MetricsAddr = flagged.MetricsAddr
		case "log-level":
			cfg.LogLevel = flagged.LogLevel
		case "progress":
			cfg.Progress = flagged.Progress
		}
	})
}

// run wires observers around the optimizer and prints the result.
func run(ctx context.Context, stdout, stderr io.Writer, cfg runConfig) (err error) {
	level, _ := cfg.level()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	fn, _ := lookupFunction(cfg.Function)
	ranges := cfg.ranges()

	config := cfg.optimizerConfig()
	config.Logger = logger

	if cfg.Snapshot.Path != "" {
		f, createErr := os.Create(cfg.Snapshot.Path)
		if createErr != nil {
			return fmt.Errorf("create snapshot file: %w", createErr)
		}

		sw, swErr := bo.NewSnapshotWriter(f, cfg.Snapshot.Grid)
		if swErr != nil {
			f.Close()

			return swErr
		}

		config.Observers = append(config.Observers, sw)

		defer func() {
			err = errors.Join(err, finishSnapshot(f, sw, logger))
		}()
	}

	if cfg.MetricsAddr != "" {
		stop, err := serveMetrics(ctx, cfg.MetricsAddr, logger, &config)
		if err != nil {
			return err
		}
		defer stop()
	}

	if cfg.Progress {
		progress := make(chan bo.ProgressUpdate[float64], 64)
		config.ProgressChan = progress

		var wg sync.WaitGroup
		wg.Add(1)

		go func() {
			defer wg.Done()

			for u := range progress {
				fmt.Fprintf(stderr, "%-12s %3d/%-3d y=%-12.6g best=%.6g\n",
					u.Phase, u.CurrentIteration, u.TotalIterations, u.LastValue, u.CurrentBestValue)
			}
		}()

		defer wg.Wait()
		defer close(progress)
	}

	logger.Info("starting optimization",
		slog.String("function", fn.name),
		slog.Any("ranges", ranges),
		slog.Int("warmup", cfg.Warmup),
		slog.Int("iterations", cfg.Iterations),
		slog.String("acquisition", cfg.Acquisition),
	)

	best, err := bo.Minimize(config, fn.objective, ranges...)
	if err != nil {
		return fmt.Errorf("minimize %s: %w", fn.name, err)
	}

	fmt.Fprintf(stdout, "x_best: %v\ny_best: %g\n", best.X, best.Y)

	if m, ok := fn.globalMinimum(len(ranges)); ok {
		fmt.Fprintf(stdout, "gap:    %g\n", best.Y-m)
	}

	return nil
}

// errReporter is an observer that records its first failure, like
// bo.SnapshotWriter.
type errReporter interface {
	Err() error
}

// finishSnapshot closes the snapshot file and reports the first write error
// and the close error, each also logged.
func finishSnapshot(c io.Closer, sw errReporter, logger *slog.Logger) error {
	writeErr := sw.Err()
	if writeErr != nil {
		logger.Error("snapshot write failed", slog.String("error", writeErr.Error()))
	}

	closeErr := c.Close()
	if closeErr != nil {
		logger.Error("snapshot close failed", slog.String("error", closeErr.Error()))
		closeErr = fmt.Errorf("close snapshot file: %w", closeErr)
	}

	return errors.Join(writeErr, closeErr)
}

// serveMetrics registers a Prometheus observer on config and serves it on
// addr until the returned function is called.
func serveMetrics(ctx context.Context, addr string, logger *slog.Logger, config *bo.Config[float64]) (func(), error) {
	registry := prometheus.NewRegistry()

	tc := telemetry.DefaultConfig()
	tc.Registry = registry

	obs, err := telemetry.NewPrometheusObserver[float64](tc)
	if err != nil {
		return nil, err
	}

	config.Observers = append(config.Observers, obs)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()

	logger.Info("serving metrics", slog.String("addr", addr))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", slog.String("error", err.Error()))
		}

		obs.Close()
	}, nil
}
