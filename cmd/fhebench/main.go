// Package main provides the CLI entry point for fhebench, a micro-benchmark
// tool for homomorphic integer arithmetic.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/weiihann/fhebench/backend"
	"github.com/weiihann/fhebench/catalog"
	"github.com/weiihann/fhebench/harness"
	"github.com/weiihann/fhebench/report"
)

// maxExitCode keeps failure counts clear of shell-reserved codes.
const maxExitCode = 125

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	os.Exit(exitCode(root.Execute()))
}

// failedCasesError reports a sweep that finished with failed cases.
type failedCasesError struct {
	failed int
}

func (e *failedCasesError) Error() string {
	return fmt.Sprintf("%d benchmark case(s) failed", e.failed)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var failed *failedCasesError
	if errors.As(err, &failed) {
		return min(failed.failed, maxExitCode)
	}

	fmt.Fprintln(os.Stderr, "Error:", err)

	return 1
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "fhebench",
		Short: "Homomorphic integer arithmetic benchmarking tool",
		Long: `Fhebench times key generation, encryption, one homomorphic operation
and decryption for every (operation, width) pair of the catalog and writes one
report file per case.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(newRunCmd(stdout, stderr))
	root.AddCommand(newCasesCmd(stdout))

	return root
}

type runConfig struct {
	backend   string
	clearA    uint64
	clearB    uint64
	outputDir string
	ops       []string
	widths    []string
	timeout   time.Duration
	repeats   int
	verify    bool
	json      bool
	logLevel  string
}

func newRunCmd(stdout, stderr io.Writer) *cobra.Command {
	var cfg runConfig

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark sweep against one backend",
		Long: `Run every selected case with fresh keys, write
<output-dir>/benchmark_<width>_<op>.txt per case and print a summary.
The exit code is the number of failed cases.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(stderr, cfg.logLevel)
			if err != nil {
				return err
			}

			return runBenchmark(cmd.Context(), logger, stdout, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.backend, "backend", "bgv",
		"Backend to benchmark: "+strings.Join(backend.KnownBackends(), ", "))
	flags.Uint64Var(&cfg.clearA, "clear-a", 1,
		"First clear operand")
	flags.Uint64Var(&cfg.clearB, "clear-b", 1,
		"Second clear operand")
	flags.StringVar(&cfg.outputDir, "output-dir", report.DefaultDir,
		"Directory for per-case report files")
	flags.StringSliceVar(&cfg.ops, "ops", nil,
		"Operations to run (default: add,sub,mul)")
	flags.StringSliceVar(&cfg.widths, "widths", nil,
		"Widths to run (default: 8,16,32,64)")
	flags.DurationVar(&cfg.timeout, "timeout", 0,
		"Per-case time budget (0 = unlimited)")
	flags.IntVar(&cfg.repeats, "repeats", 1,
		"Measured runs per case, averaged")
	flags.BoolVar(&cfg.verify, "verify", true,
		"Fail a case whose decrypted output differs from the clear result")
	flags.BoolVar(&cfg.json, "json", false,
		"Output results as JSON instead of table")
	flags.StringVar(&cfg.logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")

	return cmd
}

func newCasesCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "cases",
		Short: "List the benchmark cases in execution order",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			for _, c := range catalog.Cases() {
				if _, err := fmt.Fprintln(stdout, c); err != nil {
					return err
				}
			}

			return nil
		},
	}
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, &catalog.ConfigurationError{Value: level, What: "log level"}
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
	})), nil
}

func selectCases(ops, widths []string) ([]catalog.Case, error) {
	var (
		parsedOps    []catalog.Operation
		parsedWidths []catalog.Width
	)

	for _, s := range ops {
		op, err := catalog.ParseOperation(s)
		if err != nil {
			return nil, err
		}

		parsedOps = append(parsedOps, op)
	}

	for _, s := range widths {
		w, err := catalog.ParseWidth(s)
		if err != nil {
			return nil, err
		}

		parsedWidths = append(parsedWidths, w)
	}

	return catalog.Select(parsedOps, parsedWidths), nil
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	stdout io.Writer,
	cfg runConfig,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cases, err := selectCases(cfg.ops, cfg.widths)
	if err != nil {
		return fmt.Errorf("select cases: %w", err)
	}

	if cfg.repeats < 1 {
		return &catalog.ConfigurationError{
			Value: fmt.Sprint(cfg.repeats), What: "repeat count",
		}
	}

	b, err := backend.New(cfg.backend)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting benchmark",
		slog.String("backend", b.Name()),
		slog.Uint64("clear_a", cfg.clearA),
		slog.Uint64("clear_b", cfg.clearB),
		slog.Int("cases", len(cases)),
		slog.String("output_dir", cfg.outputDir),
	)

	summary := harness.Sweep(ctx, logger,
		harness.NewRunner(b, logger),
		cases,
		harness.SweepConfig{
			ClearA:  cfg.clearA,
			ClearB:  cfg.clearB,
			Timeout: cfg.timeout,
			Repeats: cfg.repeats,
			Verify:  cfg.verify,
		},
		report.NewWriter(cfg.outputDir),
	)

	if cfg.json {
		if err := report.GenerateJSON(stdout, summary); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else {
		if err := report.Generate(stdout, summary); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	if summary.Failed() > 0 {
		return &failedCasesError{failed: summary.Failed()}
	}

	logger.InfoContext(ctx, "benchmark complete")

	return nil
}
