package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/weiihann/fhebench/backend"
	"github.com/weiihann/fhebench/catalog"
)

// RunConfig holds parameters for a single benchmark case.
type RunConfig struct {
	Case    catalog.Case
	ClearA  uint64
	ClearB  uint64
	Timeout time.Duration
	Repeats int
	Verify  bool
}

// Runner times benchmark cases against one backend.
type Runner struct {
	Backend backend.Backend
	Logger  *slog.Logger
}

// NewRunner creates a Runner for the given backend.
func NewRunner(b backend.Backend, logger *slog.Logger) *Runner {
	return &Runner{
		Backend: b,
		Logger:  logger.With(slog.String("backend", b.Name())),
	}
}

// sample is one timed pass over all phases.
type sample struct {
	timings []Timing
	total   time.Duration
	output  uint64
}

func (s *sample) record(p Phase, start time.Time) {
	s.timings = append(s.timings, Timing{Phase: p, Duration: time.Since(start)})
}

// Run executes one case and returns its timing report. The returned
// Result is never nil; on failure it carries the error and the phases
// completed before it, and the same error is returned.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if cfg.Repeats < 1 {
		cfg.Repeats = 1
	}

	res := &Result{
		Backend:  r.Backend.Name(),
		Case:     cfg.Case,
		ClearA:   cfg.ClearA,
		ClearB:   cfg.ClearB,
		Expected: cfg.Case.Operation.Apply(cfg.ClearA, cfg.ClearB, cfg.Case.Width),
		Repeats:  cfg.Repeats,
	}

	logger := r.Logger.With(slog.String("case", cfg.Case.String()))

	// Operands are validated before any key material exists.
	if err := validate(cfg); err != nil {
		res.fail(err)
		logger.WarnContext(ctx, "case rejected", slog.String("error", err.Error()))

		return res, err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	logger.InfoContext(ctx, "starting case",
		slog.Uint64("clear_a", cfg.ClearA),
		slog.Uint64("clear_b", cfg.ClearB),
		slog.Int("repeats", cfg.Repeats),
	)

	samples := make([]sample, 0, cfg.Repeats)

	for i := 0; i < cfg.Repeats; i++ {
		s, err := r.runBounded(ctx, cfg)
		if err == nil && cfg.Verify && s.output != res.Expected {
			err = fmt.Errorf("%w: decrypted %d, want %d",
				ErrMismatch, s.output, res.Expected)
		}

		if err != nil {
			res.Timings = s.timings
			res.Total = s.total
			res.Output = s.output
			res.fail(fmt.Errorf("%s: %w", cfg.Case, err))

			logger.WarnContext(ctx, "case failed",
				slog.Int("repeat", i),
				slog.String("kind", res.ErrorKind),
				slog.String("error", err.Error()),
			)

			return res, res.Err
		}

		samples = append(samples, s)
	}

	aggregate(res, samples)

	logger.InfoContext(ctx, "case finished",
		slog.Duration("total", res.Total),
		slog.Uint64("output", res.Output),
	)

	return res, nil
}

func validate(cfg RunConfig) error {
	if err := cfg.Case.Validate(); err != nil {
		return err
	}

	if err := cfg.Case.Width.Check(cfg.ClearA); err != nil {
		return fmt.Errorf("%s: clear_a: %w", cfg.Case, err)
	}

	if err := cfg.Case.Width.Check(cfg.ClearB); err != nil {
		return fmt.Errorf("%s: clear_b: %w", cfg.Case, err)
	}

	return nil
}

// runBounded runs one pass, giving up when ctx ends. A backend call that
// never returns is abandoned together with its goroutine.
func (r *Runner) runBounded(ctx context.Context, cfg RunConfig) (sample, error) {
	if err := ctx.Err(); err != nil {
		return sample{}, contextError(err, cfg.Timeout)
	}

	type outcome struct {
		s   sample
		err error
	}

	done := make(chan outcome, 1)

	go func() {
		s, err := r.runOnce(cfg)
		done <- outcome{s: s, err: err}
	}()

	select {
	case out := <-done:
		return out.s, out.err
	case <-ctx.Done():
		return sample{}, contextError(ctx.Err(), cfg.Timeout)
	}
}

func contextError(err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}

	return fmt.Errorf("case aborted: %w", err)
}

// runOnce performs every phase in strict sequence. The evaluator holding
// the server key lives only for the duration of this call.
func (r *Runner) runOnce(cfg RunConfig) (s sample, err error) {
	w := cfg.Case.Width

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: panic: %v", backend.ErrBackendFatal, p)
		}
	}()

	totalStart := time.Now()
	defer func() { s.total = time.Since(totalStart) }()

	bcfg, err := r.Backend.Configure(w)
	if err != nil {
		return s, fmt.Errorf("configure %s: %w", w, err)
	}

	start := time.Now()
	keys, err := r.Backend.GenerateKeys(bcfg)
	if err != nil {
		return s, fmt.Errorf("generate keys: %w", asFatal(err))
	}
	s.record(PhaseKeyGeneration, start)

	eval, err := r.Backend.Install(keys.Server)
	if err != nil {
		return s, fmt.Errorf("install server key: %w", asFatal(err))
	}

	start = time.Now()
	ca, err := r.Backend.Encrypt(cfg.ClearA, w, keys.Client)
	if err != nil {
		return s, fmt.Errorf("encrypt a: %w", err)
	}
	s.record(PhaseEncryptA, start)

	start = time.Now()
	cb, err := r.Backend.Encrypt(cfg.ClearB, w, keys.Client)
	if err != nil {
		return s, fmt.Errorf("encrypt b: %w", err)
	}
	s.record(PhaseEncryptB, start)

	start = time.Now()
	out, err := eval.Apply(cfg.Case.Operation, ca, cb)
	if err != nil {
		return s, fmt.Errorf("%s: %w", cfg.Case.Operation, err)
	}
	s.record(PhaseOperation, start)

	start = time.Now()
	s.output, err = r.Backend.Decrypt(out, keys.Client)
	if err != nil {
		return s, fmt.Errorf("decrypt: %w", asFatal(err))
	}
	s.record(PhaseDecrypt, start)

	return s, nil
}

func asFatal(err error) error {
	if errors.Is(err, backend.ErrBackendFatal) {
		return err
	}

	return fmt.Errorf("%w: %w", backend.ErrBackendFatal, err)
}

// aggregate stores the per-phase means of the samples in res. The total
// is kept at or above the sum of the phases it brackets.
func aggregate(res *Result, samples []sample) {
	res.Output = samples[len(samples)-1].output
	res.Timings = make([]Timing, 0, len(Phases()))

	var sum time.Duration

	for i, p := range Phases() {
		values := make([]float64, len(samples))
		for j, s := range samples {
			values[j] = float64(s.timings[i].Duration)
		}

		mean, dev := meanStdDev(values)
		res.Timings = append(res.Timings, Timing{Phase: p, Duration: mean, StdDev: dev})
		sum += mean
	}

	totals := make([]float64, len(samples))
	for j, s := range samples {
		totals[j] = float64(s.total)
	}

	res.Total, res.TotalDev = meanStdDev(totals)
	if res.Total < sum {
		res.Total = sum
	}
}

func meanStdDev(values []float64) (time.Duration, time.Duration) {
	if len(values) == 1 {
		return time.Duration(values[0]), 0
	}

	mean, dev := stat.MeanStdDev(values, nil)

	return time.Duration(mean), time.Duration(dev)
}
