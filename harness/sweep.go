package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/weiihann/fhebench/catalog"
)

// Sink persists the report of one case and returns where it went.
type Sink interface {
	Write(res *Result) (string, error)
}

// SweepConfig holds the operand and budget settings shared by every case
// of a sweep.
type SweepConfig struct {
	ClearA  uint64
	ClearB  uint64
	Timeout time.Duration
	Repeats int
	Verify  bool
}

// Failure identifies a failed case in a Summary.
type Failure struct {
	Case  catalog.Case `json:"case"`
	Kind  string       `json:"kind"`
	Error string       `json:"error"`
}

// String formats the failure as "u8/add: range: ...".
func (f Failure) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Case, f.Kind, f.Error)
}

// Summary is the outcome of a whole sweep.
type Summary struct {
	RunID    string        `json:"run_id"`
	Backend  string        `json:"backend"`
	Started  time.Time     `json:"started"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Results  []Result      `json:"results"`
	Failures []Failure     `json:"failures"`
}

// Succeeded returns the number of cases that completed and were written.
func (s *Summary) Succeeded() int {
	return len(s.Results) - len(s.Failures)
}

// Failed returns the number of failed cases.
func (s *Summary) Failed() int {
	return len(s.Failures)
}

// Sweep runs every case in order, writes each report to sink and keeps
// going after failures. Each case gets fresh keys; nothing carries over.
func Sweep(
	ctx context.Context,
	logger *slog.Logger,
	runner *Runner,
	cases []catalog.Case,
	cfg SweepConfig,
	sink Sink,
) *Summary {
	summary := &Summary{
		RunID:    uuid.New().String(),
		Backend:  runner.Backend.Name(),
		Started:  time.Now(),
		Results:  make([]Result, 0, len(cases)),
		Failures: make([]Failure, 0),
	}

	logger = logger.With(slog.String("run_id", summary.RunID))

	logger.InfoContext(ctx, "starting sweep",
		slog.String("backend", summary.Backend),
		slog.Int("cases", len(cases)),
	)

	for _, c := range cases {
		var res *Result

		if err := ctx.Err(); err != nil {
			res = &Result{
				Backend: summary.Backend,
				Case:    c,
				ClearA:  cfg.ClearA,
				ClearB:  cfg.ClearB,
			}
			res.fail(fmt.Errorf("%s: case skipped: %w", c, err))
		} else {
			res, _ = runner.Run(ctx, RunConfig{
				Case:    c,
				ClearA:  cfg.ClearA,
				ClearB:  cfg.ClearB,
				Timeout: cfg.Timeout,
				Repeats: cfg.Repeats,
				Verify:  cfg.Verify,
			})

			path, err := sink.Write(res)
			if err != nil {
				logger.ErrorContext(ctx, "failed to write report",
					slog.String("case", c.String()),
					slog.String("error", err.Error()),
				)

				res.fail(joinFailure(res.Err, err))
			}

			res.Path = path
		}

		summary.Results = append(summary.Results, *res)

		if res.Err != nil {
			summary.Failures = append(summary.Failures, Failure{
				Case:  c,
				Kind:  res.ErrorKind,
				Error: res.Error,
			})
		}
	}

	summary.Elapsed = time.Since(summary.Started)

	logger.InfoContext(ctx, "sweep complete",
		slog.Int("succeeded", summary.Succeeded()),
		slog.Int("failed", summary.Failed()),
		slog.Duration("elapsed", summary.Elapsed),
	)

	return summary
}

func joinFailure(caseErr, writeErr error) error {
	if !errors.Is(writeErr, ErrIO) {
		writeErr = fmt.Errorf("%w: %w", ErrIO, writeErr)
	}

	if caseErr == nil {
		return writeErr
	}

	return errors.Join(caseErr, writeErr)
}
