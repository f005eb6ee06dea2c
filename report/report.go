// Package report writes per-case benchmark files and formats sweep
// summaries into comparison tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/weiihann/fhebench/harness"
)

// Generate writes a markdown summary table for the given sweep.
func Generate(w io.Writer, summary *harness.Summary) error {
	if summary == nil || len(summary.Results) == 0 {
		return fmt.Errorf("no results to report")
	}

	fastest := findFastest(summary.Results)

	// Header.
	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Backend: **%s**, run `%s`, %d/%d cases succeeded in %s\n",
		summary.Backend, summary.RunID,
		summary.Succeeded(), len(summary.Results),
		formatDuration(summary.Elapsed))
	fmt.Fprintln(w)

	// Table header.
	fmt.Fprintln(w, "| Case | Keygen | Encrypt A | Encrypt B | Op "+
		"| Decrypt | Total | Output | Relative |")
	fmt.Fprintln(w, "|------|--------|-----------|-----------|----"+
		"|---------|-------|--------|----------|")

	for i := range summary.Results {
		r := &summary.Results[i]

		relative := "-"
		if r.Succeeded() && fastest > 0 {
			relative = fmt.Sprintf("%.2fx", float64(r.Total)/float64(fastest))
		}

		output := "-"
		if r.Succeeded() {
			output = fmt.Sprintf("%d", r.Output)
		}

		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			r.Case,
			phaseCell(r, harness.PhaseKeyGeneration),
			phaseCell(r, harness.PhaseEncryptA),
			phaseCell(r, harness.PhaseEncryptB),
			phaseCell(r, harness.PhaseOperation),
			phaseCell(r, harness.PhaseDecrypt),
			formatDuration(r.Total),
			output,
			relative,
		)
	}

	fmt.Fprintln(w)

	// Failures.
	if summary.Failed() == 0 {
		fmt.Fprintln(w, "Failures: **none**")

		return nil
	}

	fmt.Fprintf(w, "Failures: **%d**\n", summary.Failed())

	for _, f := range summary.Failures {
		fmt.Fprintf(w, "  - %s\n", f)
	}

	return nil
}

// GenerateJSON writes the sweep summary as JSON to w.
func GenerateJSON(w io.Writer, summary *harness.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(summary)
}

func phaseCell(r *harness.Result, p harness.Phase) string {
	d, ok := r.Duration(p)
	if !ok {
		return "-"
	}

	return formatDuration(d)
}

func findFastest(results []harness.Result) time.Duration {
	fastest := time.Duration(math.MaxInt64)
	for i := range results {
		r := &results[i]
		if r.Succeeded() && r.Total > 0 && r.Total < fastest {
			fastest = r.Total
		}
	}

	if fastest == math.MaxInt64 {
		return 0
	}

	return fastest
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Millisecond:
		return fmt.Sprintf("%.1fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
