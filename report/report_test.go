package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/weiihann/fhebench/catalog"
	"github.com/weiihann/fhebench/harness"
)

func completeResult(c catalog.Case, total time.Duration) harness.Result {
	return harness.Result{
		Backend: "plain",
		Case:    c,
		ClearA:  1,
		ClearB:  1,
		Output:  c.Operation.Apply(1, 1, c.Width),
		Repeats: 1,
		Timings: []harness.Timing{
			{Phase: harness.PhaseKeyGeneration, Duration: 3 * time.Millisecond},
			{Phase: harness.PhaseEncryptA, Duration: 200 * time.Microsecond},
			{Phase: harness.PhaseEncryptB, Duration: 150 * time.Microsecond},
			{Phase: harness.PhaseOperation, Duration: 2 * time.Millisecond},
			{Phase: harness.PhaseDecrypt, Duration: 50 * time.Microsecond},
		},
		Total: total,
	}
}

func TestGenerate(t *testing.T) {
	summary := &harness.Summary{
		RunID:   "run-1",
		Backend: "plain",
		Elapsed: 2 * time.Second,
		Results: []harness.Result{
			completeResult(catalog.Case{Width: catalog.Width8, Operation: catalog.Add}, 10*time.Millisecond),
			completeResult(catalog.Case{Width: catalog.Width16, Operation: catalog.Add}, 20*time.Millisecond),
		},
	}

	var buf bytes.Buffer
	if err := Generate(&buf, summary); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	output := buf.String()

	for _, want := range []string{"u8/add", "u16/add", "2.00x", "Failures: **none**", "2/2 cases"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestGenerateFailures(t *testing.T) {
	failed := harness.Result{
		Backend:   "plain",
		Case:      catalog.Case{Width: catalog.Width8, Operation: catalog.Mul},
		ErrorKind: "range",
		Error:     "operand 300 does not fit in u8 (max 255)",
	}

	summary := &harness.Summary{
		Backend: "plain",
		Results: []harness.Result{
			completeResult(catalog.Case{Width: catalog.Width8, Operation: catalog.Add}, time.Millisecond),
			failed,
		},
		Failures: []harness.Failure{
			{Case: failed.Case, Kind: failed.ErrorKind, Error: failed.Error},
		},
	}

	var buf bytes.Buffer
	if err := Generate(&buf, summary); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Failures: **1**") {
		t.Error("expected failure count")
	}
	if !strings.Contains(output, "u8/mul: range: operand 300") {
		t.Errorf("expected failure line, got:\n%s", output)
	}
}

func TestGenerateEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(&buf, &harness.Summary{}); err == nil {
		t.Error("expected error for empty results")
	}
}

func TestGenerateJSON(t *testing.T) {
	summary := &harness.Summary{
		RunID:   "run-1",
		Backend: "bgv",
		Results: []harness.Result{
			completeResult(catalog.Case{Width: catalog.Width32, Operation: catalog.Sub}, time.Second),
		},
	}

	var buf bytes.Buffer
	if err := GenerateJSON(&buf, summary); err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}

	var parsed harness.Summary
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if len(parsed.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(parsed.Results))
	}
	if parsed.Results[0].Case != summary.Results[0].Case {
		t.Errorf("case = %+v", parsed.Results[0].Case)
	}
	if parsed.Results[0].Total != time.Second {
		t.Errorf("total = %s, want 1s", parsed.Results[0].Total)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input time.Duration
		want  string
	}{
		{0, "0s"},
		{500 * time.Nanosecond, "0.5µs"},
		{250 * time.Microsecond, "250.0µs"},
		{1500 * time.Microsecond, "1.50ms"},
		{999 * time.Millisecond, "999.00ms"},
		{1500 * time.Millisecond, "1.50s"},
	}

	for _, tt := range tests {
		got := formatDuration(tt.input)
		if got != tt.want {
			t.Errorf("formatDuration(%s) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
