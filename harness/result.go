// Package harness drives homomorphic benchmark cases against a backend
// and sweeps the catalog, isolating failures per case.
package harness

import (
	"time"

	"github.com/weiihann/fhebench/catalog"
)

// Phase names one timed step of a benchmark case.
type Phase string

// Timed phases, in execution order.
const (
	PhaseKeyGeneration Phase = "key_generation"
	PhaseEncryptA      Phase = "encrypt_a"
	PhaseEncryptB      Phase = "encrypt_b"
	PhaseOperation     Phase = "operation"
	PhaseDecrypt       Phase = "decrypt"
	PhaseTotal         Phase = "total"
)

// Phases returns the timed phases in execution order, total excluded.
func Phases() []Phase {
	return []Phase{
		PhaseKeyGeneration,
		PhaseEncryptA,
		PhaseEncryptB,
		PhaseOperation,
		PhaseDecrypt,
	}
}

// Timing is one named duration measurement.
type Timing struct {
	Phase    Phase         `json:"phase"`
	Duration time.Duration `json:"duration_ns"`
	StdDev   time.Duration `json:"stddev_ns,omitempty"`
}

// Result holds the timing report of a single benchmark case. Timings
// lists the completed phases in order; a failed case keeps the phases it
// finished before the failure.
type Result struct {
	Backend   string        `json:"backend"`
	Case      catalog.Case  `json:"case"`
	ClearA    uint64        `json:"clear_a"`
	ClearB    uint64        `json:"clear_b"`
	Output    uint64        `json:"output"`
	Expected  uint64        `json:"expected"`
	Repeats   int           `json:"repeats"`
	Timings   []Timing      `json:"timings"`
	Total     time.Duration `json:"total_ns"`
	TotalDev  time.Duration `json:"total_stddev_ns,omitempty"`
	Path      string        `json:"path,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty"`
	Error     string        `json:"error,omitempty"`

	Err error `json:"-"`
}

// Succeeded reports whether the case completed without error.
func (r *Result) Succeeded() bool {
	return r.Err == nil && r.Error == ""
}

// Measurements returns the phase timings followed by the total. A
// completed case has exactly six entries.
func (r *Result) Measurements() []Timing {
	out := make([]Timing, 0, len(r.Timings)+1)
	out = append(out, r.Timings...)

	return append(out, Timing{
		Phase:    PhaseTotal,
		Duration: r.Total,
		StdDev:   r.TotalDev,
	})
}

// Duration returns the measured duration of phase p, if any.
func (r *Result) Duration(p Phase) (time.Duration, bool) {
	if p == PhaseTotal {
		return r.Total, true
	}

	for _, t := range r.Timings {
		if t.Phase == p {
			return t.Duration, true
		}
	}

	return 0, false
}

func (r *Result) fail(err error) {
	r.Err = err
	r.ErrorKind = Kind(err)
	r.Error = err.Error()
}
