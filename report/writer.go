package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/weiihann/fhebench/harness"
)

// DefaultDir is the default report directory.
const DefaultDir = "benchmarks"

// Writer writes one text report per case into Dir.
type Writer struct {
	Dir string
}

// NewWriter creates a Writer for dir, falling back to DefaultDir.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = DefaultDir
	}

	return &Writer{Dir: dir}
}

// Path returns the report path of a case, e.g.
// benchmarks/benchmark_u8_add.txt.
func (w *Writer) Path(res *harness.Result) string {
	name := fmt.Sprintf("benchmark_%s_%s.txt",
		res.Case.Width, res.Case.Operation)

	return filepath.Join(w.Dir, name)
}

// Write creates or truncates the report file of res. Every failure is
// returned wrapped in harness.ErrIO.
func (w *Writer) Write(res *harness.Result) (string, error) {
	path := w.Path(res)

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create report dir %s: %w",
			harness.ErrIO, w.Dir, err)
	}

	if err := writeFile(path, res); err != nil {
		return "", fmt.Errorf("%w: write report %s: %w",
			harness.ErrIO, path, err)
	}

	return path, nil
}

func writeFile(path string, res *harness.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	buf := bufio.NewWriter(f)
	if err := Format(buf, res); err != nil {
		return err
	}

	return buf.Flush()
}

// Format writes the text report of res: one "Time to <phase>: <d>" line
// per measured phase, then "Total time: <d>", then a failure line if the
// case failed.
func Format(w io.Writer, res *harness.Result) error {
	for _, t := range res.Timings {
		if _, err := fmt.Fprintf(w, "Time to %s: %s\n",
			PhaseLabel(t.Phase, res), t.Duration); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Total time: %s\n", res.Total); err != nil {
		return err
	}

	if !res.Succeeded() {
		if _, err := fmt.Fprintf(w, "Failed (%s): %s\n",
			res.ErrorKind, res.Error); err != nil {
			return err
		}
	}

	return nil
}

// PhaseLabel returns the human label of a phase; the operation phase is
// labelled by the case's operation name.
func PhaseLabel(p harness.Phase, res *harness.Result) string {
	switch p {
	case harness.PhaseKeyGeneration:
		return "generate keys"
	case harness.PhaseEncryptA:
		return "encrypt a"
	case harness.PhaseEncryptB:
		return "encrypt b"
	case harness.PhaseOperation:
		return res.Case.Operation.String()
	case harness.PhaseDecrypt:
		return "decrypt"
	default:
		return string(p)
	}
}
