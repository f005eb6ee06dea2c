// Package catalog enumerates the benchmark cases of a sweep: every
// cleartext width crossed with every homomorphic operation.
package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Width is the bit width of an unsigned cleartext.
type Width uint8

// Supported cleartext widths.
const (
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
	Width64 Width = 64
)

// Widths returns the supported widths in catalog order.
func Widths() []Width {
	return []Width{Width8, Width16, Width32, Width64}
}

// Valid reports whether w is one of the supported widths.
func (w Width) Valid() bool {
	switch w {
	case Width8, Width16, Width32, Width64:
		return true
	default:
		return false
	}
}

// Bits returns the width as an int.
func (w Width) Bits() int {
	return int(w)
}

// Bytes returns the number of bytes needed to hold a cleartext.
func (w Width) Bytes() int {
	return int(w) / 8
}

// Max returns the largest cleartext representable in w.
func (w Width) Max() uint64 {
	if w >= Width64 {
		return ^uint64(0)
	}

	return 1<<uint(w) - 1
}

// Mask reduces v modulo 2^w.
func (w Width) Mask(v uint64) uint64 {
	return v & w.Max()
}

// Check returns a RangeError if v does not fit in w.
func (w Width) Check(v uint64) error {
	if !w.Valid() {
		return &ConfigurationError{Value: w.String(), What: "width"}
	}

	if v > w.Max() {
		return &RangeError{Value: v, Width: w}
	}

	return nil
}

// String returns the short name used in file names, e.g. "u8".
func (w Width) String() string {
	return "u" + strconv.Itoa(int(w))
}

// Operation is a homomorphic binary operator.
type Operation uint8

// Supported operations.
const (
	Add Operation = iota
	Sub
	Mul
)

// Operations returns the supported operations in catalog order.
func Operations() []Operation {
	return []Operation{Add, Sub, Mul}
}

// String returns the operation name, e.g. "add".
func (op Operation) String() string {
	switch op {
	case Add:
		return "add"
	case Sub:
		return "sub"
	case Mul:
		return "mul"
	default:
		return fmt.Sprintf("op(%d)", uint8(op))
	}
}

// Valid reports whether op is a known operation.
func (op Operation) Valid() bool {
	return op <= Mul
}

// Apply computes the cleartext reference result of op on a and b with
// wrapping modulo 2^w semantics.
func (op Operation) Apply(a, b uint64, w Width) uint64 {
	switch op {
	case Add:
		return w.Mask(a + b)
	case Sub:
		return w.Mask(a - b)
	case Mul:
		return w.Mask(a * b)
	default:
		return 0
	}
}

// MarshalText encodes the width by name.
func (w Width) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText decodes a width name.
func (w *Width) UnmarshalText(text []byte) error {
	parsed, err := ParseWidth(string(text))
	if err != nil {
		return err
	}

	*w = parsed

	return nil
}

// MarshalText encodes the operation by name.
func (op Operation) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// UnmarshalText decodes an operation name.
func (op *Operation) UnmarshalText(text []byte) error {
	parsed, err := ParseOperation(string(text))
	if err != nil {
		return err
	}

	*op = parsed

	return nil
}

// Case is one (width, operation) benchmark unit.
type Case struct {
	Width     Width     `json:"width"`
	Operation Operation `json:"operation"`
}

// String returns the case identity, e.g. "u8/add".
func (c Case) String() string {
	return c.Width.String() + "/" + c.Operation.String()
}

// Validate returns a ConfigurationError for a case outside the catalog.
func (c Case) Validate() error {
	if !c.Width.Valid() {
		return &ConfigurationError{Value: c.Width.String(), What: "width"}
	}

	if !c.Operation.Valid() {
		return &ConfigurationError{Value: c.Operation.String(), What: "operation"}
	}

	return nil
}

// Cases returns the full catalog. The outer loop runs over operations and
// the inner loop over widths, so u8/add, u16/add, ... u64/mul.
func Cases() []Case {
	return Select(nil, nil)
}

// Select returns the catalog restricted to the given operations and
// widths, keeping catalog order. A nil or empty filter selects everything.
func Select(ops []Operation, widths []Width) []Case {
	cases := make([]Case, 0, len(Operations())*len(Widths()))

	for _, op := range Operations() {
		if len(ops) > 0 && !contains(ops, op) {
			continue
		}

		for _, w := range Widths() {
			if len(widths) > 0 && !contains(widths, w) {
				continue
			}

			cases = append(cases, Case{Width: w, Operation: op})
		}
	}

	return cases
}

// ParseWidth parses "8" or "u8" style width names.
func ParseWidth(s string) (Width, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "u")

	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 0 || n > 255 || !Width(n).Valid() {
		return 0, &ConfigurationError{Value: s, What: "width"}
	}

	return Width(n), nil
}

// ParseOperation parses an operation name such as "add".
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add":
		return Add, nil
	case "sub":
		return Sub, nil
	case "mul":
		return Mul, nil
	default:
		return 0, &ConfigurationError{Value: s, What: "operation"}
	}
}

func contains[T comparable](items []T, v T) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}

	return false
}
