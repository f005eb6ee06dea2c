package catalog

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestCasesCoverCatalog(t *testing.T) {
	cases := Cases()

	if len(cases) != 12 {
		t.Fatalf("len(Cases()) = %d, want 12", len(cases))
	}

	seen := make(map[Case]bool, len(cases))
	for _, c := range cases {
		if seen[c] {
			t.Errorf("case %s listed twice", c)
		}
		seen[c] = true
	}

	for _, op := range Operations() {
		for _, w := range Widths() {
			if !seen[Case{Width: w, Operation: op}] {
				t.Errorf("case %s/%s missing", w, op)
			}
		}
	}
}

func TestCasesOrder(t *testing.T) {
	want := []string{
		"u8/add", "u16/add", "u32/add", "u64/add",
		"u8/sub", "u16/sub", "u32/sub", "u64/sub",
		"u8/mul", "u16/mul", "u32/mul", "u64/mul",
	}

	for run := 0; run < 2; run++ {
		cases := Cases()
		for i, c := range cases {
			if c.String() != want[i] {
				t.Errorf("run %d: case %d = %s, want %s", run, i, c, want[i])
			}
		}
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name   string
		ops    []Operation
		widths []Width
		want   []string
	}{
		{
			name: "all",
			want: nil,
		},
		{
			name:   "mul only",
			ops:    []Operation{Mul},
			widths: nil,
			want:   []string{"u8/mul", "u16/mul", "u32/mul", "u64/mul"},
		},
		{
			name:   "filter order ignored",
			ops:    []Operation{Sub, Add},
			widths: []Width{Width64, Width8},
			want:   []string{"u8/add", "u64/add", "u8/sub", "u64/sub"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.ops, tt.widths)

			if tt.want == nil {
				if len(got) != 12 {
					t.Fatalf("len = %d, want 12", len(got))
				}

				return
			}

			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}

			for i := range got {
				if got[i].String() != tt.want[i] {
					t.Errorf("case %d = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestWidthMax(t *testing.T) {
	tests := []struct {
		width Width
		want  uint64
	}{
		{Width8, 255},
		{Width16, 65535},
		{Width32, 4294967295},
		{Width64, 18446744073709551615},
	}

	for _, tt := range tests {
		if got := tt.width.Max(); got != tt.want {
			t.Errorf("%s.Max() = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestWidthCheck(t *testing.T) {
	if err := Width8.Check(255); err != nil {
		t.Errorf("Check(255) on u8: %v", err)
	}

	err := Width8.Check(300)
	if !errors.Is(err, ErrRange) {
		t.Fatalf("Check(300) on u8 = %v, want ErrRange", err)
	}

	var rangeErr *RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected *RangeError, got %T", err)
	}
	if rangeErr.Value != 300 || rangeErr.Width != Width8 {
		t.Errorf("RangeError = %+v", rangeErr)
	}

	if err := Width(12).Check(1); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Check on width 12 = %v, want ErrConfiguration", err)
	}
}

func TestOperationApply(t *testing.T) {
	tests := []struct {
		op    Operation
		a, b  uint64
		width Width
		want  uint64
	}{
		{Add, 1, 1, Width8, 2},
		{Add, 200, 100, Width8, 44},
		{Sub, 1, 2, Width8, 255},
		{Sub, 0, 1, Width16, 65535},
		{Mul, 16, 16, Width8, 0},
		{Mul, 300, 300, Width16, 24464},
		{Add, 1 << 63, 1 << 63, Width64, 0},
		{Mul, 1 << 32, 1 << 31, Width64, 1 << 63},
		{Mul, 1 << 32, 1 << 32, Width64, 0},
		{Sub, 5, 3, Width32, 2},
	}

	for _, tt := range tests {
		got := tt.op.Apply(tt.a, tt.b, tt.width)
		if got != tt.want {
			t.Errorf("%s(%d, %d) on %s = %d, want %d",
				tt.op, tt.a, tt.b, tt.width, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	for _, s := range []string{"8", "u8", "U8", " 8 "} {
		w, err := ParseWidth(s)
		if err != nil || w != Width8 {
			t.Errorf("ParseWidth(%q) = %v, %v", s, w, err)
		}
	}

	for _, s := range []string{"", "7", "u128", "264", "-8", "x"} {
		if _, err := ParseWidth(s); !errors.Is(err, ErrConfiguration) {
			t.Errorf("ParseWidth(%q) err = %v, want ErrConfiguration", s, err)
		}
	}

	op, err := ParseOperation("MUL")
	if err != nil || op != Mul {
		t.Errorf("ParseOperation(MUL) = %v, %v", op, err)
	}

	if _, err := ParseOperation("div"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("ParseOperation(div) err = %v, want ErrConfiguration", err)
	}
}

func TestCaseValidate(t *testing.T) {
	if err := (Case{Width: Width32, Operation: Sub}).Validate(); err != nil {
		t.Errorf("valid case: %v", err)
	}

	bad := []Case{
		{Width: 24, Operation: Add},
		{Width: Width8, Operation: Operation(9)},
	}
	for _, c := range bad {
		if err := c.Validate(); !errors.Is(err, ErrConfiguration) {
			t.Errorf("Validate(%s) = %v, want ErrConfiguration", c, err)
		}
	}
}

func TestCaseJSON(t *testing.T) {
	c := Case{Width: Width16, Operation: Mul}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if string(data) != `{"width":"u16","operation":"mul"}` {
		t.Errorf("json = %s", data)
	}

	var back Case
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != c {
		t.Errorf("round trip = %+v, want %+v", back, c)
	}

	if err := json.Unmarshal([]byte(`{"width":"u12"}`), &back); err == nil {
		t.Error("expected error for unknown width")
	}
}
