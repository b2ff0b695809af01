package script

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type fakeHandle struct {
	value Value
}

func (h *fakeHandle) Scalar() Value {
	return h.value
}

type recorder struct {
	calls []string
}

func (r *recorder) registry(h *fakeHandle) Registry {
	return Registry{
		"record": func(args []Value) (Value, error) {
			s, _ := args[0].Str()
			r.calls = append(r.calls, s)
			return VoidValue(), nil
		},
		"indicator": func(args []Value) (Value, error) {
			return HandleValue(h), nil
		},
	}
}

func mustRun(t *testing.T, src string, funcs Registry) *Evaluator {
	t.Helper()
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ev := NewEvaluator(prog, funcs)
	if err := ev.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return ev
}

func TestEvaluator_Arithmetic(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"precedence", "x = 1 + 2 * 3", "7"},
		{"grouping", "x = (1 + 2) * 3", "9"},
		{"division", "x = 7 / 2", "3.5"},
		{"negation", "x = -2.5 - 1", "-3.5"},
		{"variables", "a = 4\nx = a * a", "16"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := mustRun(t, tt.src, nil)
			got, _ := ev.Lookup("x")
			n, ok := got.Number()
			if !ok || !n.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("x = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestEvaluator_Comparisons(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"x = 1 < 2", true},
		{"x = 2 <= 2", true},
		{"x = 3 > 4", false},
		{"x = 4 >= 5", false},
		{"x = \"a\" == \"a\"", true},
		{"x = true != false", true},
		{"x = !(1 == 1)", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			ev := mustRun(t, tt.src, nil)
			got, _ := ev.Lookup("x")
			b, ok := got.Bool()
			if !ok || b != tt.want {
				t.Errorf("x = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluator_IfChain(t *testing.T) {
	src := `
if n > 10:
    record("big")
elif n > 5:
    record("medium")
elif n > 1:
    record("small")
else:
    record("tiny")
`
	tests := []struct {
		n    int64
		want string
	}{
		{20, "big"},
		{7, "medium"},
		{2, "small"},
		{0, "tiny"},
	}
	for _, tt := range tests {
		prog, err := Parse(src)
		if err != nil {
			t.Fatal(err)
		}
		r := &recorder{}
		ev := NewEvaluator(prog, r.registry(nil))
		ev.vars["n"] = IntValue(tt.n)
		if err := ev.Run(); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(r.calls) != 1 || r.calls[0] != tt.want {
			t.Errorf("n=%d: calls = %v, want [%s]", tt.n, r.calls, tt.want)
		}
	}
}

func TestEvaluator_Truthiness(t *testing.T) {
	tests := []struct {
		cond string
		want bool
	}{
		{"0", false},
		{"0.5", true},
		{"\"\"", false},
		{"\"x\"", true},
		{"false", false},
		{"ind", true},
	}
	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			r := &recorder{}
			h := &fakeHandle{value: BoolValue(true)}
			mustRun(t, "ind = indicator()\nif "+tt.cond+":\n    record(\"hit\")\n", r.registry(h))
			if got := len(r.calls) == 1; got != tt.want {
				t.Errorf("branch taken = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluator_HandlesUnwrapPerRun(t *testing.T) {
	h := &fakeHandle{value: IntValue(1)}
	r := &recorder{}
	prog, err := Parse("v = indicator()\nif v > 5:\n    record(\"above\")\n")
	if err != nil {
		t.Fatal(err)
	}
	ev := NewEvaluator(prog, r.registry(h))
	for _, n := range []int64{1, 6, 3, 9} {
		h.value = IntValue(n)
		if err := ev.Run(); err != nil {
			t.Fatal(err)
		}
	}
	if len(r.calls) != 2 {
		t.Errorf("calls = %v, want two hits", r.calls)
	}
	v, _ := ev.Lookup("v")
	if v.Kind() != KindHandle {
		t.Errorf("v kind = %s, want handle", v.Kind())
	}
}

func TestEvaluator_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{"unknown function", "missing()", ErrUnknownFunction},
		{"unresolved identifier", "x = y + 1", ErrUnresolvedIdentifier},
		{"arithmetic on bool", "x = true + 1", ErrTypeMismatch},
		{"not on number", "x = !1", ErrTypeMismatch},
		{"minus on string", "x = -\"a\"", ErrTypeMismatch},
		{"mixed equality", "x = 1 == true", ErrTypeMismatch},
		{"ordering strings", "x = \"a\" < \"b\"", ErrTypeMismatch},
		{"void assignment", "x = record(\"a\")", ErrVoidValue},
		{"void operand", "x = record(\"a\") + 1", ErrVoidValue},
		{"void argument", "record(record(\"a\"))", ErrVoidValue},
		{"division by zero", "x = 1 / (2 - 2)", ErrDivisionByZero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Parse(tt.src)
			if err != nil {
				t.Fatal(err)
			}
			r := &recorder{}
			err = NewEvaluator(prog, r.registry(nil)).Run()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrEval) {
				t.Errorf("error %v does not wrap ErrEval", err)
			}
		})
	}
}

func TestEvaluator_FunctionErrorAbortsRun(t *testing.T) {
	boom := errors.New("boom")
	prog, err := Parse("fail()\nrecord(\"after\")\n")
	if err != nil {
		t.Fatal(err)
	}
	r := &recorder{}
	funcs := r.registry(nil)
	funcs["fail"] = func([]Value) (Value, error) { return Value{}, boom }
	err = NewEvaluator(prog, funcs).Run()
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want boom", err)
	}
	if len(r.calls) != 0 {
		t.Errorf("statements after the failure ran: %v", r.calls)
	}
}
